package lifecycle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineRingWraps(t *testing.T) {
	r := newLineRing(3)
	assert.Empty(t, r.Lines())

	r.add("a")
	r.add("b")
	assert.Equal(t, []string{"a", "b"}, r.Lines())

	for i := 0; i < 4; i++ {
		r.add(fmt.Sprint(i))
	}
	assert.Equal(t, []string{"1", "2", "3"}, r.Lines())
}

func TestTailWriterSplitsLines(t *testing.T) {
	r := newLineRing(10)
	w := &tailWriter{ring: r}

	w.Write([]byte("one\r\ntw"))
	w.Write([]byte("o\n"))
	w.Write([]byte("\nthree"))
	assert.Equal(t, []string{"one", "two", ""}, r.Lines())

	w.Flush()
	assert.Equal(t, []string{"one", "two", "", "three"}, r.Lines())

	w.Flush()
	assert.Len(t, r.Lines(), 4)
}
