package lifecycle

import (
	"bytes"
	"sync"
)

// tailLines is how much gateway output is kept for the exit report.
const tailLines = 20

// lineRing stores the last N lines
type lineRing struct {
	lines []string
	size  int
	pos   int
	count int
	mu    sync.Mutex
}

func newLineRing(size int) *lineRing {
	return &lineRing{
		lines: make([]string, size),
		size:  size,
	}
}

func (b *lineRing) add(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines[b.pos] = line
	b.pos = (b.pos + 1) % b.size
	if b.count < b.size {
		b.count++
	}
}

// Lines returns buffered lines, oldest first
func (b *lineRing) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]string, 0, b.count)
	if b.count < b.size {
		result = append(result, b.lines[:b.count]...)
	} else {
		result = append(result, b.lines[b.pos:]...)
		result = append(result, b.lines[:b.pos]...)
	}
	return result
}

// tailWriter splits one output stream into lines for a shared ring.
// Not safe for concurrent use; each stream gets its own writer.
type tailWriter struct {
	ring    *lineRing
	partial []byte
}

func (w *tailWriter) Write(p []byte) {
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			w.partial = append(w.partial, p...)
			return
		}
		w.partial = append(w.partial, p[:i]...)
		w.ring.add(string(bytes.TrimRight(w.partial, "\r")))
		w.partial = w.partial[:0]
		p = p[i+1:]
	}
}

// Flush records an unterminated last line.
func (w *tailWriter) Flush() {
	if len(w.partial) > 0 {
		w.ring.add(string(w.partial))
		w.partial = w.partial[:0]
	}
}
