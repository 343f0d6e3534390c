// Package console prints the launcher's user-facing output: progress steps,
// the dashboard link, and an optional QR code.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mdp/qrterminal/v3"
	"golang.org/x/term"
)

// Colors
var (
	primaryColor   = lipgloss.Color("39")  // Blue
	secondaryColor = lipgloss.Color("245") // Gray
	successColor   = lipgloss.Color("82")  // Green
)

// Printer writes styled lines. Styling is dropped when w is not a terminal.
type Printer struct {
	w      io.Writer
	styled bool
	step   lipgloss.Style
	url    lipgloss.Style
	hint   lipgloss.Style
}

// New returns a printer for w.
func New(w io.Writer) *Printer {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}
	return newPrinter(w, styled)
}

func newPrinter(w io.Writer, styled bool) *Printer {
	p := &Printer{w: w, styled: styled}
	if styled {
		p.step = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
		p.url = lipgloss.NewStyle().Foreground(successColor).Underline(true)
		p.hint = lipgloss.NewStyle().Foreground(secondaryColor).Italic(true)
	} else {
		plain := lipgloss.NewStyle()
		p.step, p.url, p.hint = plain, plain, plain
	}
	return p
}

func (p *Printer) line(style lipgloss.Style, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if p.styled {
		text = style.Render(text)
	}
	fmt.Fprintln(p.w, text)
}

// Step reports a launcher milestone.
func (p *Printer) Step(format string, args ...any) { p.line(p.step, "==> "+format, args...) }

// URL prints a labelled link on its own line so it can be copied.
func (p *Printer) URL(label, url string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, label)
	p.line(p.url, "  %s", url)
	fmt.Fprintln(p.w)
}

// Hint prints secondary guidance.
func (p *Printer) Hint(format string, args ...any) { p.line(p.hint, format, args...) }

// QR renders url as a half-block QR code.
func (p *Printer) QR(url string) {
	qrterminal.GenerateHalfBlock(url, qrterminal.L, p.w)
	fmt.Fprintln(p.w)
}
