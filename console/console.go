// Package console prints workflow progress and results to a terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes styled output to w. Colors are only emitted when w is a
// terminal. A nil *Printer discards everything. Printer is safe for concurrent
// use; each call is written as a unit.
type Printer struct {
	mu      sync.Mutex
	w       io.Writer
	banner  lipgloss.Style
	section lipgloss.Style
	label   lipgloss.Style
	debug   lipgloss.Style
}

// New creates a printer on w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w: w,
		banner: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2),
		section: r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		label:   r.NewStyle().Bold(true),
		debug:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Stdout is a printer on the process standard output.
func Stdout() *Printer {
	return New(os.Stdout)
}

// Writer returns the destination of p.
func (p *Printer) Writer() io.Writer {
	if p == nil {
		return io.Discard
	}
	return p.w
}

// Banner prints a boxed title.
func (p *Printer) Banner(title string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, p.banner.Render(title))
}

// Section prints a heading followed by a rule of the same width.
func (p *Printer) Section(title string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.section.Render(title))
	fmt.Fprintln(p.w, p.section.Render(strings.Repeat("-", lipgloss.Width(title))))
}

// Field prints "label: value".
func (p *Printer) Field(label string, value any) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s %v\n", p.label.Render(label+":"), value)
}

// Line prints a formatted line.
func (p *Printer) Line(format string, args ...any) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Debug dumps an intermediate value between workflow steps.
func (p *Printer) Debug(step string, v any) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, p.debug.Render(fmt.Sprintf("--- DEBUG: %s ---", step)))
	fmt.Fprintf(p.w, "Type: %T\n", v)
	fmt.Fprintf(p.w, "Content: %v\n", v)
	fmt.Fprintln(p.w, p.debug.Render(strings.Repeat("-", 30)))
}
