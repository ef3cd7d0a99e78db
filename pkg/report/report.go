// Package report renders property outcomes for the terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/nomagicln/propshrink/pkg/runner"
	"golang.org/x/term"
)

// ColorMode selects when output is styled.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a color mode name. The empty string means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	}
	return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
}

// UseColor reports whether output written to w should be styled.
func UseColor(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Styles holds the styles used for one output stream.
type Styles struct {
	enabled bool
	ok      lipgloss.Style
	fail    lipgloss.Style
	warn    lipgloss.Style
	label   lipgloss.Style
	dim     lipgloss.Style
}

// NewStyles creates styles rendering to w. Disabled styles leave text as is.
func NewStyles(w io.Writer, enabled bool) Styles {
	r := lipgloss.NewRenderer(w)
	if enabled {
		r.SetColorProfile(termenv.ANSI256)
	}
	return Styles{
		enabled: enabled,
		ok:      r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		fail:    r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		label:   r.NewStyle().Foreground(lipgloss.Color("63")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func (s Styles) render(st lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return st.Render(text)
}

// Printer writes outcomes to a stream.
type Printer struct {
	w      io.Writer
	styles Styles
}

// NewPrinter creates a printer for w using mode to decide on styling.
func NewPrinter(w io.Writer, mode ColorMode) *Printer {
	return &Printer{w: w, styles: NewStyles(w, UseColor(mode, w))}
}

// Outcome writes the report for one property run.
func (p *Printer) Outcome(name string, o *runner.Outcome) error {
	_, err := io.WriteString(p.w, Format(name, o, p.styles))
	return err
}

// Format renders o in the console style of gopter:
//
//	! name: Falsified after 3 passed tests.
//	ARG_0: 10
//	ARG_0_ORIGINAL (3 shrinks): 50
func Format(name string, o *runner.Outcome, s Styles) string {
	if name == "" {
		name = "property"
	}
	var sb strings.Builder
	switch o.Status {
	case runner.StatusPassed:
		sb.WriteString(s.render(s.ok, "+ "+name+":"))
		fmt.Fprintf(&sb, " OK, passed %d tests.\n", o.Passed)
	case runner.StatusExhausted:
		sb.WriteString(s.render(s.warn, "! "+name+":"))
		fmt.Fprintf(&sb, " Gave up after only %d passed tests. %d tests were discarded.\n", o.Passed, o.Discarded)
	case runner.StatusFalsified:
		sb.WriteString(s.render(s.fail, "! "+name+":"))
		fmt.Fprintf(&sb, " Falsified after %d passed tests.\n", o.Passed)
		writeFailure(&sb, o.Failure, s)
	}
	sb.WriteString(s.render(s.dim, fmt.Sprintf("Seed: %d", o.Seed)))
	sb.WriteString("\n")
	return sb.String()
}

func writeFailure(sb *strings.Builder, f *runner.Failure, s Styles) {
	if f == nil {
		return
	}
	for i, v := range f.Counterexample {
		sb.WriteString(s.render(s.label, fmt.Sprintf("ARG_%d:", i)))
		fmt.Fprintf(sb, " %s\n", Value(v))
		if f.Shrunk && i < len(f.Original) {
			sb.WriteString(s.render(s.label, fmt.Sprintf("ARG_%d_ORIGINAL (%d shrinks):", i, f.Shrinks)))
			fmt.Fprintf(sb, " %s\n", Value(f.Original[i]))
		}
	}
	if f.GaveUp {
		sb.WriteString(s.render(s.warn, "Shrinking stopped at the sweep limit; the counterexample may not be minimal."))
		sb.WriteString("\n")
	}
}

// Value renders one argument. Strings are quoted so that empty and
// whitespace values stay visible.
func Value(v any) string {
	switch t := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return fmt.Sprintf("%q", t)
	}
	return fmt.Sprintf("%v", v)
}
