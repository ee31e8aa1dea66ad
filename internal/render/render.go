// Package render writes session results to a terminal.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/itsmostafa/evalctl/internal/engine"
	"github.com/itsmostafa/evalctl/internal/session"
)

var (
	// titleStyle for bold red headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("160"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// errorStyle for error indicators
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// locationStyle for line:column prefixes
	locationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	// hintStyle for explanations and suggestions
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	// headerBoxStyle for the REPL banner
	headerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("160")).
			Padding(0, 1)
)

// Renderer writes results to out and diagnostics to errOut.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	color  bool
}

// New creates a Renderer. With color off every style is skipped.
func New(out, errOut io.Writer, color bool) *Renderer {
	return &Renderer{out: out, errOut: errOut, color: color}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// Banner renders the REPL header.
func (r *Renderer) Banner(lang, version string) {
	content := fmt.Sprintf("%s %s  %s %s\n%s",
		r.style(dimStyle, "Engine:"), r.style(titleStyle, lang),
		r.style(dimStyle, "Version:"), version,
		r.style(dimStyle, "Type :help for commands, :quit to exit"),
	)
	if r.color {
		content = headerBoxStyle.Render(content)
	}
	fmt.Fprintln(r.out, content)
}

// Print writes program output as it is produced.
func (r *Renderer) Print(text string) {
	fmt.Fprint(r.out, text)
}

// PassTiming renders the duration of one engine pass.
func (r *Renderer) PassTiming(pass string, elapsedMs float64) {
	fmt.Fprintln(r.errOut, r.style(dimStyle, fmt.Sprintf("%s: %.3fms", pass, elapsedMs)))
}

// Callbacks returns engine callbacks that stream through r.
func (r *Renderer) Callbacks() *engine.Callbacks {
	return &engine.Callbacks{
		Print:      r.Print,
		PassTiming: r.PassTiming,
	}
}

// Outputs renders the plain-text payload and the elapsed time, if any.
func (r *Renderer) Outputs(o engine.Outputs) {
	if text, ok := o.Get(engine.MIMEText); ok && text != "" {
		fmt.Fprint(r.out, text)
		if !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(r.out)
		}
	}
	if o.Timing != nil {
		fmt.Fprintln(r.errOut, r.style(dimStyle, "Took "+formatDuration(*o.Timing)))
	}
}

// Error renders err. Compilation failures get one line per diagnostic.
func (r *Renderer) Error(err error) {
	var (
		errs    engine.CompilationErrors
		encoded *session.EncodedDiagnosticsError
		unknown *session.UnknownCommandError
	)
	switch {
	case errors.As(err, &errs):
		for _, ce := range errs {
			r.diagnostic(ce)
		}
	case errors.As(err, &encoded):
		fmt.Fprintln(r.out, encoded.JSON)
	case errors.As(err, &unknown):
		fmt.Fprintf(r.errOut, "%s unrecognised command %s\n", r.style(errorStyle, "error:"), unknown.Name)
		if unknown.Suggestion != "" {
			fmt.Fprintln(r.errOut, r.style(hintStyle, "did you mean "+unknown.Suggestion+"?"))
		}
	default:
		fmt.Fprintf(r.errOut, "%s %v\n", r.style(errorStyle, "error:"), err)
	}
}

func (r *Renderer) diagnostic(ce engine.CompilationError) {
	label := ce.Kind + " error:"
	if ce.Line > 0 {
		loc := fmt.Sprintf("%d:%d:", ce.Line, ce.Column)
		fmt.Fprintf(r.errOut, "%s %s %s\n", r.style(locationStyle, loc), r.style(errorStyle, label), ce.Message)
	} else {
		fmt.Fprintf(r.errOut, "%s %s\n", r.style(errorStyle, label), ce.Message)
	}
	if _, ok := ce.Explanation(); ok {
		fmt.Fprintln(r.errOut, r.style(hintStyle, "run :explain-last-error for details"))
	}
}

// formatDuration prints short durations in milliseconds.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
