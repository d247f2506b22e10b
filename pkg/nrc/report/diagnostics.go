package report

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/nappgui/nrc/pkg/nrc/types"
)

// Printer writes compile diagnostics in the stable `[ERROR] message`
// format, optionally with colored labels.
type Printer struct {
	w      io.Writer
	styled bool
}

// NewPrinter creates a printer. Labels are colored only when styled is set.
func NewPrinter(w io.Writer, styled bool) *Printer {
	return &Printer{w: w, styled: styled}
}

// IsTerminal reports whether f is an interactive terminal that accepts
// color.
func IsTerminal(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Diagnostics prints every error, then every warning, in recording order.
func (p *Printer) Diagnostics(res types.CompileResult) {
	for _, msg := range res.Errors {
		p.line(types.SeverityError, msg)
	}
	for _, msg := range res.Warnings {
		p.line(types.SeverityWarning, msg)
	}
}

func (p *Printer) line(sev types.Severity, msg string) {
	label := "[" + sev.String() + "]"
	if p.styled {
		if sev == types.SeverityError {
			label = ErrorLabel.Render(label)
		} else {
			label = WarningLabel.Render(label)
		}
	}
	fmt.Fprintf(p.w, "%s %s\n", label, msg)
}

// Summary prints a one-line description of a finished compile.
func (p *Printer) Summary(dest string, res types.CompileResult) {
	var status string
	switch {
	case len(res.Errors) > 0:
		status = "failed"
	case !res.Regenerated:
		status = "up to date"
	default:
		status = "written"
	}
	if p.styled && len(res.Errors) == 0 {
		status = SuccessStyle.Render(status)
	}

	fmt.Fprintf(p.w, "%s: %s (%d resources, %s, %s)\n",
		dest, status, res.Entries, types.FormatSize(res.Bytes), formatElapsed(res.Elapsed))
}
