package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// PrettyFormatter formats an inventory with colors and a summary box.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, inv *Inventory) error {
	w.WriteString(f.formatHeader(inv))
	w.WriteString("\n")
	w.WriteString(f.formatTable(inv))
	return nil
}

func (f *PrettyFormatter) formatHeader(inv *Inventory) string {
	lines := []string{
		TitleStyle.Render(inv.Path),
		fmt.Sprintf("%s %s  %s %s  %s %s",
			LabelStyle.Render("Mode:"), ValueStyle.Render(inv.Mode),
			LabelStyle.Render("Resources:"), ValueStyle.Render(humanize.Comma(int64(len(inv.Resources)))),
			LabelStyle.Render("Payload:"), SizeStyle.Render(humanize.IBytes(uint64(inv.TotalSize())))),
	}

	if inv.Fingerprint != "" {
		lines = append(lines, LabelStyle.Render("Fingerprint: ")+MutedStyle.Render(inv.Fingerprint))
	} else {
		lines = append(lines, ErrorLabel.Render("Built with errors; will be regenerated"))
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatTable(inv *Inventory) string {
	if len(inv.Resources) == 0 {
		return MutedStyle.Render("  No resources") + "\n"
	}

	width := len("SIZE")
	for _, r := range inv.Resources {
		if len(r.SizeHuman) > width {
			width = len(r.SizeHuman)
		}
	}

	var sb strings.Builder
	sb.WriteString("  " + TableHeaderStyle.Render(padLeft("SIZE", width)) + "  " + TableHeaderStyle.Render("NAME") + "\n")
	for _, r := range inv.Resources {
		sb.WriteString("  " + SizeStyle.Render(padLeft(r.SizeHuman, width)) + "  " + ValueStyle.Render(r.Name) + "\n")
	}
	return sb.String()
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
