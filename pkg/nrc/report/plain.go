package report

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// PlainFormatter writes an aligned SIZE/NAME table without styling.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, inv *Inventory) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintf(tw, "SIZE\tNAME\n"); err != nil {
		return err
	}
	for _, r := range inv.Resources {
		if _, err := fmt.Fprintf(tw, "%d\t%s\n", r.Size, r.Name); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fp := inv.Fingerprint
	if fp == "" {
		fp = "none (built with errors)"
	}
	fmt.Fprintf(w, "\n%s: %s, %d resources, %d bytes\nfingerprint: %s\n",
		inv.Path, inv.Mode, len(inv.Resources), inv.TotalSize(), fp)
	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
