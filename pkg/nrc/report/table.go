package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// CSVFormatter writes name,size rows with RFC 4180 quoting.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, inv *Inventory) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"name", "size"}); err != nil {
		return err
	}
	for _, r := range inv.Resources {
		if err := writer.Write([]string{r.Name, strconv.FormatInt(r.Size, 10)}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// NamesFormatter writes one resource name per line, for scripting.
type NamesFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *NamesFormatter) Format(w *bytes.Buffer, inv *Inventory) error {
	for _, r := range inv.Resources {
		w.WriteString(r.Name)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
	Register("names", func() Formatter {
		return &NamesFormatter{}
	})
}

var (
	_ Formatter = (*CSVFormatter)(nil)
	_ Formatter = (*NamesFormatter)(nil)
)
