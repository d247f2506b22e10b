package report

import (
	"bytes"
	"encoding/json"
)

type jsonOutput struct {
	*Inventory
	TotalSize int64 `json:"total_size"`
}

// JSONFormatter formats an inventory as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, inv *Inventory) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonOutput{Inventory: withResources(inv), TotalSize: inv.TotalSize()})
}

// withResources guarantees a non-nil resource list so empty artifacts
// encode as [] rather than null.
func withResources(inv *Inventory) *Inventory {
	if inv.Resources != nil {
		return inv
	}
	cp := *inv
	cp.Resources = []Resource{}
	return &cp
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

var _ Formatter = (*JSONFormatter)(nil)
