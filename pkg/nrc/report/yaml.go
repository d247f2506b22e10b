package report

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

type yamlOutput struct {
	Path        string     `yaml:"path"`
	Mode        string     `yaml:"mode"`
	FileSize    int64      `yaml:"file_size"`
	Fingerprint string     `yaml:"fingerprint,omitempty"`
	TotalSize   int64      `yaml:"total_size"`
	Resources   []Resource `yaml:"resources"`
}

// YAMLFormatter formats an inventory as YAML with the same fields as
// JSONFormatter.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, inv *Inventory) error {
	out := yamlOutput{
		Path:        inv.Path,
		Mode:        inv.Mode,
		FileSize:    inv.FileSize,
		Fingerprint: inv.Fingerprint,
		TotalSize:   inv.TotalSize(),
		Resources:   withResources(inv).Resources,
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(out); err != nil {
		return err
	}
	return encoder.Close()
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

var _ Formatter = (*YAMLFormatter)(nil)
