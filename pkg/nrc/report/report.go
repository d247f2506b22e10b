// Package report renders compile diagnostics, artifact inventories and
// compile history for the terminal.
//
// Inventory formatters are kept in a registry so the CLI can select one by
// name:
//
//	formatter, err := report.Get("json")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, inv); err != nil {
//	    return err
//	}
package report

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/nappgui/nrc/pkg/nrc/csource"
	"github.com/nappgui/nrc/pkg/nrc/logging"
	"github.com/nappgui/nrc/pkg/nrc/pack"
	"github.com/nappgui/nrc/pkg/nrc/types"
)

var logger = logging.Get("report")

// Resource describes one resource of an artifact.
type Resource struct {
	Name      string `json:"name" yaml:"name"`
	Size      int64  `json:"size" yaml:"size"`
	SizeHuman string `json:"size_human" yaml:"size_human"`
}

// Inventory lists the contents of a generated artifact.
type Inventory struct {
	// Path is the artifact that was read.
	Path string `json:"path" yaml:"path"`

	// Mode is the artifact kind, "source" or "packed".
	Mode string `json:"mode" yaml:"mode"`

	// FileSize is the size of the artifact itself.
	FileSize int64 `json:"file_size" yaml:"file_size"`

	// Fingerprint is empty for artifacts built with errors.
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`

	Resources []Resource `json:"resources" yaml:"resources"`

	set types.ResourceSet
}

// TotalSize returns the sum of all resource sizes.
func (inv *Inventory) TotalSize() int64 {
	var total int64
	for _, r := range inv.Resources {
		total += r.Size
	}
	return total
}

// Extract returns the bytes of the named resource.
func (inv *Inventory) Extract(name string) ([]byte, error) {
	e, ok := inv.set.Lookup(name)
	if !ok {
		return nil, types.NewPathError("extract", name, types.ErrNotFound, nil)
	}
	return e.Data, nil
}

// NewInventory describes set as stored in an artifact.
func NewInventory(path string, mode types.Mode, fileSize int64, fp types.Fingerprint, set types.ResourceSet) *Inventory {
	inv := &Inventory{
		Path:      path,
		Mode:      mode.String(),
		FileSize:  fileSize,
		Resources: make([]Resource, len(set)),
		set:       set,
	}
	if !fp.IsZero() {
		inv.Fingerprint = fp.String()
	}
	for i, e := range set {
		inv.Resources[i] = Resource{
			Name:      e.Name,
			Size:      e.Size(),
			SizeHuman: types.FormatSize(e.Size()),
		}
	}
	return inv
}

// Load reads an artifact produced by either encoder. The format is
// detected from the content.
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if bytes.HasPrefix(data, []byte(pack.Magic)) {
		c, err := pack.Open(data)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded pack", "path", path, "entries", c.Len())
		return NewInventory(path, types.ModePacked, int64(len(data)), c.Fingerprint(), c.Set()), nil
	}

	f, err := csource.Decode(data)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded source", "path", path, "entries", len(f.Resources))
	return NewInventory(path, types.ModeSource, int64(len(data)), f.Fingerprint, f.Set()), nil
}

// Formatter renders an inventory.
type Formatter interface {
	Format(w *bytes.Buffer, inv *Inventory) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown format: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
