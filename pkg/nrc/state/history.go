package state

import (
	"path/filepath"
	"time"

	"github.com/nappgui/nrc/pkg/nrc/logging"
	"github.com/nappgui/nrc/pkg/nrc/types"
)

var logger = logging.Get("state")

// History provides high-level access to the compile history.
type History struct {
	store *Store
}

// Open opens or creates a history at the given path.
func Open(path string) (*History, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	return &History{store: store}, nil
}

// Close closes the history.
func (h *History) Close() error {
	return h.store.Close()
}

// NewRecord summarizes one compile.
func NewRecord(src, dest string, mode types.Mode, res types.CompileResult) Record {
	return Record{
		Src:         src,
		Dest:        dest,
		Mode:        mode.String(),
		Regenerated: res.Regenerated,
		Entries:     res.Entries,
		Bytes:       res.Bytes,
		Fingerprint: res.Fingerprint,
		Warnings:    len(res.Warnings),
		Errors:      len(res.Errors),
		ExitCode:    int(res.ExitCode()),
		Elapsed:     res.Elapsed,
	}
}

// Add stores rec and returns its assigned ID.
func (h *History) Add(rec Record) (string, error) {
	if err := h.store.Put(&rec); err != nil {
		return "", err
	}
	logger.Debug("recorded compile", "id", rec.ID, "dest", rec.Dest, "exit", rec.ExitCode)
	return rec.ID, nil
}

// Get returns the record with the given ID.
func (h *History) Get(id string) (*Record, error) {
	return h.store.Get(id)
}

// Recent returns up to limit records, newest first. A non-empty output
// restricts the result to compiles writing that path.
func (h *History) Recent(limit int, output string) ([]Record, error) {
	if output == "" {
		return h.store.List(limit, nil)
	}
	if abs, err := filepath.Abs(output); err == nil {
		output = abs
	}
	return h.store.List(limit, func(r *Record) bool {
		return r.Dest == output
	})
}

// Prune removes records older than retentionDays. Zero or less keeps all.
func (h *History) Prune(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	n, err := h.store.DeleteBefore(cutoff)
	if n > 0 {
		logger.Info("pruned history", "removed", n, "retention_days", retentionDays)
	}
	return n, err
}

// Clear removes every record.
func (h *History) Clear() error {
	return h.store.DeleteAll()
}
