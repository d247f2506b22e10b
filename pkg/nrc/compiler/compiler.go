// Package compiler turns a resource directory into a C source file or a
// packed container, skipping the work when the existing artifact already
// matches its inputs.
package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nappgui/nrc/pkg/nrc/csource"
	"github.com/nappgui/nrc/pkg/nrc/diag"
	"github.com/nappgui/nrc/pkg/nrc/fingerprint"
	"github.com/nappgui/nrc/pkg/nrc/logging"
	"github.com/nappgui/nrc/pkg/nrc/pack"
	"github.com/nappgui/nrc/pkg/nrc/scanner"
	"github.com/nappgui/nrc/pkg/nrc/state"
	"github.com/nappgui/nrc/pkg/nrc/types"
)

var logger = logging.Get("compiler")

// Request names one compile.
type Request struct {
	Src  string
	Dest string
	Mode types.Mode

	// Force skips the up-to-date check.
	Force bool
}

// Recorder receives a summary of every compile.
type Recorder interface {
	Add(rec state.Record) (string, error)
}

// Options configures a Compiler.
type Options struct {
	// Scan holds the scanner settings. Root is taken from each Request.
	Scan scanner.Options

	// PackLimit caps the packed regions. Zero uses the format maximum.
	PackLimit uint64

	// History, when set, records each compile. Failures are logged only.
	History Recorder
}

// DefaultOptions returns options with default scanner settings and no
// history.
func DefaultOptions() Options {
	return Options{Scan: scanner.DefaultOptions()}
}

// Compiler runs compile requests.
type Compiler struct {
	opts Options
}

// New creates a compiler.
func New(opts Options) *Compiler {
	return &Compiler{opts: opts}
}

// Compile runs req with default options.
func Compile(ctx context.Context, req Request) types.CompileResult {
	return New(DefaultOptions()).Compile(ctx, req)
}

// Compile scans req.Src and writes req.Dest unless it is already up to
// date. Every problem is reported in the result; Compile never fails
// outright.
func (c *Compiler) Compile(ctx context.Context, req Request) types.CompileResult {
	start := time.Now()
	col := diag.New()

	dest, err := filepath.Abs(req.Dest)
	if err != nil {
		dest = req.Dest
	}

	log := logger.With("mode", req.Mode.String(), "dest", dest)
	log.Info("compile started", "src", req.Src)

	res := c.run(ctx, req, dest, col, log)
	res.Elapsed = time.Since(start)

	log.Info("compile finished",
		"regenerated", res.Regenerated,
		"entries", res.Entries,
		"size", types.FormatSize(res.Bytes),
		"warnings", len(res.Warnings),
		"errors", len(res.Errors),
		"elapsed", res.Elapsed)

	c.record(req, dest, res)
	return res
}

func (c *Compiler) run(ctx context.Context, req Request, dest string, col *diag.Collector, log *logging.Logger) types.CompileResult {
	sopts := c.opts.Scan
	sopts.Root = req.Src
	sc, err := scanner.New(sopts)
	if err != nil {
		col.Error(err)
		return col.Result(false)
	}

	scan, err := sc.Scan(ctx)
	if err != nil {
		log.Error("scan failed", "err", err)
		col.Error(err)
		return col.Result(false)
	}
	col.AddAll(scan.Diagnostics)

	set := withoutOutput(scan.Set, scan.Root, dest)
	fp := fingerprint.Compute(set, req.Mode)

	if !req.Force && !col.HasErrors() {
		stale, err := fingerprint.Stale(fp, req.Mode, dest)
		if err != nil {
			log.Debug("existing artifact ignored", "err", err)
		}
		if !stale {
			log.Info("artifact up to date")
			entries := len(set)
			if req.Mode == types.ModeSource {
				diags := csource.Collisions(set)
				col.AddAll(diags)
				entries -= len(diags)
			}
			res := col.Result(false)
			res.Entries = entries
			res.Fingerprint = fp.String()
			return res
		}
	}

	// An artifact built from incomplete input must never look up to date.
	recorded := fp
	if col.HasErrors() {
		recorded = types.Fingerprint{}
	}

	var out []byte
	entries := len(set)
	switch req.Mode {
	case types.ModePacked:
		out, err = pack.Encoder{Limit: c.opts.PackLimit}.Encode(set, recorded)
		if err != nil {
			col.Error(err)
			return col.Result(false)
		}
	default:
		var diags []types.Diagnostic
		out, diags = csource.Encode(set, recorded)
		col.AddAll(diags)
		entries -= len(diags)
	}

	if err := writeAtomic(dest, out); err != nil {
		col.Error(types.NewPathError("write", dest, types.ErrIO, err))
		return col.Result(false)
	}

	res := col.Result(true)
	res.Entries = entries
	res.Bytes = int64(len(out))
	if !recorded.IsZero() {
		res.Fingerprint = recorded.String()
	}
	return res
}

// withoutOutput drops the artifact itself when it lives inside the
// resource directory, so a rebuild does not feed on its own output.
func withoutOutput(set types.ResourceSet, root, dest string) types.ResourceSet {
	dir, err := filepath.EvalSymlinks(filepath.Dir(dest))
	if err != nil {
		return set
	}
	rel, err := filepath.Rel(root, filepath.Join(dir, filepath.Base(dest)))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return set
	}

	name := filepath.ToSlash(rel)
	if _, ok := set.Lookup(name); !ok {
		return set
	}
	logger.Debug("excluding output from its own inputs", "name", name)

	out := make(types.ResourceSet, 0, len(set)-1)
	for _, e := range set {
		if e.Name != name {
			out = append(out, e)
		}
	}
	return out
}

// writeAtomic writes data to a temp file in the destination directory and
// renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".nrc-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// Cleanup temp file on rename failure
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func (c *Compiler) record(req Request, dest string, res types.CompileResult) {
	if c.opts.History == nil {
		return
	}
	src, err := filepath.Abs(req.Src)
	if err != nil {
		src = req.Src
	}
	if _, err := c.opts.History.Add(state.NewRecord(src, dest, req.Mode, res)); err != nil {
		logger.Warn("failed to record compile", "err", err)
	}
}
