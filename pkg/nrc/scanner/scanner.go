package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/gobwas/glob"
	"github.com/nappgui/nrc/pkg/nrc/logging"
	"github.com/nappgui/nrc/pkg/nrc/types"
)

var logger = logging.Get("scanner")

// Scanner walks a resource directory and reads every resource file.
type Scanner struct {
	opts     Options
	excludes []glob.Glob

	dirsScanned  atomic.Int64
	filesScanned atomic.Int64

	mu      sync.Mutex
	entries []types.ResourceEntry
	diags   []pendingDiag
	links   []tree
	cycle   error
}

// tree is one directory hierarchy to walk. The root hierarchy has an empty
// prefix; hierarchies reached through symbolic links carry the relative
// name of the link and the real directories of every link on the way.
type tree struct {
	real   string
	prefix string
	via    []string
}

// pendingDiag keeps the relative name a diagnostic belongs to so the final
// list can be ordered independently of worker scheduling.
type pendingDiag struct {
	name string
	diag types.Diagnostic
}

// New creates a Scanner. It fails only on invalid exclusion patterns.
func New(opts Options) (*Scanner, error) {
	globs, err := opts.Validate()
	if err != nil {
		return nil, err
	}
	return &Scanner{opts: opts, excludes: globs}, nil
}

// Scan walks the root and returns every readable resource sorted by name.
// A missing root fails with types.ErrNotFound, an unreadable root with
// types.ErrIO and a looping symbolic link with types.ErrCycle. Problems
// with individual entries are returned as diagnostics instead.
func (s *Scanner) Scan(ctx context.Context) (*types.ScanResult, error) {
	startTime := time.Now()

	root, err := s.validateRoot()
	if err != nil {
		return nil, err
	}
	logger.Debug("scan started", "root", root)

	queue := []tree{{real: root}}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]

		if err := s.walk(ctx, t); err != nil {
			return nil, err
		}
		if s.cycle != nil {
			return nil, s.cycle
		}

		queue = append(queue, s.takeLinks()...)
	}

	s.entries = sortEntries(s.entries)
	diags := sortDiags(s.diags)

	logger.Debug("scan finished",
		"root", root,
		"entries", len(s.entries),
		"diagnostics", len(diags),
		"elapsed", time.Since(startTime))

	return &types.ScanResult{
		Root:         root,
		Set:          types.ResourceSet(s.entries),
		Diagnostics:  diags,
		DirsScanned:  s.dirsScanned.Load(),
		FilesScanned: s.filesScanned.Load(),
		Elapsed:      time.Since(startTime),
	}, nil
}

// validateRoot resolves the root to a real absolute directory and checks
// that it can be listed.
func (s *Scanner) validateRoot() (string, error) {
	abs, err := filepath.Abs(s.opts.Root)
	if err != nil {
		return "", types.NewPathError("scan", s.opts.Root, types.ErrIO, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", types.NewPathError("scan", abs, types.ErrNotFound, nil)
		}
		return "", types.NewPathError("scan", abs, types.ErrIO, err)
	}
	if !info.IsDir() {
		return "", types.NewPathError("scan", abs, types.ErrIO, errors.New("not a directory"))
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", types.NewPathError("scan", abs, types.ErrIO, err)
	}

	f, err := os.Open(resolved)
	if err != nil {
		return "", types.NewPathError("scan", abs, types.ErrIO, err)
	}
	defer f.Close()
	if _, err := f.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return "", types.NewPathError("scan", abs, types.ErrIO, err)
	}

	return resolved, nil
}

// walk traverses one hierarchy with fastwalk.
func (s *Scanner) walk(ctx context.Context, t tree) error {
	conf := fastwalk.Config{
		Follow:     false,
		NumWorkers: s.opts.Workers,
	}

	err := fastwalk.Walk(&conf, t.real, s.walkCallback(ctx, t))
	if err != nil && !errors.Is(err, fastwalk.ErrSkipFiles) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return types.NewPathError("scan", t.real, types.ErrIO, err)
	}
	return ctx.Err()
}

// walkCallback returns the callback for fastwalk.Walk. It runs
// concurrently from several workers.
func (s *Scanner) walkCallback(ctx context.Context, t tree) fs.WalkDirFunc {
	return func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		name := s.relName(t, p)

		if err != nil {
			s.addDiag(name, types.ErrorOf(types.NewPathError("read", name, types.ErrIO, err)))
			if d != nil && d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if p == t.real {
			s.dirsScanned.Add(1)
			return nil
		}

		if s.isExcluded(name) {
			logger.Info("skipped resource", "name", name, "dir", d.IsDir())
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		switch {
		case d.IsDir():
			s.dirsScanned.Add(1)
		case d.Type()&fs.ModeSymlink != 0:
			s.handleSymlink(t, p, name)
		case d.Type().IsRegular():
			s.readFile(p, name)
		default:
			s.addDiag(name, types.Warningf("unsupported file type %s: %s", d.Type(), name))
		}
		return nil
	}
}

// handleSymlink reads linked files directly and queues linked directories
// as new hierarchies, failing on links that point back to an ancestor.
func (s *Scanner) handleSymlink(t tree, p, name string) {
	if !s.opts.FollowSymlinks {
		s.addDiag(name, types.Warningf("unsupported file type symlink: %s", name))
		return
	}

	target, err := filepath.EvalSymlinks(p)
	if err != nil {
		s.addDiag(name, types.ErrorOf(types.NewPathError("read", name, types.ErrIO, err)))
		return
	}

	info, err := os.Stat(target)
	if err != nil {
		s.addDiag(name, types.ErrorOf(types.NewPathError("read", name, types.ErrIO, err)))
		return
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			s.addDiag(name, types.Warningf("unsupported file type %s: %s", info.Mode().Type(), name))
			return
		}
		s.readFile(target, name)
		return
	}

	via := make([]string, 0, len(t.via)+1)
	via = append(via, t.via...)
	via = append(via, filepath.Dir(p))

	for _, dir := range via {
		if isAncestorOrSelf(target, dir) {
			s.mu.Lock()
			if s.cycle == nil {
				s.cycle = types.NewPathError("follow", name, types.ErrCycle,
					fmt.Errorf("link target %s is an ancestor", target))
			}
			s.mu.Unlock()
			return
		}
	}

	s.mu.Lock()
	s.links = append(s.links, tree{real: target, prefix: name, via: via})
	s.mu.Unlock()
}

// readFile reads a resource and records it, or records an error diagnostic.
func (s *Scanner) readFile(p, name string) {
	info, err := os.Stat(p)
	if err != nil {
		s.addDiag(name, types.ErrorOf(types.NewPathError("read", name, types.ErrIO, err)))
		return
	}

	data, err := os.ReadFile(p)
	if err != nil {
		s.addDiag(name, types.ErrorOf(types.NewPathError("read", name, types.ErrIO, err)))
		return
	}

	s.filesScanned.Add(1)

	s.mu.Lock()
	s.entries = append(s.entries, types.ResourceEntry{
		Name:    name,
		Data:    data,
		ModTime: info.ModTime(),
	})
	s.mu.Unlock()
}

// relName converts a walked path into the canonical '/'-separated name.
func (s *Scanner) relName(t tree, p string) string {
	rel, err := filepath.Rel(t.real, p)
	if err != nil || rel == "." {
		rel = ""
	}
	rel = filepath.ToSlash(rel)

	switch {
	case t.prefix == "":
		return rel
	case rel == "":
		return t.prefix
	default:
		return t.prefix + "/" + rel
	}
}

// isExcluded checks hidden entries and exclusion patterns.
func (s *Scanner) isExcluded(name string) bool {
	base := path.Base(name)
	if s.opts.SkipHidden && strings.HasPrefix(base, ".") {
		return true
	}
	for _, g := range s.excludes {
		if g.Match(name) || g.Match(base) {
			return true
		}
	}
	return false
}

// addDiag records a diagnostic thread-safely.
func (s *Scanner) addDiag(name string, d types.Diagnostic) {
	s.mu.Lock()
	s.diags = append(s.diags, pendingDiag{name: name, diag: d})
	s.mu.Unlock()
}

// takeLinks returns and clears the linked hierarchies found so far.
func (s *Scanner) takeLinks() []tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	links := s.links
	s.links = nil
	sort.Slice(links, func(i, j int) bool {
		return links[i].prefix < links[j].prefix
	})
	return links
}

func sortEntries(entries []types.ResourceEntry) []types.ResourceEntry {
	if entries == nil {
		return []types.ResourceEntry{}
	}
	set := types.ResourceSet(entries)
	set.Sort()
	return set
}

func sortDiags(pending []pendingDiag) []types.Diagnostic {
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].name < pending[j].name
	})
	diags := make([]types.Diagnostic, len(pending))
	for i, p := range pending {
		diags[i] = p.diag
	}
	return diags
}

// isAncestorOrSelf reports whether dir equals p or contains it.
func isAncestorOrSelf(dir, p string) bool {
	if dir == p {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(p, dir)
}
