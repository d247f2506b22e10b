// Package scanner enumerates the resource files below a root directory and
// produces a deterministic, name-sorted ResourceSet. Traversal runs on
// fastwalk; results are sorted afterwards so the output never depends on
// filesystem enumeration order.
package scanner

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/nappgui/nrc/pkg/nrc/config"
)

// Options configures the scanner behavior.
type Options struct {
	// Root is the resource directory to scan.
	Root string

	// Exclude contains glob patterns for entries to skip. Patterns are
	// matched against the '/'-separated relative name and the base name.
	Exclude []string

	// SkipHidden skips files and directories whose name starts with a dot.
	SkipHidden bool

	// FollowSymlinks descends into symbolic links. Links that would loop
	// make the scan fail with types.ErrCycle.
	FollowSymlinks bool

	// Workers is the number of fastwalk workers. Zero uses the fastwalk default.
	Workers int
}

// DefaultOptions returns options matching the configuration defaults.
func DefaultOptions() Options {
	return Options{
		Root:           ".",
		Exclude:        config.DefaultExclusions,
		SkipHidden:     config.DefaultSkipHidden,
		FollowSymlinks: config.DefaultFollowSymlinks,
	}
}

// Validate fills defaults and compiles the exclusion patterns.
func (o *Options) Validate() ([]glob.Glob, error) {
	if o.Root == "" {
		o.Root = "."
	}
	if o.Workers < 0 {
		o.Workers = 0
	}

	globs := make([]glob.Glob, 0, len(o.Exclude))
	for _, pattern := range o.Exclude {
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}
