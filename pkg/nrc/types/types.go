// Package types provides the core data model of the nrc resource compiler:
// scanned resource entries, diagnostics, compile results and process exit
// codes, along with helpers for formatting sizes in summaries.
package types

import (
	"sort"
	"time"

	"github.com/dustin/go-humanize"
)

// Mode selects the artifact produced by a compile.
type Mode int

const (
	// ModeSource generates C source declaring byte arrays and a lookup table.
	ModeSource Mode = iota
	// ModePacked generates a single packed binary container.
	ModePacked
)

// String returns the command line flag spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeSource:
		return "source"
	case ModePacked:
		return "packed"
	default:
		return "unknown"
	}
}

// Flag returns the legacy command line flag selecting the mode.
func (m Mode) Flag() string {
	if m == ModePacked {
		return "-dp"
	}
	return "-dc"
}

// ResourceEntry is a single file found under the resource root.
// Entries are immutable once created by the scanner.
type ResourceEntry struct {
	// Name is the root-relative path using '/' as separator.
	Name string `json:"name"`

	// Data is the raw file content.
	Data []byte `json:"-"`

	// ModTime is the modification time observed during the scan.
	ModTime time.Time `json:"mod_time"`
}

// Size returns the content length in bytes.
func (e ResourceEntry) Size() int64 {
	return int64(len(e.Data))
}

// ResourceSet is an ordered sequence of entries, sorted by Name.
type ResourceSet []ResourceEntry

// Sort orders the set lexicographically by name.
func (s ResourceSet) Sort() {
	sort.Slice(s, func(i, j int) bool {
		return s[i].Name < s[j].Name
	})
}

// IsSorted reports whether the set is in lexicographic name order.
func (s ResourceSet) IsSorted() bool {
	return sort.SliceIsSorted(s, func(i, j int) bool {
		return s[i].Name < s[j].Name
	})
}

// TotalSize returns the sum of all entry sizes.
func (s ResourceSet) TotalSize() int64 {
	var total int64
	for _, e := range s {
		total += e.Size()
	}
	return total
}

// Lookup returns the entry with the given name.
func (s ResourceSet) Lookup(name string) (ResourceEntry, bool) {
	i := sort.Search(len(s), func(i int) bool { return s[i].Name >= name })
	if i < len(s) && s[i].Name == name {
		return s[i], true
	}
	return ResourceEntry{}, false
}

// Names returns the entry names in set order.
func (s ResourceSet) Names() []string {
	names := make([]string, len(s))
	for i, e := range s {
		names[i] = e.Name
	}
	return names
}

// ScanResult contains the outcome of scanning a resource directory.
type ScanResult struct {
	// Root is the resolved absolute path that was scanned.
	Root string

	// Set holds every readable resource, sorted by name.
	Set ResourceSet

	// Diagnostics holds per-entry problems found during the scan, in the
	// order they were recorded.
	Diagnostics []Diagnostic

	// DirsScanned is the number of directories traversed.
	DirsScanned int64

	// FilesScanned is the number of regular files read.
	FilesScanned int64

	// Elapsed is the wall time spent scanning.
	Elapsed time.Duration
}

// CompileResult is the outcome of one compile invocation.
// If Errors is non-empty the artifact must not be treated as complete.
type CompileResult struct {
	Regenerated bool     `json:"regenerated"`
	Warnings    []string `json:"warnings,omitempty"`
	Errors      []string `json:"errors,omitempty"`

	// Entries is the number of resources written to the artifact.
	Entries int `json:"entries"`

	// Bytes is the size of the written artifact.
	Bytes int64 `json:"bytes"`

	// Fingerprint is the hex fingerprint of the scanned inputs.
	Fingerprint string `json:"fingerprint,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}

// ExitCode maps the result onto the process exit code.
// Errors take precedence over warnings.
func (r CompileResult) ExitCode() ExitCode {
	switch {
	case len(r.Errors) > 0:
		return WithErrors
	case len(r.Warnings) > 0:
		return WithWarnings
	case r.Regenerated:
		return Success
	default:
		return SuccessUpToDate
	}
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
