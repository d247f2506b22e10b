// Package diag accumulates the warnings and errors raised during a single
// compile. The collector is append-only and never deduplicates.
package diag

import (
	"fmt"

	"github.com/nappgui/nrc/pkg/nrc/types"
)

// Collector gathers diagnostics in two ordered lists.
// It is not safe for concurrent use.
type Collector struct {
	warnings []string
	errors   []string
}

// New creates an empty collector.
func New() *Collector {
	return &Collector{}
}

// Warn records a warning.
func (c *Collector) Warn(format string, args ...interface{}) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// Error records an error.
func (c *Collector) Error(err error) {
	c.errors = append(c.errors, err.Error())
}

// Add records a diagnostic according to its severity.
func (c *Collector) Add(d types.Diagnostic) {
	if d.Severity == types.SeverityError {
		c.errors = append(c.errors, d.Message)
		return
	}
	c.warnings = append(c.warnings, d.Message)
}

// AddAll records every diagnostic in order.
func (c *Collector) AddAll(ds []types.Diagnostic) {
	for _, d := range ds {
		c.Add(d)
	}
}

// Warnings returns a copy of the recorded warnings.
func (c *Collector) Warnings() []string {
	return append([]string(nil), c.warnings...)
}

// Errors returns a copy of the recorded errors.
func (c *Collector) Errors() []string {
	return append([]string(nil), c.errors...)
}

// HasErrors reports whether any error was recorded.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Result builds a CompileResult carrying the collected diagnostics.
func (c *Collector) Result(regenerated bool) types.CompileResult {
	return types.CompileResult{
		Regenerated: regenerated,
		Warnings:    c.Warnings(),
		Errors:      c.Errors(),
	}
}
