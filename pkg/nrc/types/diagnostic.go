package types

import "fmt"

// Severity classifies a diagnostic.
type Severity int

const (
	// SeverityWarning does not invalidate the artifact.
	SeverityWarning Severity = iota
	// SeverityError invalidates the artifact.
	SeverityError
)

// String returns the label used when reporting the diagnostic.
func (s Severity) String() string {
	if s == SeverityError {
		return "ERROR"
	}
	return "WARNING"
}

// Diagnostic is a single warning or error raised during a compile.
type Diagnostic struct {
	Severity Severity
	Message  string
}

// Warningf builds a warning diagnostic.
func Warningf(format string, args ...interface{}) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
}

// ErrorOf builds an error diagnostic from err.
func ErrorOf(err error) Diagnostic {
	return Diagnostic{Severity: SeverityError, Message: err.Error()}
}

// String formats the diagnostic as "[SEVERITY] message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s", d.Severity, d.Message)
}
