package types

// ExitCode is the process exit status of the nrc command.
type ExitCode int

// Exit codes, stable across releases since build scripts test them.
const (
	Success          ExitCode = 0
	SuccessUpToDate  ExitCode = 1
	WithWarnings     ExitCode = 2
	WithErrors       ExitCode = 3
	ErrorCommandLine ExitCode = 4
	WithAsserts      ExitCode = 5
)

// String returns the symbolic name of the exit code.
func (c ExitCode) String() string {
	switch c {
	case Success:
		return "SUCCESS"
	case SuccessUpToDate:
		return "SUCCESS_UPTODATE"
	case WithWarnings:
		return "WITH_WARNINGS"
	case WithErrors:
		return "WITH_ERRORS"
	case ErrorCommandLine:
		return "ERROR_COMMAND_LINE"
	case WithAsserts:
		return "WITH_ASSERTS"
	default:
		return "UNKNOWN"
	}
}
