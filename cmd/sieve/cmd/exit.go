package cmd

import "fmt"

// scanExit is returned by scan/check/redact to signal a specific exit code.
// grep convention: 0=found, 1=not found, 2=error.
type scanExit struct{ code int }

func (e scanExit) Error() string {
	switch e.code {
	case 0:
		return ""
	case 1:
		return "no match"
	default:
		return fmt.Sprintf("scan error (exit %d)", e.code)
	}
}

// ScanExitCode extracts the exit code from a scanExit error.
// Returns -1 if the error is not a scanExit.
func ScanExitCode(err error) int {
	if se, ok := err.(scanExit); ok {
		return se.code
	}
	return -1
}
