package ytdlp

import "errors"

// Code is a stable machine-readable classification of a runner failure.
// HTTP handlers and the validation service branch on these instead of
// matching message substrings.
type Code string

const (
	// CodeCookiesRequired: the service refused the request with a bot
	// detection challenge; recoverable by supplying cookies.
	CodeCookiesRequired Code = "COOKIES_REQUIRED"
	// CodeTimeout: the process exceeded its deadline and was killed.
	CodeTimeout Code = "TIMEOUT"
	// CodeNotFound: the binary is not installed or not on PATH.
	CodeNotFound Code = "BINARY_NOT_FOUND"
	// CodeExit: the process exited non-zero for any other reason.
	CodeExit Code = "EXIT_FAILURE"
	// CodeInvalidArgs: the caller passed no argument list.
	CodeInvalidArgs Code = "INVALID_ARGS"
	// CodeOutputFile: the stdout capture file could not be created.
	CodeOutputFile Code = "OUTPUT_FILE"
)

// RunError is a classified failure from running the external binary.
// Message is user-displayable.
type RunError struct {
	Code    Code
	Message string
	Err     error
}

func (e *RunError) Error() string { return e.Message }

func (e *RunError) Unwrap() error { return e.Err }

// ErrCode extracts the runner code from an error chain, or "" when the error
// did not come from the runner.
func ErrCode(err error) Code {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
