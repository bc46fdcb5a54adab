// Package sandbox runs programs on an external code-execution service.
package sandbox

import (
	"context"

	"deadlock/service/language"

	"github.com/pkg/errors"
)

var (
	// ErrUnavailable is returned when the service can not be reached or keeps failing.
	ErrUnavailable = errors.New("sandbox unavailable")
	// ErrRejected is returned when the service refuses a request.
	ErrRejected = errors.New("sandbox rejected the request")
	// ErrBadResponse is returned when the service answers with something unreadable.
	ErrBadResponse = errors.New("malformed sandbox response")
)

// Request is one program execution.
type Request struct {
	Language language.Language
	Source   string
	Stdin    string
	Args     []string
}

// Result is what the program left behind.
//
// A program that failed to compile reports the compiler's exit code and stderr.
type Result struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`

	// Signal is set when the program was killed instead of exiting, such as by a time
	// limit. Such runs may depend on the load of the service.
	Signal string `json:"signal,omitempty"`
}

// Executor runs a program with its stdin and captures both output streams.
//
// Calls are independent of each other. Failures of the service itself are returned as
// errors and never folded into a Result.
type Executor interface {
	Execute(ctx context.Context, req *Request) (*Result, error)
}

// IsInfrastructure reports whether err comes from the execution service rather than
// from the request.
func IsInfrastructure(err error) bool {
	switch errors.Cause(err) {
	case ErrUnavailable, ErrRejected, ErrBadResponse, context.DeadlineExceeded, ErrJudgeNotFound:
		return true
	}
	return false
}
