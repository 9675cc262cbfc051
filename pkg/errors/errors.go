// Package errors defines the sentinel errors shared by the evaluation
// pipeline and the AppError wrapper that carries a process exit code.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrDegenerateRelevance = errors.New("degenerate relevance set")
	ErrEmptyInput          = errors.New("empty input")
	ErrUnknownQuery        = errors.New("unknown query")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInternal            = errors.New("internal error")
)

// Exit codes returned by the CLI.
const (
	ExitFailure = 1
	ExitConfig  = 2
	ExitInput   = 3
	ExitEmpty   = 4
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCodeFor(sentinel),
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCodeFor(sentinel),
	}
}

// ExitCode maps err to the process exit code the CLI should use.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.ExitCode != 0 {
		return appErr.ExitCode
	}
	return exitCodeFor(err)
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfig
	case errors.Is(err, ErrInvalidInput):
		return ExitInput
	case errors.Is(err, ErrEmptyInput):
		return ExitEmpty
	default:
		return ExitFailure
	}
}
