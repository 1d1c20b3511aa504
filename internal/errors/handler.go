package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider supplies terminal color codes without importing the cli
// package (which would create an import cycle).
type ColorProvider interface {
	Yellow() string
	Reset() string
}

// DefaultColorProvider emits no color codes.
type DefaultColorProvider struct{}

func (d DefaultColorProvider) Yellow() string { return "" }
func (d DefaultColorProvider) Reset() string  { return "" }

// ExitCodeFor maps an error to the process exit code without printing
// anything.
func ExitCodeFor(err error) int {
	var (
		resErr ResourceError
		valErr ValidationError
		cfgErr ConfigError
	)
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrMismatch):
		return ExitErrorMismatch
	case errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case errors.As(err, &resErr):
		return ExitErrorResource
	case errors.As(err, &valErr), errors.As(err, &cfgErr):
		return ExitErrorConfig
	default:
		return ExitErrorGeneric
	}
}

// HandleCalculationError prints a status line describing a failed evaluation
// and returns the matching exit code.
//
// Parameters:
//   - err: The error that occurred.
//   - duration: Time spent before the failure (0 to omit).
//   - out: Destination of the status line.
//   - colors: Color provider (nil for none).
//
// Returns:
//   - int: The exit code for err.
func HandleCalculationError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	if colors == nil {
		colors = DefaultColorProvider{}
	}

	msgSuffix := ""
	if duration > 0 {
		msgSuffix = fmt.Sprintf(" after %s%s%s", colors.Yellow(), duration, colors.Reset())
	}

	code := ExitCodeFor(err)
	switch code {
	case ExitErrorTimeout:
		fmt.Fprintf(out, "Status: Failure (Timeout). The execution limit was reached%s.\n", msgSuffix)
	case ExitErrorCanceled:
		fmt.Fprintf(out, "%sStatus: Canceled%s.%s\n", colors.Yellow(), msgSuffix, colors.Reset())
	case ExitErrorMismatch:
		fmt.Fprintf(out, "Status: CRITICAL ERROR. %v.\n", err)
	case ExitErrorResource:
		fmt.Fprintf(out, "Status: Failure (Resource limit). %v\n", err)
	case ExitErrorConfig:
		fmt.Fprintf(out, "Status: Failure (Invalid input). %v\n", err)
	default:
		fmt.Fprintf(out, "Status: Failure. An unexpected error occurred: %v\n", err)
	}
	return code
}
