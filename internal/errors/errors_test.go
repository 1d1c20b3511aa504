package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error returns message", ConfigError{Message: "invalid flag value"}, "invalid flag value"},
		{"NewConfigError formats", NewConfigError("invalid value %d for flag %s", 42, "-digits"), "invalid value 42 for flag -digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
			var configErr ConfigError
			if !errors.As(tt.err, &configErr) {
				t.Error("expected error to be ConfigError type")
			}
		})
	}
}

func TestCalculationError(t *testing.T) {
	t.Parallel()

	t.Run("Message includes algorithm", func(t *testing.T) {
		t.Parallel()
		err := NewCalculationError("binet", errors.New("boom"))
		if err.Error() != "binet: boom" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("Message without algorithm", func(t *testing.T) {
		t.Parallel()
		err := CalculationError{Cause: errors.New("original error")}
		if err.Error() != "original error" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("Nil cause yields nil", func(t *testing.T) {
		t.Parallel()
		if NewCalculationError("matrix", nil) != nil {
			t.Error("expected nil error for nil cause")
		}
	})

	t.Run("errors.Is sees through", func(t *testing.T) {
		t.Parallel()
		err := NewCalculationError("memo", context.Canceled)
		if !errors.Is(err, context.Canceled) {
			t.Error("errors.Is should find context.Canceled in the chain")
		}
	})
}

func TestResourceError(t *testing.T) {
	t.Parallel()
	err := NewResourceError("memo table", 100, 250)
	want := "resource exhausted: memo table limit is 100, requested 250"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	wrapped := fmt.Errorf("evaluating: %w", err)
	if !IsResourceError(wrapped) {
		t.Error("IsResourceError should see through wrapping")
	}
	var re ResourceError
	if !errors.As(wrapped, &re) || re.Limit != 100 || re.Requested != 250 {
		t.Errorf("errors.As returned %+v", re)
	}
	if IsResourceError(errors.New("other")) {
		t.Error("plain error is not a resource error")
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"With field", NewValidationError("digits", "must be positive", -3), "validation error for 'digits': must be positive"},
		{"Without field", NewValidationError("", "bad input", nil), "validation error: bad input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	t.Parallel()
	if WrapError(nil, "context") != nil {
		t.Error("WrapError(nil) should be nil")
	}
	base := errors.New("base")
	err := WrapError(base, "step %d", 3)
	if err.Error() != "step 3: base" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should match base")
	}
}

func TestIsContextError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want bool
	}{
		{context.Canceled, true},
		{context.DeadlineExceeded, true},
		{fmt.Errorf("wrapped: %w", context.Canceled), true},
		{errors.New("other"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsContextError(tt.err); got != tt.want {
			t.Errorf("IsContextError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"timeout", fmt.Errorf("x: %w", context.DeadlineExceeded), ExitErrorTimeout},
		{"canceled", context.Canceled, ExitErrorCanceled},
		{"resource", NewCalculationError("memo", NewResourceError("memo table", 1, 2)), ExitErrorResource},
		{"validation", NewValidationError("digits", "bad", 0), ExitErrorConfig},
		{"config", NewConfigError("bad"), ExitErrorConfig},
		{"mismatch", fmt.Errorf("F(10): %w", ErrMismatch), ExitErrorMismatch},
		{"generic", errors.New("boom"), ExitErrorGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExitCodeFor(tt.err); got != tt.want {
				t.Errorf("ExitCodeFor() = %d, want %d", got, tt.want)
			}
		})
	}
}
