package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrInvalidConfig, "weighting code %q", "xtc")
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("errors.Is(%v, ErrInvalidConfig) = false", err)
	}
	if got, want := err.Error(), `invalid configuration: weighting code "xtc"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"config", New(ErrInvalidConfig, "bad"), ExitConfig},
		{"wrapped config", fmt.Errorf("loading: %w", New(ErrInvalidConfig, "bad")), ExitConfig},
		{"input sentinel", fmt.Errorf("reading: %w", ErrInvalidInput), ExitInput},
		{"empty", New(ErrEmptyInput, "no queries"), ExitEmpty},
		{"degenerate", New(ErrDegenerateRelevance, "query 3"), ExitFailure},
		{"plain", errors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
