package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: "ok"},
		{name: "validation", err: fmt.Errorf("bad url: %w", ErrValidation), want: "validation"},
		{name: "not found", err: fmt.Errorf("kid %w", ErrNotFound), want: "not_found"},
		{name: "conflict", err: fmt.Errorf("duplicate video: %w", ErrConflict), want: "conflict"},
		{name: "dependency", err: fmt.Errorf("resolver: %w", ErrDependency), want: "dependency"},
		{name: "internal", err: errors.New("disk on fire"), want: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.want {
				t.Errorf("Kind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDomain(t *testing.T) {
	if IsDomain(errors.New("boom")) {
		t.Error("plain error should not be a domain error")
	}
	if !IsDomain(fmt.Errorf("wrapped: %w", ErrConflict)) {
		t.Error("conflict should be a domain error")
	}
}

func TestNew(t *testing.T) {
	errDup := New(ErrConflict, "video already exists")
	wrapped := fmt.Errorf("create: %w", errDup)

	if errDup.Error() != "video already exists" {
		t.Errorf("Error() = %q", errDup.Error())
	}
	if !errors.Is(wrapped, errDup) || !errors.Is(wrapped, ErrConflict) {
		t.Error("wrapped error should match both the sentinel and its kind")
	}
	if errors.Is(wrapped, ErrNotFound) {
		t.Error("error should not match another kind")
	}
}
