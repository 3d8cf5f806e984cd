package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("nope"), want: false},
		{name: "wrapped transient", err: Transient(errors.New("dial tcp")), want: true},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: true},
		{name: "maybe submitted", err: Transient(ErrMaybeSubmitted), want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Fatalf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestTransient_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Transient(cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped error to keep its cause")
	}
	if Transient(err) != err {
		t.Fatalf("expected double wrapping to be a no-op")
	}
}
