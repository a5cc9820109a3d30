package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"dmhmr/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrValidation, "submit", "post", "dmh rejected record", base)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestSubmissionCause(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"timeout sentinel", fmt.Errorf("wrapped: %w", services.ErrTimeout), "timeout"},
		{"context deadline", context.DeadlineExceeded, "timeout"},
		{"rejection", services.Wrap(services.ErrValidation, "submit", "post", "bad record", nil), "rejected"},
		{"configuration", services.ErrConfiguration, "configuration"},
		{"other", errors.New("connection reset"), "error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.SubmissionCause(tc.err); got != tc.want {
				t.Fatalf("SubmissionCause(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}
