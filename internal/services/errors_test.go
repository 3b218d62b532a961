package services_test

import (
	"errors"
	"strings"
	"testing"

	"wrapped/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrCaptureBackendError, "capture", "paint", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrCaptureBackendError) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"capture", "paint", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"missing target", services.Wrap(services.ErrCaptureTargetMissing, "capture", "", "panel gone", nil), false},
		{"backend", services.Wrap(services.ErrCaptureBackendError, "capture", "", "", errors.New("x")), true},
		{"encoder", services.Wrap(services.ErrEncoderUnavailable, "encode", "", "loading", nil), true},
		{"config", services.Wrap(services.ErrConfiguration, "", "", "bad", nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.Retryable(tt.err); got != tt.want {
				t.Fatalf("Retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHintMentionsLoadingForEncoder(t *testing.T) {
	err := services.Wrap(services.ErrEncoderUnavailable, "encode", "init", "", nil)
	if hint := services.Hint(err); !strings.Contains(hint, "still loading") {
		t.Fatalf("unexpected hint %q", hint)
	}
	if hint := services.Hint(nil); hint != "" {
		t.Fatalf("expected empty hint for nil, got %q", hint)
	}
}
