package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Export pipeline markers.
var (
	ErrCaptureTargetMissing = errors.New("capture target missing")
	ErrCaptureBackendError  = errors.New("capture backend error")
	ErrEncoderUnavailable   = errors.New("encoder unavailable")
	ErrDispatchCancelled    = errors.New("dispatch cancelled")
	ErrDispatchFailed       = errors.New("dispatch failed")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether re-invoking the failed export can succeed without
// user intervention.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrCaptureTargetMissing), errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return false
	default:
		return true
	}
}

// Hint returns a short user-facing next step for a pipeline failure.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEncoderUnavailable):
		return "video encoder is still loading or missing; try again shortly or run 'wrapped check'"
	case errors.Is(err, ErrCaptureTargetMissing):
		return "the panel is not mounted; select a panel and retry"
	case errors.Is(err, ErrCaptureBackendError):
		return "rendering failed; retry the export or switch export.backend"
	case errors.Is(err, ErrDispatchFailed):
		return "could not save the output; check paths.output_dir permissions"
	case errors.Is(err, ErrConfiguration):
		return "fix the configuration file (see 'wrapped config show')"
	case errors.Is(err, ErrExternalTool):
		return "check that required tools are installed (run 'wrapped check')"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
