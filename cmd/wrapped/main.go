package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wrapped/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
			if hint := errorHint(err); hint != "" {
				fmt.Fprintln(os.Stderr, "hint:", hint)
			}
		}
		os.Exit(1)
	}
}

// errorHint returns a next step for classified pipeline errors only.
func errorHint(err error) string {
	for _, marker := range []error{
		services.ErrEncoderUnavailable,
		services.ErrCaptureTargetMissing,
		services.ErrCaptureBackendError,
		services.ErrDispatchFailed,
		services.ErrConfiguration,
		services.ErrExternalTool,
	} {
		if errors.Is(err, marker) {
			return services.Hint(err)
		}
	}
	return ""
}
