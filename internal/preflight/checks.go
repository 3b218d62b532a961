package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"wrapped/internal/config"
	"wrapped/internal/deps"
)

// CheckSource verifies that the statistics backend answers HTTP requests.
// Any response below 500 counts as reachable; the backend has no health route.
func CheckSource(ctx context.Context, baseURL string) Result {
	const name = "Statistics backend"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("request failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeHTTPError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{Name: name, Detail: fmt.Sprintf("server error (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries the export pipeline uses.
// The CLI check command and the export session share this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Encoder.FFmpegBinary,
			Description: "Required for slideshow video export",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Encoder.FFprobeBinary,
			Description: "Required to verify encoded slideshows",
		},
	}
	if cmd := deps.CommandName(cfg.Share.OpenCommand); cmd != "" {
		requirements = append(requirements, deps.Requirement{
			Name:        "Viewer",
			Command:     cmd,
			Description: "Opens exports for manual saving on touch-only setups",
			Optional:    true,
		})
	}
	if cmd := deps.CommandName(cfg.Share.ShareCommand); cmd != "" {
		requirements = append(requirements, deps.Requirement{
			Name:        "Share command",
			Command:     cmd,
			Description: "Hands exported files to the share facility",
			Optional:    cfg.Share.FileShare != config.CapabilityOn,
		})
	}
	statuses := deps.CheckBinaries(requirements)
	if cfg.Export.Backend == config.BackendBrowser {
		browser := deps.CheckBrowser(cfg.Browser.Bin)
		browser.Optional = false
		statuses = append(statuses, browser)
	}
	return statuses
}

func summarizeHTTPError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out (backend unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out (backend unreachable)"
	}
	return err.Error()
}
