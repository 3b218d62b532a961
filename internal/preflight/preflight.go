package preflight

import (
	"fmt"

	"wrapped/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem and binary checks for the given config.
// Optional binaries that are missing are reported as passed with a note.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	if cfg.Paths.FontsDir != "" {
		results = append(results, CheckDirectoryAccess("Fonts directory", cfg.Paths.FontsDir))
	}

	for _, status := range CheckSystemDeps(cfg) {
		switch {
		case status.Available:
			results = append(results, Result{Name: status.Name, Passed: true, Detail: status.Command})
		case status.Optional:
			results = append(results, Result{Name: status.Name, Passed: true, Detail: fmt.Sprintf("optional: %s", status.Detail)})
		default:
			results = append(results, Result{Name: status.Name, Detail: status.Detail})
		}
	}
	return results
}

// Failed returns the subset of results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
