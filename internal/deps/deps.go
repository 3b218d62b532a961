package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
)

// Requirement defines an external binary wrapped shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// LookPathFunc resolves a command name to an executable path.
type LookPathFunc func(string) (string, error)

// CheckBinaries evaluates the provided requirements against PATH.
func CheckBinaries(requirements []Requirement) []Status {
	return CheckBinariesWith(exec.LookPath, requirements)
}

// CheckBinariesWith evaluates requirements using the supplied resolver.
func CheckBinariesWith(lookPath LookPathFunc, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := lookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CommandName returns the executable portion of a command template such as
// "share-tool --title {title} {file}".
func CommandName(template string) string {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// browserLookup is swapped in tests.
var browserLookup = launcher.LookPath

// CheckBrowser reports the Chromium binary the browser backend will drive.
// An explicit bin wins; otherwise the rod launcher's well-known install
// locations are searched.
func CheckBrowser(bin string) Status {
	result := Status{
		Name:        "Chromium",
		Description: "Required by the browser raster backend",
		Optional:    true,
	}
	if bin = strings.TrimSpace(bin); bin != "" {
		statuses := CheckBinaries([]Requirement{{Name: result.Name, Command: bin}})
		result.Command = statuses[0].Command
		result.Available = statuses[0].Available
		result.Detail = statuses[0].Detail
		return result
	}
	if path, ok := browserLookup(); ok {
		result.Command = path
		result.Available = true
		return result
	}
	result.Detail = "no chromium install found (rod will download one on first use)"
	return result
}
