// Package capability derives the platform fact sheet the dispatcher reads:
// whether files or links can be handed to a share facility, and whether the
// environment only allows manual saving.
package capability

import (
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"wrapped/internal/config"
	"wrapped/internal/deps"
	"wrapped/internal/dispatch"
)

// Report pairs the capability flags with the reasoning behind each one.
type Report struct {
	Capabilities dispatch.Capabilities
	Reasons      []string
}

// Prober resolves capabilities from configuration and the local environment.
type Prober struct {
	lookPath deps.LookPathFunc
	access   func(path string, mode uint32) error
}

// Option customizes a Prober.
type Option func(*Prober)

// WithLookPath overrides command resolution.
func WithLookPath(fn deps.LookPathFunc) Option {
	return func(p *Prober) {
		if fn != nil {
			p.lookPath = fn
		}
	}
}

// WithAccess overrides the directory permission check.
func WithAccess(fn func(path string, mode uint32) error) Option {
	return func(p *Prober) {
		if fn != nil {
			p.access = fn
		}
	}
}

// NewProber constructs a prober backed by PATH and access(2).
func NewProber(opts ...Option) *Prober {
	p := &Prober{lookPath: exec.LookPath, access: unix.Access}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe evaluates cfg using the default prober.
func Probe(cfg *config.Config) Report {
	return NewProber().Probe(cfg)
}

// Probe evaluates the share section of cfg.
//
// For file and link sharing, "on" and "off" are taken as declared and "auto"
// requires the matching command to resolve. Touch-only saving is declared
// explicitly or inferred when the output directory cannot be written.
func (p *Prober) Probe(cfg *config.Config) Report {
	var report Report
	if cfg == nil {
		report.Reasons = append(report.Reasons, "no configuration; downloads only")
		return report
	}

	var reason string
	report.Capabilities.CanShareFiles, reason = p.resolve("file share", cfg.Share.FileShare, cfg.Share.ShareCommand)
	report.Reasons = append(report.Reasons, reason)
	report.Capabilities.CanShareLinks, reason = p.resolve("link share", cfg.Share.LinkShare, cfg.Share.LinkShareCommand)
	report.Reasons = append(report.Reasons, reason)

	switch {
	case cfg.Share.TouchOnlySave:
		report.Capabilities.TouchOnlySave = true
		report.Reasons = append(report.Reasons, "touch-only save: declared in config")
	case !p.writable(cfg.Paths.OutputDir):
		report.Capabilities.TouchOnlySave = true
		report.Reasons = append(report.Reasons, fmt.Sprintf("touch-only save: output dir %s is not writable", cfg.Paths.OutputDir))
	default:
		report.Reasons = append(report.Reasons, "touch-only save: off")
	}
	return report
}

func (p *Prober) resolve(label, mode, command string) (bool, string) {
	switch mode {
	case config.CapabilityOn:
		return true, label + ": on (declared)"
	case config.CapabilityOff:
		return false, label + ": off (declared)"
	}
	name := deps.CommandName(command)
	if name == "" {
		return false, label + ": off (no command configured)"
	}
	if _, err := p.lookPath(name); err != nil {
		return false, fmt.Sprintf("%s: off (%s not found)", label, name)
	}
	return true, fmt.Sprintf("%s: on (%s)", label, name)
}

func (p *Prober) writable(dir string) bool {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return false
	}
	return p.access(dir, unix.W_OK|unix.X_OK) == nil
}
