package capability_test

import (
	"errors"
	"strings"
	"testing"

	"wrapped/internal/capability"
	"wrapped/internal/config"
	"wrapped/internal/dispatch"
)

func lookPathOnly(names ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, n := range names {
			if n == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func allowAccess(string, uint32) error { return nil }

func denyAccess(string, uint32) error { return errors.New("permission denied") }

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	return &cfg
}

func TestProbeModes(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Config)
		lookPath func(string) (string, error)
		want     dispatch.Capabilities
	}{
		{
			name:     "auto without commands",
			mutate:   func(*config.Config) {},
			lookPath: lookPathOnly(),
			want:     dispatch.Capabilities{},
		},
		{
			name: "auto with resolvable share command",
			mutate: func(c *config.Config) {
				c.Share.ShareCommand = "share-tool --title {title} {file}"
			},
			lookPath: lookPathOnly("share-tool"),
			want:     dispatch.Capabilities{CanShareFiles: true},
		},
		{
			name: "auto with missing share command",
			mutate: func(c *config.Config) {
				c.Share.ShareCommand = "share-tool {file}"
			},
			lookPath: lookPathOnly(),
			want:     dispatch.Capabilities{},
		},
		{
			name: "declared on and off",
			mutate: func(c *config.Config) {
				c.Share.FileShare = config.CapabilityOff
				c.Share.ShareCommand = "share-tool {file}"
				c.Share.LinkShare = config.CapabilityOn
				c.Share.LinkShareCommand = "link-tool {url}"
			},
			lookPath: lookPathOnly("share-tool"),
			want:     dispatch.Capabilities{CanShareLinks: true},
		},
		{
			name: "touch only declared",
			mutate: func(c *config.Config) {
				c.Share.TouchOnlySave = true
			},
			lookPath: lookPathOnly(),
			want:     dispatch.Capabilities{TouchOnlySave: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig(t)
			tt.mutate(cfg)
			prober := capability.NewProber(capability.WithLookPath(tt.lookPath), capability.WithAccess(allowAccess))
			report := prober.Probe(cfg)
			if report.Capabilities != tt.want {
				t.Fatalf("capabilities = %+v, want %+v", report.Capabilities, tt.want)
			}
			if len(report.Reasons) != 3 {
				t.Fatalf("expected one reason per flag, got %v", report.Reasons)
			}
		})
	}
}

func TestProbeInfersTouchOnlyFromUnwritableOutput(t *testing.T) {
	cfg := baseConfig(t)
	prober := capability.NewProber(capability.WithLookPath(lookPathOnly()), capability.WithAccess(denyAccess))
	report := prober.Probe(cfg)
	if !report.Capabilities.TouchOnlySave {
		t.Fatal("expected touch-only save when output dir is not writable")
	}
	if !strings.Contains(report.Reasons[2], "not writable") {
		t.Fatalf("unexpected reason: %q", report.Reasons[2])
	}
}

func TestProbeRealDirectoryIsWritable(t *testing.T) {
	cfg := baseConfig(t)
	report := capability.NewProber(capability.WithLookPath(lookPathOnly())).Probe(cfg)
	if report.Capabilities.TouchOnlySave {
		t.Fatalf("temp dir should be writable: %v", report.Reasons)
	}
}

func TestProbeNilConfig(t *testing.T) {
	report := capability.Probe(nil)
	if report.Capabilities != (dispatch.Capabilities{}) {
		t.Fatalf("expected zero capabilities, got %+v", report.Capabilities)
	}
}
