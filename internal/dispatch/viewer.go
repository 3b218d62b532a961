package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"wrapped/internal/logging"
)

// ManualSaveInstructions is shown when a payload is opened for manual save.
const ManualSaveInstructions = "Your %s is open in the viewer. Press and hold (or right-click) the image and choose Save to keep it."

// ViewerOpener writes the payload to a viewing directory, opens it with the
// configured command and prints manual save instructions.
type ViewerOpener struct {
	command string
	dir     string
	out     io.Writer
	run     commandRunner
	logger  *slog.Logger
}

// NewViewerOpener constructs an opener. out receives the instructions.
func NewViewerOpener(command, dir string, out io.Writer, logger *slog.Logger) *ViewerOpener {
	if out == nil {
		out = os.Stderr
	}
	return &ViewerOpener{
		command: strings.TrimSpace(command),
		dir:     dir,
		out:     out,
		run:     defaultCommandRunner,
		logger:  logging.NewComponentLogger(logger, "viewer"),
	}
}

// WithCommandRunner injects a custom command runner (primarily for tests).
func (v *ViewerOpener) WithCommandRunner(r commandRunner) {
	if v != nil && r != nil {
		v.run = r
	}
}

// Open implements Opener.
func (v *ViewerOpener) Open(ctx context.Context, p Payload) (string, error) {
	if v.command == "" {
		return "", fmt.Errorf("share.open_command is not configured")
	}
	if err := os.MkdirAll(v.dir, 0o755); err != nil {
		return "", fmt.Errorf("create viewer dir: %w", err)
	}
	path := filepath.Join(v.dir, p.Filename)
	if err := os.WriteFile(path, p.Data, 0o644); err != nil {
		return "", fmt.Errorf("write viewer file: %w", err)
	}
	name, args := expand(v.command, map[string]string{"{file}": path, "{url}": path})
	if !strings.Contains(v.command, "{file}") && !strings.Contains(v.command, "{url}") {
		args = append(args, path)
	}
	if err := v.run(ctx, name, args...); err != nil {
		return "", err
	}
	kind := "image"
	if strings.HasPrefix(p.ContentType, "video/") {
		kind = "video"
	}
	fmt.Fprintf(v.out, ManualSaveInstructions+"\n", kind)
	v.logger.Debug("opened payload in viewer", logging.String("path", path))
	return path, nil
}
