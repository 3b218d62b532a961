package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"wrapped/internal/logging"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

type exitCoder interface {
	ExitCode() int
}

// CommandSharer shares through user-configured commands. Arguments may use
// the placeholders {file}, {url}, {title} and {text}. An exit code listed in
// cancelCodes means the user dismissed the share prompt.
type CommandSharer struct {
	fileCommand string
	linkCommand string
	cancelCodes []int
	scratchDir  string
	run         commandRunner
	logger      *slog.Logger
}

// NewCommandSharer constructs a sharer. Either command may be empty.
func NewCommandSharer(fileCommand, linkCommand string, cancelCodes []int, scratchDir string, logger *slog.Logger) *CommandSharer {
	return &CommandSharer{
		fileCommand: strings.TrimSpace(fileCommand),
		linkCommand: strings.TrimSpace(linkCommand),
		cancelCodes: append([]int(nil), cancelCodes...),
		scratchDir:  scratchDir,
		run:         defaultCommandRunner,
		logger:      logging.NewComponentLogger(logger, "share"),
	}
}

// WithCommandRunner injects a custom command runner (primarily for tests).
func (s *CommandSharer) WithCommandRunner(r commandRunner) {
	if s != nil && r != nil {
		s.run = r
	}
}

// ShareFile writes the payload to a scratch file and runs the share command.
func (s *CommandSharer) ShareFile(ctx context.Context, p Payload) error {
	if s.fileCommand == "" {
		return errors.New("share.share_command is not configured")
	}
	dir, err := os.MkdirTemp(s.scratchDir, "share-*")
	if err != nil {
		return fmt.Errorf("create share dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, p.Filename)
	if err := os.WriteFile(path, p.Data, 0o644); err != nil {
		return fmt.Errorf("write share file: %w", err)
	}
	return s.exec(ctx, s.fileCommand, map[string]string{
		"{file}":  path,
		"{url}":   "",
		"{title}": p.Title,
		"{text}":  p.Text,
	})
}

// ShareLink runs the link share command.
func (s *CommandSharer) ShareLink(ctx context.Context, title, text, link string) error {
	if s.linkCommand == "" {
		return errors.New("share.link_share_command is not configured")
	}
	return s.exec(ctx, s.linkCommand, map[string]string{
		"{file}":  "",
		"{url}":   link,
		"{title}": title,
		"{text}":  text,
	})
}

func (s *CommandSharer) exec(ctx context.Context, template string, values map[string]string) error {
	name, args := expand(template, values)
	if name == "" {
		return errors.New("empty share command")
	}
	s.logger.Debug("running share command", logging.String("command", name), logging.Int("args", len(args)))
	err := s.run(ctx, name, args...)
	if err == nil {
		return nil
	}
	var coder exitCoder
	if errors.As(err, &coder) && slices.Contains(s.cancelCodes, coder.ExitCode()) {
		return ErrShareCancelled
	}
	return err
}

// expand splits template on whitespace and substitutes placeholders inside
// each field, so a value containing spaces stays a single argument.
func expand(template string, values map[string]string) (string, []string) {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return "", nil
	}
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		for key, value := range values {
			field = strings.ReplaceAll(field, key, value)
		}
		out = append(out, field)
	}
	return out[0], out[1:]
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &commandError{name: name, stderr: strings.TrimSpace(stderr.String()), exit: exitErr}
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

type commandError struct {
	name   string
	stderr string
	exit   *exec.ExitError
}

func (e *commandError) Error() string {
	if e.stderr == "" {
		return fmt.Sprintf("%s: %v", e.name, e.exit)
	}
	return fmt.Sprintf("%s: %v: %s", e.name, e.exit, e.stderr)
}

func (e *commandError) Unwrap() error { return e.exit }

func (e *commandError) ExitCode() int { return e.exit.ExitCode() }
