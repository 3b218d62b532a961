package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"wrapped/internal/config"
	"wrapped/internal/dispatch"
	"wrapped/internal/export"
	"wrapped/internal/logging"
	"wrapped/internal/services"
	"wrapped/internal/session"
	"wrapped/internal/stats"
)

type globalFlags struct {
	config   string
	input    string
	user     string
	logLevel string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "load config", "", err)
			return
		}
		if level := strings.TrimSpace(c.flags.logLevel); level != "" {
			cfg.Logging.Level = strings.ToLower(level)
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

func (c *commandContext) subject() string {
	return strings.TrimSpace(c.flags.user)
}

// loadStatistics reads --input when given, otherwise fetches --user from the
// analytics backend.
func (c *commandContext) loadStatistics(ctx context.Context, logger *slog.Logger) (*stats.Statistics, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if input := strings.TrimSpace(c.flags.input); input != "" {
		path, err := config.ExpandPath(input)
		if err != nil {
			return nil, err
		}
		return stats.LoadFile(path)
	}
	user := c.subject()
	if user == "" {
		return nil, errors.New("statistics source required: pass --input FILE or --user NAME")
	}
	client := stats.NewClient(cfg.Source.BaseURL, time.Duration(cfg.Source.RequestTimeout)*time.Second, logger)
	return client.Fetch(ctx, user, cfg.Source.ExcludeBGA)
}

type sessionOptions struct {
	logger    *slog.Logger
	out       io.Writer
	alerter   dispatch.Alerter
	observers []func(export.Job)
}

// withSession loads statistics, opens a session and runs fn against it.
func (c *commandContext) withSession(cmd *cobra.Command, opts sessionOptions, fn func(*session.Session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger := opts.logger
	if logger == nil {
		if logger, err = c.logger(); err != nil {
			return err
		}
	}
	ctx := cmd.Context()
	st, err := c.loadStatistics(ctx, logger)
	if err != nil {
		return err
	}
	out := opts.out
	if out == nil {
		out = cmd.ErrOrStderr()
	}
	sess, err := session.Open(ctx, cfg, st, session.Options{
		Subject:   c.subject(),
		Out:       out,
		Alerter:   opts.alerter,
		Observers: opts.observers,
	}, logger)
	if err != nil {
		return err
	}
	runErr := fn(sess)
	if closeErr := sess.Close(); closeErr != nil && runErr == nil {
		return fmt.Errorf("close session: %w", closeErr)
	}
	return runErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
