package main

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gogpu/gg"
	"github.com/spf13/cobra"

	"wrapped/internal/config"
	"wrapped/internal/export"
	"wrapped/internal/logging"
	"wrapped/internal/logs"
	"wrapped/internal/session"
	"wrapped/internal/tui"
)

func newViewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Browse the cards interactively and export from the viewer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			feed := tui.NewFeed()
			logger, err := viewerLogger(cfg, feed)
			if err != nil {
				return err
			}
			opts := sessionOptions{
				logger:    logger,
				out:       feed,
				alerter:   feed,
				observers: []func(export.Job){feed.Job},
			}
			return ctx.withSession(cmd, opts, func(sess *session.Session) error {
				model := tui.New(cmd.Context(), sess.Carousel, sess.Surface, sess.Exports, feed, tui.Options{
					Subject: sess.Subject,
					Period:  cfg.Export.PeriodLabel,
				})
				program := tea.NewProgram(model,
					tea.WithAltScreen(),
					tea.WithContext(cmd.Context()),
					tea.WithInput(cmd.InOrStdin()),
					tea.WithOutput(cmd.OutOrStdout()),
				)
				if _, err := program.Run(); err != nil {
					return fmt.Errorf("run viewer: %w", err)
				}
				return nil
			})
		},
	}
}

// viewerLogger keeps log records off the terminal while the viewer owns it.
// Records go to the log file when one is configured; warnings also reach the
// viewer's status line.
func viewerLogger(cfg *config.Config, feed *tui.Feed) (*slog.Logger, error) {
	var base *slog.Logger
	if logPath := logs.Path(cfg); logPath != "" {
		logger, err := logging.New(logging.Options{
			Level:            cfg.Logging.Level,
			Format:           cfg.Logging.Format,
			OutputPaths:      []string{logPath},
			ErrorOutputPaths: []string{logPath},
		})
		if err != nil {
			return nil, err
		}
		base = logger
	}
	logger := logging.TeeLogger(base, logging.NewStatusHandler(slog.LevelWarn, feed.Status))
	gg.SetLogger(logging.NewComponentLogger(logger, "canvas"))
	return logger, nil
}
