package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"wrapped/internal/dispatch"
	"wrapped/internal/export"
	"wrapped/internal/session"
)

func newImageCommand(ctx *commandContext) *cobra.Command {
	var panel int
	var panelID string

	cmd := &cobra.Command{
		Use:   "image",
		Short: "Export one card as a PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, sessionOptions{}, func(sess *session.Session) error {
				index := panel - 1
				if id := strings.TrimSpace(panelID); id != "" {
					_, found, ok := sess.Registry.Lookup(id)
					if !ok {
						return fmt.Errorf("unknown panel %q (available: %s)", id, strings.Join(sess.Registry.IDs(), ", "))
					}
					index = found
				}
				job, err := sess.Exports.ExportImage(cmd.Context(), index)
				if err != nil {
					return err
				}
				printJobResult(cmd.OutOrStdout(), job)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&panel, "panel", "n", 1, "Card number to export (1-based)")
	cmd.Flags().StringVar(&panelID, "id", "", "Card ID to export (overrides --panel)")
	return cmd
}

func newVideoCommand(ctx *commandContext) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "video",
		Short: "Export every card as a slideshow video",
		RunE: func(cmd *cobra.Command, args []string) error {
			progress := cmd.ErrOrStderr()
			var observers []func(export.Job)
			if !quiet {
				observers = append(observers, progressPrinter(progress))
			}
			return ctx.withSession(cmd, sessionOptions{observers: observers}, func(sess *session.Session) error {
				if err := waitForEncoder(cmd.Context(), sess); err != nil {
					return err
				}
				job, err := sess.Exports.ExportVideo(cmd.Context())
				if err != nil {
					return err
				}
				printJobResult(cmd.OutOrStdout(), job)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	return cmd
}

func waitForEncoder(ctx context.Context, sess *session.Session) error {
	select {
	case <-sess.EncoderReady():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// progressPrinter reports state changes and capture progress, one line each.
func progressPrinter(w io.Writer) func(export.Job) {
	var lastState export.State
	lastCaptured := -1
	return func(job export.Job) {
		if job.State == lastState && job.Captured == lastCaptured {
			return
		}
		lastState = job.State
		lastCaptured = job.Captured
		switch job.State {
		case export.StateCapturing:
			fmt.Fprintf(w, "capturing %d/%d\n", job.Captured, len(job.PanelIDs))
		case export.StateEncoding:
			fmt.Fprintf(w, "encoding %d frames\n", job.Captured)
		case export.StateDispatching:
			fmt.Fprintf(w, "saving %s\n", job.Filename)
		}
	}
}

func printJobResult(w io.Writer, job export.Job) {
	switch job.Result.Outcome {
	case dispatch.OutcomeShared:
		fmt.Fprintf(w, "Shared %s\n", job.Filename)
	case dispatch.OutcomeCancelled:
		fmt.Fprintln(w, "Share cancelled")
	case dispatch.OutcomeManualSave:
		fmt.Fprintf(w, "Opened %s for manual save\n", job.Result.Path)
	default:
		fmt.Fprintf(w, "Saved %s\n", job.Result.Path)
	}
	details := []string{fmt.Sprintf("%d card(s)", len(job.PanelIDs)), strings.TrimSpace(humanize.RelTime(job.StartedAt, job.FinishedAt, "", ""))}
	if job.SettleTimeouts > 0 {
		details = append(details, fmt.Sprintf("%d card(s) captured before fully loading", job.SettleTimeouts))
	}
	if job.Result.FellBack {
		details = append(details, "share unavailable, saved instead")
	}
	for i := range details {
		details[i] = strings.TrimSpace(details[i])
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(details, ", "))
}
