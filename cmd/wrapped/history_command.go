package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"wrapped/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				records, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, historyJSON(records))
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No exports recorded")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					rows = append(rows, historyRow(rec))
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Started", "Kind", "Cards", "Status", "Outcome", "Size", "File"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				summary, err := store.Summarize(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d exports: %d succeeded, %d failed, %d interrupted, %s written\n",
					summary.Total, summary.Succeeded, summary.Failed, summary.Interrupted,
					humanize.Bytes(uint64(summary.TotalBytes)))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of exports to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print history as JSON")
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished exports older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			return withHistory(ctx, func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d export(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age cutoff")
	return cmd
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func historyRow(rec history.Record) []string {
	outcome := rec.Outcome
	if rec.Status == history.StatusFailed && rec.Stage != "" {
		outcome = "failed at " + rec.Stage
	}
	if rec.FellBack {
		outcome += " (fallback)"
	}
	size := ""
	if rec.SizeBytes > 0 {
		size = humanize.Bytes(uint64(rec.SizeBytes))
	}
	return []string{
		humanize.Time(rec.StartedAt),
		rec.Kind,
		strconv.Itoa(rec.PanelCount()),
		string(rec.Status),
		strings.TrimSpace(outcome),
		size,
		rec.Filename,
	}
}

type historyEntry struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	Subject    string   `json:"subject"`
	Period     string   `json:"period"`
	Status     string   `json:"status"`
	Stage      string   `json:"stage,omitempty"`
	Panels     []string `json:"panels"`
	Outcome    string   `json:"outcome,omitempty"`
	Filename   string   `json:"filename,omitempty"`
	OutputPath string   `json:"output_path,omitempty"`
	SizeBytes  int      `json:"size_bytes,omitempty"`
	Error      string   `json:"error,omitempty"`
	StartedAt  string   `json:"started_at"`
	DurationMS int64    `json:"duration_ms,omitempty"`
}

func historyJSON(records []history.Record) []historyEntry {
	out := make([]historyEntry, 0, len(records))
	for _, rec := range records {
		out = append(out, historyEntry{
			ID:         rec.ID,
			Kind:       rec.Kind,
			Subject:    rec.Subject,
			Period:     rec.Period,
			Status:     string(rec.Status),
			Stage:      rec.Stage,
			Panels:     rec.PanelIDs,
			Outcome:    rec.Outcome,
			Filename:   rec.Filename,
			OutputPath: rec.OutputPath,
			SizeBytes:  rec.SizeBytes,
			Error:      rec.ErrorMessage,
			StartedAt:  rec.StartedAt.UTC().Format(time.RFC3339),
			DurationMS: rec.Duration().Milliseconds(),
		})
	}
	return out
}
