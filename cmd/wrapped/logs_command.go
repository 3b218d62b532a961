package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wrapped/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var jobID string
	var level string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display the log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := logs.Path(cfg)
			if path == "" {
				return errors.New("file logging is disabled (set paths.log_dir)")
			}
			var levelFilter logs.Filter
			if strings.TrimSpace(level) != "" {
				threshold, ok := logs.ParseLevel(level)
				if !ok {
					return fmt.Errorf("unknown level %q", level)
				}
				levelFilter = logs.LevelFilter(threshold)
			}
			opts := logs.TailOptions{
				Offset: -1,
				Limit:  max(lines, 0),
				Filter: logs.All(logs.JobFilter(jobID), levelFilter),
			}

			out := cmd.OutOrStdout()
			printed := false
			for {
				result, err := logs.Tail(cmd.Context(), path, opts)
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
					printed = true
				}
				if err != nil {
					return err
				}
				if !follow {
					if !printed {
						fmt.Fprintln(out, "No log entries available")
					}
					return nil
				}
				opts.Offset = result.Offset
				opts.Follow = true
				opts.Wait = time.Second
			}
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show first")
	cmd.Flags().StringVar(&jobID, "job", "", "Only lines for this export job id")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	return cmd
}
