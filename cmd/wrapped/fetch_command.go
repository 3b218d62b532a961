package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"wrapped/internal/config"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "fetch <user>",
		Short: "Download a user's statistics to a JSON file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				ctx.flags.user = args[0]
			}
			ctx.flags.input = ""
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			st, err := ctx.loadStatistics(cmd.Context(), logger)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return fmt.Errorf("encode statistics: %w", err)
			}
			data = append(data, '\n')

			target := strings.TrimSpace(outPath)
			if target == "" || target == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if target, err = config.ExpandPath(target); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			if err := os.WriteFile(target, data, 0o644); err != nil {
				return fmt.Errorf("write statistics: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d plays across %d games to %s\n", st.Stats.TotalPlays, st.Stats.UniqueGames, target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}
