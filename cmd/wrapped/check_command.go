package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wrapped/internal/capability"
	"wrapped/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report directories, external tools and platform capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, renderSectionHeader("Environment", colorize))
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, ctx.configPath, colorize))
			results := preflight.RunAll(cfg)
			for _, r := range results {
				kind := statusOK
				switch {
				case !r.Passed:
					kind = statusError
				case strings.HasPrefix(r.Detail, "optional:"):
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Capabilities", colorize))
			report := capability.Probe(cfg)
			caps := report.Capabilities
			fmt.Fprintln(out, renderStatusLine("Share files", capabilityKind(caps.CanShareFiles), yesNo(caps.CanShareFiles), colorize))
			fmt.Fprintln(out, renderStatusLine("Share links", capabilityKind(caps.CanShareLinks), yesNo(caps.CanShareLinks), colorize))
			fmt.Fprintln(out, renderStatusLine("Touch-only save", statusInfo, yesNo(caps.TouchOnlySave), colorize))
			for _, reason := range report.Reasons {
				fmt.Fprintf(out, "%s  - %s\n", statusIndent, reason)
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Services", colorize))
			if offline {
				fmt.Fprintln(out, renderStatusLine("Statistics backend", statusInfo, "skipped (--offline)", colorize))
			} else {
				source := preflight.CheckSourceFromConfig(cmd.Context(), cfg)
				kind := statusOK
				if !source.Passed {
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine(source.Name, kind, source.Detail, colorize))
			}
			notify := preflight.CheckNotificationsFromConfig(cfg)
			fmt.Fprintln(out, renderStatusLine(notify.Name, statusInfo, notify.Detail, colorize))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the statistics backend check")
	return cmd
}

func capabilityKind(available bool) statusKind {
	if available {
		return statusOK
	}
	return statusInfo
}
