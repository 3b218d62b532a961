package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wrapped/internal/session"
)

func newPanelsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "panels",
		Short: "List the cards built from the statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, sessionOptions{}, func(sess *session.Session) error {
				descriptors := sess.Registry.All()
				if asJSON {
					type panelJSON struct {
						Index int    `json:"index"`
						ID    string `json:"id"`
						Title string `json:"title"`
					}
					out := make([]panelJSON, 0, len(descriptors))
					for i, d := range descriptors {
						out = append(out, panelJSON{Index: i + 1, ID: d.ID, Title: d.Title})
					}
					return writeJSON(cmd, out)
				}
				rows := make([][]string, 0, len(descriptors))
				for i, d := range descriptors {
					rows = append(rows, []string{strconv.Itoa(i + 1), d.ID, d.Title})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "ID", "Title"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print panels as JSON")
	return cmd
}
