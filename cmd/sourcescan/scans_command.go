package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScansCommand(ctx *commandContext) *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "scans",
		Short: "List scans known to the service",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newScanClient()
			if err != nil {
				return err
			}

			list := client.ListScans
			if activeOnly {
				list = client.ActiveScans
			}
			summaries, err := list(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No scans found")
				return nil
			}

			rows := make([][]string, 0, len(summaries))
			for _, summary := range summaries {
				rows = append(rows, []string{
					orDash(summary.ID),
					orDash(summary.Name),
					titleStatus(summary.Status),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Name", "Status"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "Show only scans that are still running")
	return cmd
}
