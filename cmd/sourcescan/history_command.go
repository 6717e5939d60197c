package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sourcescan/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent scan runs recorded locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					strconv.FormatInt(run.ID, 10),
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					titleStatus(run.Status),
					orDash(run.ScanID),
					run.InputPath,
					run.OutputPath,
					formatDuration(run.StartedAt, run.FinishedAt),
				})
			}
			headers := []string{"ID", "Started", "Status", "Scan", "Input", "Output", "Duration"}
			aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func formatDuration(started, finished time.Time) string {
	if started.IsZero() || finished.IsZero() {
		return "-"
	}
	return finished.Sub(started).Round(time.Second).String()
}
