package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"dd2-manager/internal/storage"
)

var (
	historyLimit   int
	historyCleanup time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent auto-shopping runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := storage.Open(cfg.GetHistoryPath(), log)
		if err != nil {
			return err
		}
		defer db.Close()

		if historyCleanup > 0 {
			if err := db.Cleanup(historyCleanup); err != nil {
				return err
			}
		}

		runs, err := db.RecentRuns(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
			return nil
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.Header("ID", "Started", "Duration", "Cycles", "Reason")
		for _, r := range runs {
			duration := "running"
			if !r.End.IsZero() {
				duration = r.Duration().Round(time.Second).String()
			}
			table.Append(
				shortID(r.ID),
				r.Start.Local().Format("2006-01-02 15:04:05"),
				duration,
				fmt.Sprintf("%d", r.Cycles),
				r.Reason,
			)
		}
		return table.Render()
	},
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to show")
	historyCmd.Flags().DurationVar(&historyCleanup, "cleanup", 0, "delete runs older than this first, e.g. 720h")
	rootCmd.AddCommand(historyCmd)
}
