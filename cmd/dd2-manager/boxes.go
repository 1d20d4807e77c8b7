package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"dd2-manager/internal/boxes"
)

var boxesCmd = &cobra.Command{
	Use:   "boxes",
	Short: "Inspect or reset saved shopping box positions",
}

var boxesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved box positions",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := boxes.LoadFrom(cfg.GetBoxesPath())
		if err != nil {
			color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "%v; showing defaults\n", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.GetBoxesPath())
		return printBoxes(cmd.OutOrStdout(), set)
	},
}

var boxesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Overwrite the boxes file with default positions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := boxes.NewStore(cfg.GetBoxesPath(), log, notifier)
		set, err := store.Reset()
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Reset %s\n", store.Path())
		return printBoxes(cmd.OutOrStdout(), set)
	},
}

func printBoxes(w io.Writer, set boxes.Set) error {
	table := tablewriter.NewWriter(w)
	table.Header("Box", "Kind", "X", "Y")
	for i, p := range set.Shopping {
		table.Append(fmt.Sprint(i+1), "shopping", fmt.Sprint(p.X), fmt.Sprint(p.Y))
	}
	for i, p := range set.Utility {
		table.Append(fmt.Sprintf("U%d", i+1), "utility", fmt.Sprint(p.X), fmt.Sprint(p.Y))
	}
	return table.Render()
}

func init() {
	boxesCmd.AddCommand(boxesShowCmd, boxesResetCmd)
	rootCmd.AddCommand(boxesCmd)
}
