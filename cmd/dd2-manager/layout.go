package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"dd2-manager/internal/layout"
	"dd2-manager/internal/models"
)

var (
	previewWidth  int
	previewHeight int
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Layout tools",
}

var layoutPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the computed rectangles for 0 to 3 secondary windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		l := cfg.GetLayout()
		spec := layout.Spec{MainWidth: l.MainWidth, MainHeight: l.MainHeight, Padding: l.Padding}
		if err := spec.Validate(); err != nil {
			return err
		}
		area := models.NewRect(0, 0, previewWidth, previewHeight)
		return printPreview(cmd.OutOrStdout(), area, spec)
	},
}

func printPreview(w io.Writer, area models.Rect, spec layout.Spec) error {
	for n := 0; n <= layout.MaxSecondaries; n++ {
		color.New(color.Bold).Fprintf(w, "%d secondary window(s) in %s\n", n, area)
		p := layout.Compute(area, spec, n)
		slots := p.Slots()

		table := tablewriter.NewWriter(w)
		table.Header("Slot", "X", "Y", "Width", "Height")
		for s := layout.SlotMain; s <= layout.SlotBottomRight; s++ {
			r, ok := slots[s]
			if !ok {
				continue
			}
			table.Append(s.String(), fmt.Sprint(r.Left), fmt.Sprint(r.Top), fmt.Sprint(r.Width()), fmt.Sprint(r.Height()))
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	layoutPreviewCmd.Flags().IntVar(&previewWidth, "width", 1920, "work area width")
	layoutPreviewCmd.Flags().IntVar(&previewHeight, "height", 1080, "work area height")
	layoutCmd.AddCommand(layoutPreviewCmd)
	rootCmd.AddCommand(layoutCmd)
}
