package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/i474232898/crop-yield-dashboard/internal/crop"
)

var projectYield float64

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Print the growth projection for a predicted yield",
	Long: `Print the projected yield every 5 days from day 0 to day 100 for a
final predicted yield given in tons per hectare.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if projectYield < 0 {
			return errors.New("--yield must not be negative")
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DAY\tPROJECTED YIELD")
		for p := range crop.GrowthProjection(projectYield) {
			fmt.Fprintf(tw, "%d\t%.2f\n", p.Day, p.ProjectedYield)
		}
		return tw.Flush()
	},
}

func init() {
	projectCmd.Flags().Float64Var(&projectYield, "yield", 0, "final predicted yield (tons/ha)")
	_ = projectCmd.MarkFlagRequired("yield")
}
