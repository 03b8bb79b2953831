package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/napolitain/stronghold/internal/stronghold"
)

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Rank catalog orders by expected currency per turn",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, catalog, logger, err := setup()
			if err != nil {
				return err
			}
			engine, err := stronghold.New(catalog, cfg, stronghold.WithLogger(logger))
			if err != nil {
				return err
			}
			yields, err := engine.PlanOrders()
			if err != nil {
				return err
			}

			printBanner("Order yields")
			table := tablewriter.NewTable(os.Stdout,
				tablewriter.WithHeader([]string{"#", "Facility", "Order", "Turns", "Gain/run", "Cost/run", "Net/turn"}),
			)
			for i, y := range yields {
				net := fmt.Sprintf("%.2f", y.Metric.PerTurn())
				gain := fmt.Sprintf("%.2f", y.Metric.Gain)
				if y.NeedsInputs {
					net, gain = "needs inputs", "?"
				}
				row := []string{
					fmt.Sprintf("%d", i+1),
					y.FacilityID,
					y.Name,
					fmt.Sprintf("%d", y.Metric.DurationTurns),
					gain,
					fmt.Sprintf("%.0f", y.Metric.Cost),
					net,
				}
				_ = table.Append(row)
			}
			_ = table.Render()
			if !quiet {
				color.New(color.FgYellow).Println("\nAmounts are base units, assuming apprentice staff and a uniform roll.")
			}
			return nil
		},
	}
}
