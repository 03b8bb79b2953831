package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/napolitain/stronghold/internal/models"
)

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List facilities, their upgrades and orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, catalog, _, err := setup()
			if err != nil {
				return err
			}
			printBanner("Facility catalog")
			printCatalog(catalog)
			return nil
		},
	}
}

func printCatalog(catalog *models.Catalog) {
	titleColor := color.New(color.FgCyan, color.Bold)
	currency := catalog.Currency

	if !quiet {
		titleColor.Println("Denominations")
		var parts []string
		for _, d := range currency.Types() {
			factor, _ := currency.Factor(d)
			parts = append(parts, fmt.Sprintf("%s=%s", d, factor.String()))
		}
		fmt.Printf("   %s (base units)\n\n", strings.Join(parts, " "))
	}

	titleColor.Println("Facilities")
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"ID", "Tier", "Name", "Slots", "Professions", "Build", "Turns", "Upgrade", "Orders"}),
	)
	for _, f := range catalog.Facilities() {
		upgrade := "-"
		if u := catalog.UpgradeOf(f.ID); u != nil {
			upgrade = u.ID
		}
		professions := "any"
		if len(f.AllowedProfessions) > 0 {
			professions = strings.Join(f.AllowedProfessions, ", ")
		}
		orders := make([]string, 0, len(f.Orders))
		for _, o := range f.Orders {
			orders = append(orders, o.ID)
		}
		row := []string{
			f.ID,
			fmt.Sprintf("%d", f.Tier),
			f.Name,
			fmt.Sprintf("%d", f.NpcSlots),
			professions,
			currency.FormatWallet(f.Build.Cost),
			fmt.Sprintf("%d", f.Build.DurationTurns),
			upgrade,
			strings.Join(orders, ", "),
		}
		_ = table.Append(row)
	}
	_ = table.Render()

	if quiet {
		return
	}
	fmt.Println()
	titleColor.Println("Orders")
	table = tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Facility", "Order", "Turns", "Roll", "Staff", "Cost", "Repeat", "Inputs"}),
	)
	for _, f := range catalog.Facilities() {
		for _, o := range f.Orders {
			repeat := ""
			if o.Repeatable {
				repeat = "yes"
			}
			inputs := make([]string, 0, len(o.Inputs))
			for _, in := range o.Inputs {
				inputs = append(inputs, fmt.Sprintf("%s (%s)", in.Name, in.Source))
			}
			row := []string{
				f.ID,
				o.ID,
				fmt.Sprintf("%d", o.DurationTurns),
				fmt.Sprintf("%d-%d", o.Roll.Min, o.Roll.Max),
				fmt.Sprintf("%d", o.StaffRequired),
				currency.FormatWallet(o.Cost),
				repeat,
				strings.Join(inputs, ", "),
			}
			_ = table.Append(row)
		}
	}
	_ = table.Render()
}
