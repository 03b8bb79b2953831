package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/napolitain/stronghold/internal/models"
)

func convertCmd() *cobra.Command {
	var (
		wallet string
		into   string
	)
	cmd := &cobra.Command{
		Use:   "convert [base-amount]",
		Short: "Convert between wallets and base units",
		Example: `  stronghold convert --wallet gp=3,sp=2
  stronghold convert 1234 --into gp,cp`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, catalog, _, err := setup()
			if err != nil {
				return err
			}
			currency := catalog.Currency

			if wallet != "" {
				w, err := parseWallet(wallet)
				if err != nil {
					return err
				}
				base, err := currency.ToBase(w)
				if err != nil {
					return err
				}
				fmt.Printf("%s = %d base (%s)\n", currency.FormatWallet(w), base, currency.Format(base))
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("either --wallet or a base amount is required")
			}
			base, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("base amount: %w", err)
			}
			order := currency.Types()
			if into != "" {
				order = nil
				for _, d := range strings.Split(into, ",") {
					order = append(order, models.Denomination(strings.TrimSpace(d)))
				}
			}
			w, rem, err := currency.FromBase(base, order)
			if err != nil {
				return err
			}
			fmt.Printf("%d base = %s\n", base, currency.FormatWallet(w))
			if rem != 0 {
				color.Yellow("   %d base units cannot be expressed in %s", rem, strings.Join(denominationStrings(order), ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&wallet, "wallet", "w", "", "Wallet to convert, e.g. gp=3,sp=2")
	cmd.Flags().StringVar(&into, "into", "", "Denominations to express a base amount in")
	return cmd
}

// parseWallet reads "gp=3,sp=2" style amounts
func parseWallet(s string) (models.Wallet, error) {
	w := models.Wallet{}
	for _, part := range strings.Split(s, ",") {
		code, amount, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("wallet entry %q: want code=amount", part)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(amount), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("wallet entry %q: %w", part, err)
		}
		w[models.Denomination(strings.TrimSpace(code))] += n
	}
	return w, nil
}

func denominationStrings(ds []models.Denomination) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = string(d)
	}
	return out
}
