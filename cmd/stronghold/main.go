package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/napolitain/stronghold/internal/config"
	"github.com/napolitain/stronghold/internal/loader"
	"github.com/napolitain/stronghold/internal/logging"
	"github.com/napolitain/stronghold/internal/models"
)

var (
	dataDir    string
	configFile string
	quiet      bool
	verbose    bool
)

var bannerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("86")).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 2)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stronghold",
		Short: "Stronghold rules engine",
		Long: `Runs the stronghold rules (facilities, staff, orders and the
turn clock) against a facility catalog.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "data", "Path to catalog directory")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML engine config")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Minimal output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log engine events to stderr")

	rootCmd.AddCommand(catalogCmd(), convertCmd(), simulateCmd(), planCmd())

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func printBanner(subtitle string) {
	if quiet {
		return
	}
	fmt.Println(bannerStyle.Render("Stronghold\n" + subtitle))
	fmt.Println()
}

// setup loads the config and catalog shared by every command
func setup() (config.Config, *models.Catalog, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("config: %w", err)
	}
	logger := zap.NewNop()
	if verbose {
		if logger, err = logging.NewDevelopment(cfg.LogLevel); err != nil {
			return cfg, nil, nil, err
		}
	}
	catalog, err := loader.LoadCatalog(dataDir)
	if err != nil {
		return cfg, nil, nil, err
	}
	logger.Debug("catalog loaded",
		zap.String("dir", dataDir),
		zap.Int("facilities", len(catalog.Facilities())))
	return cfg, catalog, logger, nil
}
