package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/napolitain/stronghold/internal/loader"
	"github.com/napolitain/stronghold/internal/models"
	"github.com/napolitain/stronghold/internal/stronghold"
)

func simulateCmd() *cobra.Command {
	var (
		seed        int64
		strict      bool
		autoResolve bool
		sessionFile string
		saveFile    string
	)
	cmd := &cobra.Command{
		Use:   "simulate <script.yaml>",
		Short: "Play a scripted sequence of actions and turns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, catalog, logger, err := setup()
			if err != nil {
				return err
			}
			sc, err := LoadScript(args[0])
			if err != nil {
				return err
			}
			if sc.Seed != 0 {
				cfg.Seed = sc.Seed
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if autoResolve {
				cfg.AutoResolve = true
			}

			engine, err := stronghold.New(catalog, cfg, stronghold.WithLogger(logger))
			if err != nil {
				return err
			}

			var runner *Runner
			if sessionFile != "" {
				s, err := loader.LoadSession(sessionFile, catalog)
				if err != nil {
					return err
				}
				runner = ResumeRunner(engine, s)
			} else if runner, err = NewRunner(engine, sc); err != nil {
				return err
			}

			printBanner("Simulation: " + runner.Session().Name)
			results, runErr := runner.Run(sc.Steps, strict)
			printSteps(results)
			if runErr != nil {
				return runErr
			}

			s := runner.Session()
			if !quiet {
				fmt.Println()
				printLog(s)
			}
			fmt.Println()
			printState(engine, s)

			if saveFile != "" {
				if err := saveSession(saveFile, s); err != nil {
					return err
				}
				logger.Info("session saved", zap.String("path", saveFile), zap.Int("turn", s.Turn))
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "Dice seed (overrides config and script)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Stop at the first failed step")
	cmd.Flags().BoolVar(&autoResolve, "auto-resolve", false, "Resolve ready orders during the turn")
	cmd.Flags().StringVar(&sessionFile, "session", "", "Continue a saved session instead of opening a new one")
	cmd.Flags().StringVar(&saveFile, "save", "", "Write the final session as JSON")
	return cmd
}

func printSteps(results []StepResult) {
	okColor := color.New(color.FgGreen)
	for _, r := range results {
		if r.Err != nil {
			if kind := models.ErrorKind(r.Err); kind != "" {
				color.Red("%3d. %-9s %s: %v", r.Index, r.Action, kind, r.Err)
			} else {
				color.Red("%3d. %-9s %v", r.Index, r.Action, r.Err)
			}
		} else if !quiet {
			okColor.Printf("%3d. %-9s %s\n", r.Index, r.Action, r.Detail)
		}
		if quiet {
			continue
		}
		for _, report := range r.Reports {
			for _, c := range report.Completed {
				fmt.Printf("       turn %d: %s %s complete\n", report.Turn, c.FacilityID, c.Type)
			}
			for _, ready := range report.Ready {
				line := fmt.Sprintf("       turn %d: %s ready (rolled %d, %s)", report.Turn, ready.OrderID, ready.Roll, ready.Bucket)
				if len(ready.Pending) > 0 {
					line += ", needs " + strings.Join(ready.Pending, ", ")
				}
				fmt.Println(line)
			}
			for _, res := range report.Resolved {
				fmt.Printf("       turn %d: %s\n", report.Turn, describeResolution(res))
			}
		}
	}
}

func printLog(s *models.Session) {
	color.New(color.FgCyan, color.Bold).Println("Audit log")
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Turn", "Event", "Source", "Action", "Roll", "Result", "Changes"}),
	)
	for _, entry := range s.Log {
		roll := ""
		if entry.Roll != nil {
			roll = fmt.Sprintf("%d", *entry.Roll)
		}
		changes := make([]string, 0, len(entry.Changes))
		for _, c := range entry.Changes {
			if c.Kind == models.EffectLog {
				continue
			}
			changes = append(changes, c.String())
		}
		row := []string{
			fmt.Sprintf("%d", entry.Turn),
			string(entry.EventType),
			fmt.Sprintf("%s:%s", entry.SourceType, entry.SourceID),
			entry.Action,
			roll,
			entry.Result,
			strings.Join(changes, " "),
		}
		_ = table.Append(row)
	}
	_ = table.Render()
}

func printState(engine *stronghold.Engine, s *models.Session) {
	titleColor := color.New(color.FgCyan, color.Bold)
	infoColor := color.New(color.FgYellow)
	currency := engine.Catalog().Currency

	titleColor.Printf("%s after turn %d\n", s.Name, s.Turn)
	fmt.Printf("   Treasury: %s\n", currency.Format(s.Treasury))
	if upkeep, err := engine.UpkeepPerTurn(s); err == nil && upkeep != 0 {
		fmt.Printf("   Upkeep:   %s per turn\n", currency.Format(upkeep))
	}
	if items := counts(s.ItemNames(), s.Inventory); items != "" {
		fmt.Printf("   Items:    %s\n", items)
	}
	if stats := counts(s.StatNames(), s.Stats); stats != "" {
		fmt.Printf("   Stats:    %s\n", stats)
	}

	for _, b := range engine.BuildQueue(s) {
		infoColor.Printf("   %s %s: %d turn(s) left\n", b.Type, b.FacilityID, b.RemainingTurns)
	}
	for _, p := range engine.ListPendingInputs(s) {
		names := make([]string, 0, len(p.Inputs))
		for _, in := range p.Inputs {
			names = append(names, in.Name)
		}
		infoColor.Printf("   %s/%s waiting for %s\n", p.FacilityID, p.OrderID, strings.Join(names, ", "))
	}

	fmt.Println()
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Facility", "Status", "Staff", "Orders"}),
	)
	for _, inst := range s.FacilityList() {
		staff := make([]string, 0, len(inst.AssignedNPCs))
		for _, id := range inst.AssignedNPCs {
			if npc := s.NPCs[id]; npc != nil {
				staff = append(staff, fmt.Sprintf("%s (%s %s)", npc.Name, npc.Profession, npc.Level))
			}
		}
		orders := make([]string, 0, len(inst.Orders))
		for _, oi := range inst.Orders {
			orders = append(orders, fmt.Sprintf("%s %s %d", oi.OrderID, oi.Status, oi.Progress))
		}
		row := []string{
			inst.FacilityID,
			string(inst.Build.State),
			strings.Join(staff, ", "),
			strings.Join(orders, ", "),
		}
		_ = table.Append(row)
	}
	_ = table.Render()

	if reserve := engine.Reserve(s); len(reserve) > 0 {
		names := make([]string, 0, len(reserve))
		for _, npc := range reserve {
			names = append(names, npc.Name)
		}
		fmt.Printf("   Reserve: %s\n", strings.Join(names, ", "))
	}
}

func counts(names []string, m map[string]int64) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, m[name]))
	}
	return strings.Join(parts, " ")
}

func saveSession(path string, s *models.Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
