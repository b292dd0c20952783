package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ward-overtime/pkg/core/services"
)

// AllocateCmd creates the allocate command
func AllocateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocate <YYYY-MM>",
		Short: "Allocate a month's overtime shifts",
		Long: `Run the round-robin allocation for every shift type in priority order (A to F).

Full mode replaces the month's markings. Partial mode keeps them and only fills open slots.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partial, _ := cmd.Flags().GetBool("partial")
			strategy, _ := cmd.Flags().GetString("strategy")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			forceCommit, _ := cmd.Flags().GetBool("force-commit")
			showRounds, _ := cmd.Flags().GetBool("rounds")

			app.Logger.Debug("allocate command",
				zap.String("month", args[0]),
				zap.Bool("partial", partial),
				zap.String("strategy", strategy),
				zap.Bool("dry_run", dryRun),
				zap.Bool("force_commit", forceCommit))

			// Call the service
			result, err := services.AllocateOvertime(app.Ctx, app.Database, app.Cfg, app.Logger, services.AllocateOvertimeParams{
				Month:       args[0],
				Partial:     partial,
				Strategy:    services.Strategy(strategy),
				DryRun:      dryRun,
				ForceCommit: forceCommit,
			})
			if err != nil {
				return fmt.Errorf("allocation failed: %w", err)
			}

			outcome := result.Outcome
			diagnostics := outcome.Diagnostics

			// Display header
			fmt.Printf("\n🎯 Overtime Allocation Results\n\n")
			fmt.Printf("Month:       %s\n", result.Month)
			fmt.Printf("Mode:        %s\n", result.Mode)
			fmt.Printf("Strategy:    %s\n", result.Strategy)
			if result.Strategy == services.StrategyShuffle {
				accepted := "best effort"
				if result.ShuffleAccepted {
					accepted = "within thresholds"
				}
				fmt.Printf("Shuffles:    %d (%s)\n", result.ShuffleAttempts, accepted)
			}
			if result.RunID != "" {
				fmt.Printf("Run ID:      %s\n", result.RunID)
			}
			switch {
			case !outcome.Complete():
				fmt.Printf("Status:      %s🛑 CANCELLED (not saved)%s\n", colorRed, colorReset)
			case dryRun:
				fmt.Printf("Status:      🧪 DRY RUN (not saved)\n")
			case result.Saved && result.Success():
				fmt.Printf("Status:      %s✅ SUCCESS (saved to database)%s\n", colorGreen, colorReset)
			case result.Saved:
				fmt.Printf("Status:      %s⚠️  FORCED (saved despite validation errors)%s\n", colorYellow, colorReset)
			default:
				fmt.Printf("Status:      %s❌ FAILED (not saved)%s\n", colorRed, colorReset)
			}
			fmt.Println()

			fmt.Printf("Slots:       %d (%d new, %d kept, %d unfilled)\n",
				diagnostics.DemandCount,
				diagnostics.NewAssignments,
				diagnostics.PreseededAssignments,
				diagnostics.TotalUnfilled())
			if len(result.ClosedDates) > 0 {
				fmt.Printf("Closed:      %d dates\n", len(result.ClosedDates))
			}
			fmt.Println()

			// Display validation errors if any
			if len(outcome.ValidationErrors) > 0 {
				fmt.Printf("⚠️  Validation Errors (%d):\n", len(outcome.ValidationErrors))
				for _, verr := range outcome.ValidationErrors {
					fmt.Printf("  • %s %s (%s) - %s: %s\n",
						verr.Date,
						staffName(result.Staff, verr.StaffID),
						verr.ShiftType,
						verr.CriterionName,
						verr.Description)
				}
				fmt.Println()
			}

			// Display allocations in a grid
			fmt.Printf("📅 Allocated Shifts:\n\n")
			printTable(shiftHeader(), allocationRows(result))
			fmt.Println()

			if len(diagnostics.Unfilled) > 0 {
				fmt.Printf("🕳️  Unfilled Slots (%d):\n", len(diagnostics.Unfilled))
				for _, demand := range diagnostics.Unfilled {
					fmt.Printf("  • %s %s: %s\n", demand.Date, demand.ShiftType, demand.Reason)
				}
				fmt.Println()
			}

			if showRounds {
				printRounds(result)
			}

			printStatistics(diagnostics.Statistics)

			return nil
		},
	}

	cmd.Flags().Bool("partial", false, "Keep the month's existing markings and only fill open slots")
	cmd.Flags().String("strategy", string(services.StrategyRoundRobin), "Allocation strategy: round-robin or shuffle")
	cmd.Flags().Bool("dry-run", false, "Run without saving to database")
	cmd.Flags().Bool("force-commit", false, "Save even if validation fails")
	cmd.Flags().Bool("rounds", false, "Show every round-robin pass")

	return cmd
}

func printRounds(result *services.AllocateOvertimeResult) {
	fmt.Printf("🔁 Rounds:\n")
	for _, round := range result.Outcome.Diagnostics.Rounds {
		label := ""
		switch {
		case round.Relaxed:
			label = " (relaxed)"
		case round.Gated:
			label = " (gated)"
		}
		fmt.Printf("  %s round %d%s: %d considered, %d gated out, %d assigned, %d remaining\n",
			round.ShiftType,
			round.Round,
			label,
			len(round.Considered),
			len(round.GatedOut),
			len(round.Assigned),
			round.Remaining)
	}
	fmt.Println()
}
