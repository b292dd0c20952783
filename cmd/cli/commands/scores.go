package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ward-overtime/pkg/core/services"
)

// ScoresCmd creates the scores command
func ScoresCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scores <YYYY-MM>",
		Short: "View fairness scores from a month's saved markings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("scores command", zap.String("month", args[0]))

			result, err := services.ViewScores(app.Ctx, app.Database, app.Cfg, app.Logger, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\n⚖️  Fairness Scores for %s\n\n", result.Month)
			fmt.Printf("Markings:    %d\n", result.MarkingCount)
			if result.LastRun != nil {
				fmt.Printf("Last run:    %s (%s, %s) at %s\n",
					result.LastRun.ID,
					result.LastRun.Mode,
					result.LastRun.Strategy,
					result.LastRun.CreatedAt)
			} else {
				fmt.Printf("Last run:    none\n")
			}
			fmt.Println()

			header := []string{"ID", "Name", "Role", "Work days", "Base", "Current", "Shifts"}
			printTable(header, scoreRows(result.Scores))
			fmt.Println()

			if len(result.Scores) > 0 {
				highest := result.Scores[0]
				lowest := result.Scores[len(result.Scores)-1]
				fmt.Printf("Highest:     %s%s %s%s\n", scoreColor(highest.CurrentScore), highest.Staff.Name, formatScore(highest.CurrentScore), colorReset)
				fmt.Printf("Lowest:      %s%s %s%s\n", scoreColor(lowest.CurrentScore), lowest.Staff.Name, formatScore(lowest.CurrentScore), colorReset)
				fmt.Println()
			}

			printStatistics(result.Statistics)

			return nil
		},
	}
}

// scoreRows renders one row per staff member, coloring the current score
func scoreRows(scores []services.StaffScore) [][]string {
	rows := make([][]string, 0, len(scores))
	for _, score := range scores {
		rows = append(rows, []string{
			fmt.Sprintf("%d", score.Staff.ID),
			score.Staff.Name,
			string(score.Staff.Role),
			fmt.Sprintf("%d", score.WorkDays),
			formatScore(score.BaseScore),
			formatScore(score.CurrentScore),
			formatCounts(score.Counts),
		})
	}
	return rows
}
