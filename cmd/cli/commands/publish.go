package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ward-overtime/pkg/clients/sheetsclient"
	"github.com/jakechorley/ward-overtime/pkg/core/services"
)

// PublishCmd creates the publish command
func PublishCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <YYYY-MM>",
		Short: "Publish a month's saved overtime to the publish sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("publish command", zap.String("month", args[0]))

			client, err := app.SheetsClient()
			if err != nil {
				return err
			}

			published, err := services.PublishOvertime(app.Ctx, app.Database, client, app.Cfg, app.Logger, args[0])
			if err != nil {
				return err
			}

			summary, err := summarisePublished(published)
			if err != nil {
				return err
			}

			fmt.Printf("\n%s✓ Overtime published successfully!%s\n\n", colorGreen, colorReset)
			fmt.Printf("Tab:         %s\n", summary.Tab)
			fmt.Printf("Dates:       %d (%d closed)\n", summary.Dates, summary.Closed)
			fmt.Printf("Shifts:      %d\n\n", summary.Shifts)

			return nil
		},
	}
}

// publishSummary counts what was written to the publish sheet
type publishSummary struct {
	Tab    string
	Dates  int
	Closed int
	Shifts int
}

func summarisePublished(published *sheetsclient.PublishedOvertime) (publishSummary, error) {
	tab, err := published.TabTitle()
	if err != nil {
		return publishSummary{}, err
	}

	summary := publishSummary{Tab: tab, Dates: len(published.Rows)}
	for _, row := range published.Rows {
		summary.Shifts += len(row.Holders)
		if row.Closed != "" {
			summary.Closed++
		}
	}
	return summary, nil
}
