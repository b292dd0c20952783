package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ward-overtime/pkg/core/services"
)

// ImportRosterCmd creates the import-roster command
func ImportRosterCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import-roster <YYYY-MM> <file.csv>",
		Short: "Import a month's staff and base shifts from CSV",
		Long: `Import a month's base shift roster from a CSV file with the header:

  staff_id,name,role,date,base_shift

Staff are created or updated, and the month's base shifts are replaced.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, path := args[0], args[1]
			app.Logger.Debug("import-roster command", zap.String("month", month), zap.String("path", path))

			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open roster file: %w", err)
			}
			defer file.Close()

			result, err := services.ImportRoster(app.Ctx, app.Database, app.Logger, month, file)
			if err != nil {
				return err
			}

			fmt.Printf("\n%s✓ Roster imported successfully!%s\n\n", colorGreen, colorReset)
			fmt.Printf("Month:       %s\n", result.Month)
			fmt.Printf("Staff:       %d\n", result.StaffCount)
			fmt.Printf("Base shifts: %d\n\n", result.ShiftCount)

			return nil
		},
	}
}
