package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/ward-overtime/internal/config"
	"github.com/jakechorley/ward-overtime/pkg/clients/sheetsclient"
	"github.com/jakechorley/ward-overtime/pkg/core/model"
	"github.com/jakechorley/ward-overtime/pkg/db"
)

// publishedDateLayout is how dates appear on the published sheet
const publishedDateLayout = "Mon Jan 02 2006"

// OvertimePublisher writes a month's overtime grid to a spreadsheet
type OvertimePublisher interface {
	PublishOvertime(ctx context.Context, spreadsheetID string, published *sheetsclient.PublishedOvertime) error
}

// PublishOvertimeStore defines the database operations needed for publishing a month
type PublishOvertimeStore interface {
	GetStaff(ctx context.Context) ([]db.Staff, error)
	GetMarkings(ctx context.Context, month string) ([]db.OvertimeMarking, error)
}

// PublishOvertime builds the month's grid from stored markings and publishes it.
// Every calendar date of the month gets a row; closed dates are labelled with their reason.
func PublishOvertime(
	ctx context.Context,
	store PublishOvertimeStore,
	publisher OvertimePublisher,
	cfg *config.Config,
	logger *zap.Logger,
	month string,
) (*sheetsclient.PublishedOvertime, error) {
	logger.Debug("Starting publishOvertime", zap.String("month", month))

	if cfg.PublishSheetID == "" {
		return nil, fmt.Errorf("publishSheetID is not configured")
	}

	dates, err := model.MonthDates(month)
	if err != nil {
		return nil, err
	}

	closed, err := closedDatesInMonth(cfg.ClosedDates, month)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve closed dates: %w", err)
	}

	// Step 1: Fetch staff names
	logger.Debug("Fetching staff")
	staffRows, err := store.GetStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch staff: %w", err)
	}
	namesByID := make(map[int]string, len(staffRows))
	for _, row := range staffRows {
		namesByID[row.ID] = row.Name
	}

	// Step 2: Fetch markings
	logger.Debug("Fetching markings")
	markings, err := store.GetMarkings(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch markings: %w", err)
	}
	if len(markings) == 0 {
		return nil, fmt.Errorf("no overtime markings for %s", month)
	}

	holdersByDate := make(map[string]map[model.ShiftType]string)
	for _, marking := range markings {
		name, ok := namesByID[marking.StaffID]
		if !ok {
			return nil, fmt.Errorf("staff not found: %d (marking %s, shift %s)",
				marking.StaffID, marking.ID, marking.ShiftDate)
		}
		if holdersByDate[marking.ShiftDate] == nil {
			holdersByDate[marking.ShiftDate] = make(map[model.ShiftType]string)
		}
		holdersByDate[marking.ShiftDate][model.ShiftType(marking.ShiftType)] = name
	}

	// Step 3: Build the grid
	published := &sheetsclient.PublishedOvertime{
		Month: month,
		Rows:  make([]sheetsclient.PublishedOvertimeRow, 0, len(dates)),
	}
	for _, date := range dates {
		key := date.Format(model.DateLayout)
		holders := holdersByDate[key]
		if holders == nil {
			holders = map[model.ShiftType]string{}
		}
		published.Rows = append(published.Rows, sheetsclient.PublishedOvertimeRow{
			Date:    date.Format(publishedDateLayout),
			Holders: holders,
			Closed:  closed[key],
		})
	}

	// Step 4: Publish
	logger.Info("Publishing overtime grid",
		zap.String("month", month),
		zap.Int("markings", len(markings)),
		zap.String("sheet_id", cfg.PublishSheetID))
	if err := publisher.PublishOvertime(ctx, cfg.PublishSheetID, published); err != nil {
		return nil, fmt.Errorf("failed to publish overtime: %w", err)
	}

	return published, nil
}
