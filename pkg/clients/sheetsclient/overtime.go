package sheetsclient

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/sheets/v4"

	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

const (
	headerRowIndex = 2
	dateColumn     = "Date"
	closedColumn   = "Closed"
	notesColumn    = "Notes"
)

// PublishedOvertimeRow is one calendar date of the published grid
type PublishedOvertimeRow struct {
	Date string // Format: "Mon Jan 02 2006"

	// Holders maps each filled shift type to the holder's name
	Holders map[model.ShiftType]string

	// Closed holds the closure reason, or "" if the ward is open
	Closed string
}

// PublishedOvertime is the complete grid for a month
type PublishedOvertime struct {
	Month string // Format: "2006-01"
	Rows  []PublishedOvertimeRow
}

// TabTitle returns the sheet tab the month is published to, e.g. "Overtime May 2024"
func (p *PublishedOvertime) TabTitle() (string, error) {
	month, err := time.Parse(model.MonthLayout, p.Month)
	if err != nil {
		return "", fmt.Errorf("invalid month: %w", err)
	}
	return "Overtime " + month.Format("Jan 2006"), nil
}

// PublishOvertime publishes a month's overtime grid to Google Sheets.
// If the month's tab doesn't exist it is created. If it exists, the Date, shift type and
// Closed columns are overwritten while Notes and any custom columns to their right are
// kept for dates already on the sheet.
func (c *Client) PublishOvertime(ctx context.Context, spreadsheetID string, published *PublishedOvertime) error {
	tabTitle, err := published.TabTitle()
	if err != nil {
		return fmt.Errorf("failed to generate tab title: %w", err)
	}

	spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet metadata: %w", err)
	}

	exists := false
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == tabTitle {
			exists = true
			break
		}
	}

	var existing [][]interface{}
	if exists {
		existing, err = c.GetValues(spreadsheetID, fmt.Sprintf("%s!A1:ZZ", tabTitle))
		if err != nil {
			return fmt.Errorf("failed to read existing tab data: %w", err)
		}
	} else {
		if _, err := c.CreateSheet(spreadsheetID, tabTitle); err != nil {
			return fmt.Errorf("failed to create tab: %w", err)
		}
	}

	valueRange := &sheets.ValueRange{
		Values: buildOvertimeGrid(published, existing),
	}

	_, err = c.service.Spreadsheets.Values.Update(
		spreadsheetID,
		fmt.Sprintf("%s!A1", tabTitle),
		valueRange,
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write overtime grid: %w", err)
	}

	return nil
}

// buildOvertimeGrid lays out the published month with a 2-row gap above the header.
// existing is the current tab content, or nil for a new tab.
func buildOvertimeGrid(published *PublishedOvertime, existing [][]interface{}) [][]interface{} {
	header := []interface{}{dateColumn}
	for _, shiftType := range model.AllShiftTypes {
		header = append(header, string(shiftType))
	}
	header = append(header, closedColumn)

	// Columns from Notes rightwards belong to the ward and are carried over by date
	var keptHeader []interface{}
	keptByDate := make(map[string][]interface{})
	if len(existing) > headerRowIndex {
		existingHeader := existing[headerRowIndex]
		dateCol := findColumnIndex(existingHeader, dateColumn)
		notesCol := findColumnIndex(existingHeader, notesColumn)
		if notesCol != -1 {
			keptHeader = existingHeader[notesCol:]
			for _, row := range existing[headerRowIndex+1:] {
				if dateCol == -1 || dateCol >= len(row) {
					continue
				}
				date, ok := row[dateCol].(string)
				if !ok || notesCol >= len(row) {
					continue
				}
				keptByDate[date] = row[notesCol:]
			}
		}
	}
	if keptHeader == nil {
		keptHeader = []interface{}{notesColumn}
	}
	header = append(header, keptHeader...)

	rows := [][]interface{}{
		{}, // Row 1 (empty)
		{}, // Row 2 (empty)
		header,
	}

	for _, row := range published.Rows {
		sheetRow := make([]interface{}, 0, len(header))
		sheetRow = append(sheetRow, row.Date)
		for _, shiftType := range model.AllShiftTypes {
			sheetRow = append(sheetRow, row.Holders[shiftType])
		}
		sheetRow = append(sheetRow, row.Closed)

		kept := keptByDate[row.Date]
		for i := range keptHeader {
			if i < len(kept) {
				sheetRow = append(sheetRow, kept[i])
			} else {
				sheetRow = append(sheetRow, "")
			}
		}
		rows = append(rows, sheetRow)
	}

	return rows
}

// findColumnIndex finds the index of a column by its header name
func findColumnIndex(header []interface{}, columnName string) int {
	for i, cell := range header {
		if str, ok := cell.(string); ok && str == columnName {
			return i
		}
	}
	return -1
}
