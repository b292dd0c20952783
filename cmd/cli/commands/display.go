package commands

import (
	"fmt"
	"strings"

	"github.com/jakechorley/ward-overtime/pkg/core/allocator"
	"github.com/jakechorley/ward-overtime/pkg/core/model"
	"github.com/jakechorley/ward-overtime/pkg/core/services"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
	colorBold   = "\033[1m"
)

const (
	cellUnfilled = "—"
	cellNoSlot   = ""
)

// allocationRows returns one row per rostered date: the date followed by the holder's
// name for each shift type. Open slots show cellUnfilled; types with no slot that day
// are blank.
func allocationRows(result *services.AllocateOvertimeResult) [][]string {
	unfilled := make(map[string]bool)
	for _, demand := range result.Outcome.Diagnostics.Unfilled {
		unfilled[demand.Date+"/"+string(demand.ShiftType)] = true
	}

	rows := make([][]string, 0, len(result.Roster))
	for _, day := range result.Roster {
		row := []string{day.Date}
		for _, shiftType := range model.AllShiftTypes {
			cell := cellNoSlot
			if staffID, ok := result.Outcome.Result.HolderOf(day.Date, shiftType); ok {
				cell = staffName(result.Staff, staffID)
			} else if unfilled[day.Date+"/"+string(shiftType)] {
				cell = cellUnfilled
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	return rows
}

// staffName returns the staff member's name, or their ID if they are unknown
func staffName(staff map[int]model.Staff, staffID int) string {
	if member, ok := staff[staffID]; ok && member.Name != "" {
		return member.Name
	}
	return fmt.Sprintf("#%d", staffID)
}

// scoreColor picks a color for a fairness score: green at or below zero, yellow up
// to one shift of B's weight above, red beyond
func scoreColor(score float64) string {
	switch {
	case score <= 0:
		return colorGreen
	case score <= 1:
		return colorYellow
	default:
		return colorRed
	}
}

// formatScore renders a score with an explicit sign
func formatScore(score float64) string {
	return fmt.Sprintf("%+.2f", score)
}

// formatCounts renders per-type counts as "A:1 C:2", omitting zeroes
func formatCounts(counts map[model.ShiftType]int) string {
	parts := make([]string, 0, len(counts))
	for _, shiftType := range model.AllShiftTypes {
		if counts[shiftType] > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", shiftType, counts[shiftType]))
		}
	}
	if len(parts) == 0 {
		return cellUnfilled
	}
	return strings.Join(parts, " ")
}

// printTable prints rows under a bold header with columns padded to fit
func printTable(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len([]rune(h))
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len([]rune(cell)) > widths[i] {
				widths[i] = len([]rune(cell))
			}
		}
	}

	fmt.Print(colorBold)
	for i, h := range header {
		fmt.Printf("%-*s  ", widths[i], h)
	}
	fmt.Println(colorReset)

	for i := range header {
		fmt.Print(strings.Repeat("-", widths[i]), "  ")
	}
	fmt.Println()

	for _, row := range rows {
		for i, cell := range row {
			padding := widths[i] - len([]rune(cell))
			if cell == cellUnfilled {
				fmt.Printf("%s%s%s%s  ", colorDim, cell, colorReset, strings.Repeat(" ", padding))
				continue
			}
			fmt.Printf("%s%s  ", cell, strings.Repeat(" ", padding))
		}
		fmt.Println()
	}
}

// printStatistics prints the spread of final scores
func printStatistics(stats allocator.ScoreStatistics) {
	fmt.Printf("📊 Score Statistics:\n")
	fmt.Printf("  Staff:              %d\n", stats.Count)
	fmt.Printf("  Min / Max:          %s / %s\n", formatScore(stats.Min), formatScore(stats.Max))
	fmt.Printf("  Mean:               %s\n", formatScore(stats.Mean))
	fmt.Printf("  Range:              %.2f\n", stats.Range)
	fmt.Printf("  Mean |deviation|:   %.2f\n", stats.MeanAbsDeviation)
	fmt.Printf("  Max |deviation|:    %.2f\n", stats.MaxAbsDeviation)
	fmt.Println()
}

// shiftHeader is the date column followed by every shift type
func shiftHeader() []string {
	header := []string{"Date"}
	for _, shiftType := range model.AllShiftTypes {
		header = append(header, string(shiftType))
	}
	return header
}
