package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/ward-overtime/internal/config"
	"github.com/jakechorley/ward-overtime/pkg/core/allocator"
	"github.com/jakechorley/ward-overtime/pkg/core/model"
	"github.com/jakechorley/ward-overtime/pkg/db"
)

// StaffScore is one staff member's fairness standing for a month
type StaffScore struct {
	Staff        model.Staff
	WorkDays     int
	BaseScore    float64
	CurrentScore float64

	// Counts of markings held per shift type; every shift type has an entry
	Counts map[model.ShiftType]int
}

// Total returns the number of overtime shifts held
func (s StaffScore) Total() int {
	total := 0
	for _, count := range s.Counts {
		total += count
	}
	return total
}

// ViewScoresResult contains the month's scores, highest current score first
type ViewScoresResult struct {
	Month        string
	Scores       []StaffScore
	Statistics   allocator.ScoreStatistics
	MarkingCount int

	// LastRun is the most recent allocation run for the month, if any
	LastRun *db.AllocationRun
}

// ViewScoresStore defines the database operations needed for viewing scores
type ViewScoresStore interface {
	RosterStore
	GetMarkings(ctx context.Context, month string) ([]db.OvertimeMarking, error)
	GetAllocationRuns(ctx context.Context, month string) ([]db.AllocationRun, error)
}

// ViewScores recomputes every rostered staff member's score from the month's stored markings
func ViewScores(
	ctx context.Context,
	store ViewScoresStore,
	cfg *config.Config,
	logger *zap.Logger,
	month string,
) (*ViewScoresResult, error) {
	logger.Debug("Starting viewScores", zap.String("month", month))

	roster, err := loadMonthRoster(ctx, store, cfg, logger, month)
	if err != nil {
		return nil, err
	}
	if len(roster.Roster) == 0 {
		return nil, fmt.Errorf("no staff on base shift %q in %s", cfg.QualifyingBaseShift, month)
	}

	logger.Debug("Fetching markings")
	markings, err := store.GetMarkings(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch markings: %w", err)
	}
	existing, err := convertToExistingMarkings(markings)
	if err != nil {
		return nil, err
	}

	logger.Debug("Fetching allocation runs")
	runs, err := store.GetAllocationRuns(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch allocation runs: %w", err)
	}

	states, stats, err := allocator.ComputeScores(allocator.Config{
		Roster:        roster.Roster,
		Existing:      existing,
		Options:       cfg.AllocatorOptions(),
		WorkDayCounts: roster.WorkDays,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute scores: %w", err)
	}

	scores := make([]StaffScore, 0, len(states))
	for i := range states {
		state := &states[i]
		counts := make(map[model.ShiftType]int, len(model.AllShiftTypes))
		for _, shiftType := range model.AllShiftTypes {
			counts[shiftType] = state.CountOf(shiftType)
		}
		scores = append(scores, StaffScore{
			Staff:        state.Staff,
			WorkDays:     state.WorkDays,
			BaseScore:    state.BaseScore,
			CurrentScore: state.CurrentScore,
			Counts:       counts,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].CurrentScore != scores[j].CurrentScore {
			return scores[i].CurrentScore > scores[j].CurrentScore
		}
		return scores[i].Staff.ID < scores[j].Staff.ID
	})

	result := &ViewScoresResult{
		Month:        month,
		Scores:       scores,
		Statistics:   stats,
		MarkingCount: len(markings),
	}
	if len(runs) > 0 {
		result.LastRun = &runs[len(runs)-1]
	}

	logger.Debug("Computed scores",
		zap.Int("staff", len(scores)),
		zap.Float64("range", stats.Range),
		zap.Float64("mean_abs_deviation", stats.MeanAbsDeviation))

	return result, nil
}
