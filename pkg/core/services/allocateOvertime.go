package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/ward-overtime/internal/config"
	"github.com/jakechorley/ward-overtime/pkg/core/allocator"
	"github.com/jakechorley/ward-overtime/pkg/core/model"
	"github.com/jakechorley/ward-overtime/pkg/db"
)

// Strategy selects the allocation algorithm
type Strategy string

const (
	StrategyRoundRobin Strategy = "round-robin"
	StrategyShuffle    Strategy = "shuffle"
)

// IsValid reports whether the strategy is known
func (s Strategy) IsValid() bool {
	return s == StrategyRoundRobin || s == StrategyShuffle
}

// AllocateOvertimeParams select the month and how it is allocated
type AllocateOvertimeParams struct {
	// Month in "2006-01" format
	Month string

	// Partial keeps the month's existing markings and only fills open slots
	Partial bool

	// Strategy defaults to StrategyRoundRobin
	Strategy Strategy

	// DryRun skips saving
	DryRun bool

	// ForceCommit saves even if final validation fails
	ForceCommit bool
}

// AllocateOvertimeResult contains the allocation results
type AllocateOvertimeResult struct {
	RunID    string
	Month    string
	Mode     allocator.Mode
	Strategy Strategy

	Roster      []allocator.RosterDay
	ClosedDates map[string]string

	// Staff keyed by ID for display
	Staff map[int]model.Staff

	Outcome *allocator.Outcome

	// ShuffleAttempts and ShuffleAccepted are only set for StrategyShuffle
	ShuffleAttempts int
	ShuffleAccepted bool

	// Saved is true if the run and its markings were written to the database
	Saved bool
}

// Success indicates the run completed without validation errors
func (r *AllocateOvertimeResult) Success() bool {
	return r.Outcome != nil && r.Outcome.Success
}

// AllocateOvertimeStore defines the database operations needed for allocating a month
type AllocateOvertimeStore interface {
	RosterStore
	GetMarkings(ctx context.Context, month string) ([]db.OvertimeMarking, error)
	SaveAllocation(ctx context.Context, run *db.AllocationRun, markings []db.OvertimeMarking, replaceMonth bool) error
}

// AllocateOvertime runs the allocation for a month and records the result.
// In full mode the month's markings are replaced. In partial mode existing markings are
// kept and only new ones are appended.
// If DryRun is true, nothing is saved. If ForceCommit is true, the result is saved even
// if validation fails. A cancelled run is never saved.
func AllocateOvertime(
	ctx context.Context,
	store AllocateOvertimeStore,
	cfg *config.Config,
	logger *zap.Logger,
	params AllocateOvertimeParams,
) (*AllocateOvertimeResult, error) {
	strategy := params.Strategy
	if strategy == "" {
		strategy = StrategyRoundRobin
	}
	if !strategy.IsValid() {
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
	mode := allocator.ModeFull
	if params.Partial {
		mode = allocator.ModePartial
	}

	logger.Debug("Starting allocateOvertime",
		zap.String("month", params.Month),
		zap.String("mode", string(mode)),
		zap.String("strategy", string(strategy)),
		zap.Bool("dry_run", params.DryRun),
		zap.Bool("force_commit", params.ForceCommit))

	// Step 1: Build the roster
	roster, err := loadMonthRoster(ctx, store, cfg, logger, params.Month)
	if err != nil {
		return nil, err
	}
	if len(roster.Roster) == 0 {
		return nil, fmt.Errorf("no staff on base shift %q in %s", cfg.QualifyingBaseShift, params.Month)
	}

	// Step 2: Load existing markings to seed a partial run
	var existing allocator.ExistingMarkings
	if mode == allocator.ModePartial {
		logger.Debug("Fetching existing markings")
		markings, err := store.GetMarkings(ctx, params.Month)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch markings: %w", err)
		}
		existing, err = convertToExistingMarkings(markings)
		if err != nil {
			return nil, err
		}
		logger.Debug("Loaded existing markings", zap.Int("count", len(markings)))
	}

	allocConfig := allocator.Config{
		Roster:        roster.Roster,
		Mode:          mode,
		Existing:      existing,
		Options:       cfg.AllocatorOptions(),
		WorkDayCounts: roster.WorkDays,
		Logger:        logger,
	}

	result := &AllocateOvertimeResult{
		Month:       params.Month,
		Mode:        mode,
		Strategy:    strategy,
		Roster:      roster.Roster,
		ClosedDates: roster.ClosedDates,
		Staff:       roster.Staff,
	}

	// Step 3: Run the allocation
	logger.Info("Running allocation",
		zap.String("month", params.Month),
		zap.Int("roster_days", len(roster.Roster)))

	switch strategy {
	case StrategyShuffle:
		shuffled, err := allocator.AllocateShuffle(ctx, allocConfig, cfg.ShuffleOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to run shuffle allocation: %w", err)
		}
		result.Outcome = shuffled.Outcome
		result.ShuffleAttempts = shuffled.Attempts
		result.ShuffleAccepted = shuffled.Accepted
	default:
		outcome, err := allocator.Allocate(ctx, allocConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to run allocation: %w", err)
		}
		result.Outcome = outcome
	}

	outcome := result.Outcome
	logger.Info("Allocation complete",
		zap.String("status", string(outcome.Status)),
		zap.Bool("success", outcome.Success),
		zap.Int("new_assignments", outcome.Diagnostics.NewAssignments),
		zap.Int("unfilled", outcome.Diagnostics.TotalUnfilled()),
		zap.Int("validation_errors", len(outcome.ValidationErrors)))

	for _, verr := range outcome.ValidationErrors {
		logger.Warn("Validation error",
			zap.String("criterion", verr.CriterionName),
			zap.String("date", verr.Date),
			zap.Int("staff_id", verr.StaffID),
			zap.String("shift_type", verr.ShiftType),
			zap.String("description", verr.Description))
	}

	// Step 4: Save
	if !outcome.Complete() {
		logger.Warn("Allocation cancelled - not saving to database", zap.Error(outcome.Cause))
		return result, nil
	}

	shouldSave := !params.DryRun && (outcome.Success || params.ForceCommit)

	if shouldSave {
		logger.Info("Saving allocation to database",
			zap.Bool("success", outcome.Success),
			zap.Bool("forced", params.ForceCommit && !outcome.Success))

		result.RunID = uuid.New().String()
		run := buildAllocationRun(result)
		markings := convertToDBMarkings(result.RunID, outcome.State.UserStates())

		if err := store.SaveAllocation(ctx, run, markings, mode == allocator.ModeFull); err != nil {
			return nil, fmt.Errorf("failed to save allocation: %w", err)
		}
		result.Saved = true
		logger.Info("Saved allocation", zap.String("run_id", result.RunID), zap.Int("markings", len(markings)))
	} else if params.DryRun {
		logger.Info("Dry run mode - allocation not saved")
	} else {
		logger.Warn("Allocation unsuccessful - not saving to database (use forceCommit to save anyway)")
	}

	return result, nil
}

// buildAllocationRun summarises a completed run for the allocation history
func buildAllocationRun(result *AllocateOvertimeResult) *db.AllocationRun {
	diagnostics := result.Outcome.Diagnostics
	return &db.AllocationRun{
		ID:               result.RunID,
		Month:            result.Month,
		Mode:             string(result.Mode),
		Strategy:         string(result.Strategy),
		Success:          result.Outcome.Success,
		Assigned:         diagnostics.NewAssignments,
		Preseeded:        diagnostics.PreseededAssignments,
		Unfilled:         diagnostics.TotalUnfilled(),
		ScoreRange:       diagnostics.Statistics.Range,
		MeanAbsDeviation: diagnostics.Statistics.MeanAbsDeviation,
	}
}
