package allocator

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

// Allocator runs the round-robin allocation over a single state
type Allocator struct {
	criteria    []Criterion
	state       *AllocationState
	mode        Mode
	logger      *zap.Logger
	diagnostics Diagnostics
}

// Config contains the configuration for an allocation run
type Config struct {
	// Roster is the month's qualifying base shift roster
	Roster []RosterDay

	// Mode is ModeFull (default) or ModePartial
	Mode Mode

	// Existing markings to preserve in partial mode
	Existing ExistingMarkings

	// Options tune scoring and spacing. Zero values take defaults.
	Options Options

	// WorkDayCounts overrides the per-staff working-day count derived from the roster
	WorkDayCounts map[int]int

	// Criteria are extra constraints applied on top of DefaultCriteria
	Criteria []Criterion

	// Logger receives progress and diagnostics. Nil discards output.
	Logger *zap.Logger
}

// Status distinguishes a finished run from an aborted one
type Status string

const (
	StatusComplete  Status = "complete"
	StatusCancelled Status = "cancelled"
)

// Outcome represents the result of an allocation run
type Outcome struct {
	// Result is the date -> staff -> shift map, pre-seeded markings included
	Result AllocationResult

	// State is the final working state of the run
	State *AllocationState

	Diagnostics Diagnostics

	// ValidationErrors contains any violations found in the final state
	ValidationErrors []ValidationError

	Status Status

	// Cause holds the context error when the run was cancelled
	Cause error

	// Success indicates the run completed and the final state has no validation errors.
	// Unfilled demands do not affect Success.
	Success bool
}

// Complete returns true if the run was not cancelled
func (o *Outcome) Complete() bool {
	return o.Status == StatusComplete
}

// Diagnostics describes how a run went
type Diagnostics struct {
	// DemandCount is the number of slots the run tried to fill
	DemandCount int

	// NewAssignments made by this run, excluding pre-seeded markings
	NewAssignments int

	PreseededAssignments int

	// Unfilled lists every demand left open, in shift priority then date order
	Unfilled []UnfilledDemand

	// UnfilledCounts per shift type; every shift type has an entry
	UnfilledCounts map[model.ShiftType]int

	// Rounds records every round-robin pass
	Rounds []RoundReport

	// Statistics over final current scores
	Statistics ScoreStatistics
}

// TotalUnfilled returns the number of demands left open
func (d Diagnostics) TotalUnfilled() int {
	return len(d.Unfilled)
}

// Allocate runs the round-robin allocation for every shift type in priority order.
//
// Returns:
//   - The outcome, including a cancelled outcome if ctx is done part way
//   - *InputError if the configuration is invalid (no outcome is produced)
func Allocate(ctx context.Context, config Config) (*Outcome, error) {
	// Initialise allocator
	allocator, roster, err := newAllocator(config)
	if err != nil {
		return nil, err
	}

	demands := CollectDemands(allocator.state, roster)
	allocator.diagnostics.DemandCount = demands.Total()
	allocator.logger.Info("Collected demands",
		zap.String("mode", string(allocator.mode)),
		zap.Int("staff", len(allocator.state.Order)),
		zap.Int("days", len(roster)),
		zap.Int("demands", allocator.diagnostics.DemandCount),
		zap.Int("preseeded", allocator.diagnostics.PreseededAssignments))

	for i, shiftType := range model.AllShiftTypes {
		if err := ctx.Err(); err != nil {
			allocator.recordCancelled(model.AllShiftTypes[i:], demands, nil)
			return allocator.buildOutcome(StatusCancelled, err), nil
		}

		remaining, err := allocator.allocateShiftType(ctx, shiftType, demands[shiftType])
		if err != nil {
			allocator.recordCancelled(model.AllShiftTypes[i+1:], demands, remaining)
			return allocator.buildOutcome(StatusCancelled, err), nil
		}

		allocator.recordUnfilled(shiftType, remaining)
	}

	return allocator.buildOutcome(StatusComplete, nil), nil
}

func newAllocator(config Config) (*Allocator, []RosterDay, error) {
	state, roster, err := InitAllocation(config)
	if err != nil {
		return nil, nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mode := config.Mode
	if mode == "" {
		mode = ModeFull
	}

	criteria := append(DefaultCriteria(state.Options), config.Criteria...)

	allocator := &Allocator{
		criteria: criteria,
		state:    state,
		mode:     mode,
		logger:   logger,
		diagnostics: Diagnostics{
			Unfilled:       []UnfilledDemand{},
			UnfilledCounts: make(map[model.ShiftType]int, len(model.AllShiftTypes)),
			Rounds:         []RoundReport{},
		},
	}
	for _, shiftType := range model.AllShiftTypes {
		allocator.diagnostics.UnfilledCounts[shiftType] = 0
	}
	for _, id := range state.Order {
		allocator.diagnostics.PreseededAssignments += len(state.Users[id].Allocations)
	}

	return allocator, roster, nil
}

// buildOutcome creates the final outcome report
func (a *Allocator) buildOutcome(status Status, cause error) *Outcome {
	a.diagnostics.Statistics = CalculateScoreStatistics(a.state.Scores())

	outcome := &Outcome{
		Result:           AssembleResult(a.state),
		State:            a.state,
		Diagnostics:      a.diagnostics,
		ValidationErrors: ValidateState(a.state, a.criteria),
		Status:           status,
		Cause:            cause,
	}

	// Success if the run finished and no validation errors
	outcome.Success = status == StatusComplete && len(outcome.ValidationErrors) == 0

	stats := a.diagnostics.Statistics
	a.logger.Info("Allocation finished",
		zap.String("status", string(status)),
		zap.Int("new_assignments", a.diagnostics.NewAssignments),
		zap.Int("unfilled", a.diagnostics.TotalUnfilled()),
		zap.Int("validation_errors", len(outcome.ValidationErrors)),
		zap.Float64("min_score", stats.Min),
		zap.Float64("max_score", stats.Max),
		zap.Float64("mean_score", stats.Mean),
		zap.Float64("mean_abs_deviation", stats.MeanAbsDeviation),
		zap.Float64("max_abs_deviation", stats.MaxAbsDeviation))

	if cause != nil {
		a.logger.Warn("Allocation cancelled before completion", zap.Error(cause))
	}

	return outcome
}
