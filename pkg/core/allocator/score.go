package allocator

import (
	"fmt"
	"math"

	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

const (
	// DefaultMinIntervalDays is the minimum spacing between two A (or two B) shifts for one staff member
	DefaultMinIntervalDays = 7

	// NoMinInterval turns the A/B spacing rule off. Zero cannot, since it selects the default.
	NoMinInterval = -1

	// DefaultNoOvertimePenalty is the per-expected-attendance-day score deficit
	DefaultNoOvertimePenalty = -0.365
)

// ScoreTable maps each shift type to its point value
type ScoreTable map[model.ShiftType]float64

// DefaultScoreTable returns the standard shift point values
func DefaultScoreTable() ScoreTable {
	return ScoreTable{
		model.ShiftA: 2.0,
		model.ShiftB: 1.0,
		model.ShiftC: 0.8,
		model.ShiftD: 0.3,
		model.ShiftE: 0.0,
		model.ShiftF: 0.0,
	}
}

// Score returns the point value of a shift type. Unknown codes score 0.
func (t ScoreTable) Score(shiftType model.ShiftType) float64 {
	return t[shiftType]
}

// AttendanceRates holds the four heuristic attendance buckets keyed by staff ID mod 4
type AttendanceRates [4]float64

// DefaultAttendanceRates returns the standard simulated attendance buckets
func DefaultAttendanceRates() AttendanceRates {
	return AttendanceRates{0.90, 0.95, 0.70, 0.85}
}

// RateFor returns the attendance rate bucket for a staff ID
func (r AttendanceRates) RateFor(staffID int) float64 {
	bucket := staffID % 4
	if bucket < 0 {
		bucket += 4
	}
	return r[bucket]
}

// BaseScore returns the starting fairness score for a staff member:
// floor(workDays * attendanceRate) * penalty
func BaseScore(staff model.Staff, workDays int, rates AttendanceRates, penalty float64) float64 {
	expectedDays := math.Floor(float64(workDays) * rates.RateFor(staff.ID))
	return expectedDays * penalty
}

// UnfilledPolicy controls what happens when gated rounds stop with demands left
type UnfilledPolicy string

const (
	// UnfilledLeave leaves remaining demands unfilled and reports them
	UnfilledLeave UnfilledPolicy = "leave"

	// UnfilledRelaxGate keeps running ungated rounds until no further progress is possible
	UnfilledRelaxGate UnfilledPolicy = "relax-gate"
)

// Options are the tunable parameters of an allocation run
type Options struct {
	// MinIntervalDays is the A/B spacing in days: 0 uses DefaultMinIntervalDays, NoMinInterval disables it
	MinIntervalDays   int
	NoOvertimePenalty float64
	ScoreTable        ScoreTable
	AttendanceRates   AttendanceRates
	UnfilledPolicy    UnfilledPolicy
}

// DefaultOptions returns the standard allocation options
func DefaultOptions() Options {
	return Options{
		MinIntervalDays:   DefaultMinIntervalDays,
		NoOvertimePenalty: DefaultNoOvertimePenalty,
		ScoreTable:        DefaultScoreTable(),
		AttendanceRates:   DefaultAttendanceRates(),
		UnfilledPolicy:    UnfilledLeave,
	}
}

// withDefaults fills zero-valued fields with their defaults
func (o Options) withDefaults() Options {
	switch o.MinIntervalDays {
	case 0:
		o.MinIntervalDays = DefaultMinIntervalDays
	case NoMinInterval:
		o.MinIntervalDays = 0
	}
	if o.NoOvertimePenalty == 0 {
		o.NoOvertimePenalty = DefaultNoOvertimePenalty
	}
	if o.ScoreTable == nil {
		o.ScoreTable = DefaultScoreTable()
	}
	if o.AttendanceRates == (AttendanceRates{}) {
		o.AttendanceRates = DefaultAttendanceRates()
	}
	if o.UnfilledPolicy == "" {
		o.UnfilledPolicy = UnfilledLeave
	}
	return o
}

func (o Options) validate() error {
	if o.MinIntervalDays < 0 {
		return &InputError{Field: "MinIntervalDays", Reason: fmt.Sprintf("must be positive or NoMinInterval, got %d", o.MinIntervalDays)}
	}
	if o.NoOvertimePenalty > 0 {
		return &InputError{Field: "NoOvertimePenalty", Reason: fmt.Sprintf("must be negative, got %v", o.NoOvertimePenalty)}
	}
	for shiftType := range o.ScoreTable {
		if !shiftType.IsValid() {
			return &InputError{Field: "ScoreTable", Reason: fmt.Sprintf("unknown shift type %q", shiftType)}
		}
	}
	for i, rate := range o.AttendanceRates {
		if rate < 0 || rate > 1 {
			return &InputError{Field: "AttendanceRates", Reason: fmt.Sprintf("bucket %d rate %v is outside [0, 1]", i, rate)}
		}
	}
	if o.UnfilledPolicy != UnfilledLeave && o.UnfilledPolicy != UnfilledRelaxGate {
		return &InputError{Field: "UnfilledPolicy", Reason: fmt.Sprintf("unknown policy %q", o.UnfilledPolicy)}
	}
	return nil
}

// ComputeScores rebuilds every staff member's score from a roster and committed markings
// without allocating anything. config.Existing holds the markings; Mode is ignored.
func ComputeScores(config Config) ([]UserScoreState, ScoreStatistics, error) {
	config.Mode = ModePartial
	state, _, err := InitAllocation(config)
	if err != nil {
		return nil, ScoreStatistics{}, err
	}
	return state.UserStates(), CalculateScoreStatistics(state.Scores()), nil
}
