package allocator

import (
	"context"
	"math/rand"
	"runtime"

	"go.uber.org/zap"

	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

const (
	DefaultShuffleMaxAttempts         = 10000
	DefaultShuffleMaxRange            = 3.0
	DefaultShuffleMaxMeanAbsDeviation = 1.5
	DefaultShuffleCheckEvery          = 100
)

// ShuffleOptions configure the random-shuffle fallback
type ShuffleOptions struct {
	// MaxAttempts caps the number of shuffles tried
	MaxAttempts int

	// MaxRange and MaxMeanAbsDeviation are the acceptance thresholds
	MaxRange            float64
	MaxMeanAbsDeviation float64

	// CheckEvery is how many attempts run between cancellation checks
	CheckEvery int

	// Seed makes the shuffle reproducible
	Seed int64
}

func (o ShuffleOptions) withDefaults() ShuffleOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultShuffleMaxAttempts
	}
	if o.MaxRange <= 0 {
		o.MaxRange = DefaultShuffleMaxRange
	}
	if o.MaxMeanAbsDeviation <= 0 {
		o.MaxMeanAbsDeviation = DefaultShuffleMaxMeanAbsDeviation
	}
	if o.CheckEvery <= 0 {
		o.CheckEvery = DefaultShuffleCheckEvery
	}
	return o
}

// ShuffleOutcome is the outcome of the random-shuffle fallback
type ShuffleOutcome struct {
	*Outcome

	// Attempts is the number of shuffles actually run
	Attempts int

	// Accepted is true if an attempt met both balance thresholds.
	// Otherwise Outcome holds the attempt with the lowest max absolute deviation.
	Accepted bool
}

// AllocateShuffle repeatedly assigns every demand to a random valid candidate and keeps
// the first attempt whose score spread is within the thresholds.
// The context is checked every CheckEvery attempts.
func AllocateShuffle(ctx context.Context, config Config, shuffleOpts ShuffleOptions) (*ShuffleOutcome, error) {
	base, roster, err := newAllocator(config)
	if err != nil {
		return nil, err
	}

	opts := shuffleOpts.withDefaults()
	rng := rand.New(rand.NewSource(opts.Seed))

	demands := CollectDemands(base.state, roster)
	base.diagnostics.DemandCount = demands.Total()

	var best *Allocator
	var bestStats ScoreStatistics
	attempts := 0

	for attempts < opts.MaxAttempts {
		if attempts%opts.CheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return base.finishShuffle(best, demands, attempts, false, err), nil
			}
			runtime.Gosched()
		}

		attempt := base.fork()
		attempt.shuffleOnce(rng, demands)
		attempts++

		stats := CalculateScoreStatistics(attempt.state.Scores())
		if stats.IsBalanced(opts.MaxRange, opts.MaxMeanAbsDeviation) {
			base.logger.Info("Shuffle attempt accepted",
				zap.Int("attempt", attempts),
				zap.Float64("range", stats.Range),
				zap.Float64("mean_abs_deviation", stats.MeanAbsDeviation))
			return base.finishShuffle(attempt, demands, attempts, true, nil), nil
		}

		if best == nil || stats.MaxAbsDeviation < bestStats.MaxAbsDeviation {
			best = attempt
			bestStats = stats
		}
	}

	base.logger.Warn("No shuffle attempt met the balance thresholds, keeping the best attempt",
		zap.Int("attempts", attempts),
		zap.Float64("max_range", opts.MaxRange),
		zap.Float64("max_mean_abs_deviation", opts.MaxMeanAbsDeviation),
		zap.Float64("best_max_abs_deviation", bestStats.MaxAbsDeviation))

	return base.finishShuffle(best, demands, attempts, false, nil), nil
}

// shuffleOnce visits each shift type's demands in random order and fills each with a random valid candidate
func (a *Allocator) shuffleOnce(rng *rand.Rand, demands DemandSet) {
	for _, shiftType := range model.AllShiftTypes {
		list := demands[shiftType]
		var open []ShiftDemand

		for _, idx := range rng.Perm(len(list)) {
			demand := list[idx]

			var valid []int
			for _, id := range demand.Eligible {
				if IsCandidateValid(a.state, id, demand, a.criteria) {
					valid = append(valid, id)
				}
			}
			if len(valid) == 0 {
				open = append(open, demand)
				continue
			}

			a.state.commit(valid[rng.Intn(len(valid))], demand.Date, shiftType, false)
			a.diagnostics.NewAssignments++
		}

		a.recordUnfilled(shiftType, open)
	}
}

// fork creates an independent allocator over a copy of the state with quiet logging
func (a *Allocator) fork() *Allocator {
	diagnostics := Diagnostics{
		DemandCount:          a.diagnostics.DemandCount,
		PreseededAssignments: a.diagnostics.PreseededAssignments,
		Unfilled:             []UnfilledDemand{},
		UnfilledCounts:       make(map[model.ShiftType]int, len(model.AllShiftTypes)),
		Rounds:               []RoundReport{},
	}
	for _, shiftType := range model.AllShiftTypes {
		diagnostics.UnfilledCounts[shiftType] = 0
	}

	return &Allocator{
		criteria:    a.criteria,
		state:       a.state.clone(),
		mode:        a.mode,
		logger:      zap.NewNop(),
		diagnostics: diagnostics,
	}
}

// finishShuffle builds the outcome for the chosen attempt, or for the untouched base when none ran
func (a *Allocator) finishShuffle(chosen *Allocator, demands DemandSet, attempts int, accepted bool, cause error) *ShuffleOutcome {
	status := StatusComplete
	if cause != nil {
		status = StatusCancelled
	}

	if chosen == nil {
		chosen = a
		if cause != nil {
			a.recordCancelled(model.AllShiftTypes, demands, nil)
		}
	}
	chosen.logger = a.logger

	return &ShuffleOutcome{
		Outcome:  chosen.buildOutcome(status, cause),
		Attempts: attempts,
		Accepted: accepted,
	}
}

// clone returns a deep copy of the state. Parsed dates are shared as they are never mutated.
func (s *AllocationState) clone() *AllocationState {
	c := &AllocationState{
		Users:      make(map[int]*UserScoreState, len(s.Users)),
		Order:      append([]int{}, s.Order...),
		Options:    s.Options,
		dates:      s.dates,
		slots:      make(map[slotKey]int, len(s.slots)),
		staffDates: make(map[staffDateKey]model.ShiftType, len(s.staffDates)),
	}
	for id, u := range s.Users {
		copied := *u
		copied.Allocations = append([]Allocation{}, u.Allocations...)
		c.Users[id] = &copied
	}
	for k, v := range s.slots {
		c.slots[k] = v
	}
	for k, v := range s.staffDates {
		c.staffDates[k] = v
	}
	return c
}
