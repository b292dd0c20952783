package allocator

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

// UnfilledReason explains why a demand was left open
type UnfilledReason string

const (
	// ReasonNoCandidates means nobody on the roster was eligible for the slot
	ReasonNoCandidates UnfilledReason = "no-candidates"

	// ReasonDateConflict means every eligible candidate already held a shift that date
	ReasonDateConflict UnfilledReason = "date-conflict"

	// ReasonIntervalExhausted means every free candidate was too close to a previous A or B
	ReasonIntervalExhausted UnfilledReason = "interval-exhausted"

	// ReasonConstraint means free candidates were rejected by a custom criterion
	ReasonConstraint UnfilledReason = "constraint"

	// ReasonGated means valid candidates remained but taking the slot would push them above zero
	ReasonGated UnfilledReason = "gated"

	// ReasonCancelled means the run stopped before the slot was considered
	ReasonCancelled UnfilledReason = "cancelled"
)

// UnfilledDemand is a slot the run could not fill
type UnfilledDemand struct {
	Date      string
	ShiftType model.ShiftType
	Reason    UnfilledReason
}

// GatedCandidate is a candidate excluded by the fairness gate in a round
type GatedCandidate struct {
	StaffID int
	Score   float64
}

// RoundAssignment is one slot granted in a round
type RoundAssignment struct {
	StaffID int
	Date    string

	// ScoreBefore is the staff member's score when the round started
	ScoreBefore float64
}

// RoundReport records one pass over the remaining demands of a shift type
type RoundReport struct {
	ShiftType model.ShiftType
	Round     int

	// Gated is true when the fairness gate applied to at least one candidate
	Gated bool

	// Relaxed is true for ungated rounds run under UnfilledRelaxGate
	Relaxed bool

	// Considered lists the candidates in the order they were offered slots
	Considered []int

	GatedOut []GatedCandidate
	Assigned []RoundAssignment

	// Remaining is the number of demands still open after the round
	Remaining int
}

// allocateShiftType fills the demands of one shift type round by round.
//
// Round 1 offers slots to every candidate. Later rounds only offer slots to
// candidates whose score would stay at or below zero after taking one. In partial
// mode a staff member who already holds a pre-seeded marking of the type is gated from
// round 1, since that marking stands in for their opening-round slot. Everyone else
// gets an open first round as in full mode.
//
// Returns the demands left unfilled and ctx.Err() if the run was cancelled.
func (a *Allocator) allocateShiftType(ctx context.Context, shiftType model.ShiftType, demands []ShiftDemand) ([]ShiftDemand, error) {
	remaining := append([]ShiftDemand{}, demands...)
	if len(remaining) == 0 {
		return remaining, nil
	}

	universe := candidateUniverse(remaining)
	points := a.state.Options.ScoreTable.Score(shiftType)
	var seeded map[int]bool
	if a.mode == ModePartial {
		seeded = a.preseededHolders(shiftType)
	}
	relaxed := false
	assignedCount := 0

	for round := 1; len(remaining) > 0; round++ {
		if err := ctx.Err(); err != nil {
			return remaining, err
		}

		gated := !relaxed && (round >= 2 || len(seeded) > 0)
		gateFor := func(id int) bool {
			return !relaxed && (round >= 2 || seeded[id])
		}
		candidates, gatedOut := a.rankCandidates(universe, points, gateFor)

		report := RoundReport{
			ShiftType:  shiftType,
			Round:      round,
			Gated:      gated,
			Relaxed:    relaxed,
			Considered: candidates,
			GatedOut:   gatedOut,
			Assigned:   []RoundAssignment{},
		}

		used := make(map[int]bool, len(candidates))
		next := make([]ShiftDemand, 0, len(remaining))

		// Walk every open demand once, offering it to the best unused candidate
		for _, demand := range remaining {
			staffID, ok := a.pickCandidate(candidates, used, demand)
			if !ok {
				next = append(next, demand)
				continue
			}

			report.Assigned = append(report.Assigned, RoundAssignment{
				StaffID:     staffID,
				Date:        demand.Date,
				ScoreBefore: a.state.Score(staffID),
			})
			a.state.commit(staffID, demand.Date, shiftType, false)
			used[staffID] = true
		}

		report.Remaining = len(next)
		a.diagnostics.Rounds = append(a.diagnostics.Rounds, report)
		a.diagnostics.NewAssignments += len(report.Assigned)
		assignedCount += len(report.Assigned)

		a.logger.Debug("Round complete",
			zap.String("shift_type", string(shiftType)),
			zap.Int("round", round),
			zap.Bool("gated", gated),
			zap.Bool("relaxed", relaxed),
			zap.Int("candidates", len(candidates)),
			zap.Int("gated_out", len(gatedOut)),
			zap.Int("assigned", len(report.Assigned)),
			zap.Int("remaining", len(next)))

		// No progress possible under the current filter
		if len(report.Assigned) == 0 {
			if gated && a.state.Options.UnfilledPolicy == UnfilledRelaxGate {
				relaxed = true
				continue
			}
			break
		}

		remaining = next
	}

	a.logger.Info("Allocated shift type",
		zap.String("shift_type", string(shiftType)),
		zap.Int("demands", len(demands)),
		zap.Int("assigned", assignedCount),
		zap.Int("unfilled", len(remaining)))

	return remaining, nil
}

// candidateUniverse returns the union of eligible candidates across demands, in first-seen order
func candidateUniverse(demands []ShiftDemand) []int {
	seen := make(map[int]bool)
	var universe []int
	for _, demand := range demands {
		for _, id := range demand.Eligible {
			if !seen[id] {
				seen[id] = true
				universe = append(universe, id)
			}
		}
	}
	return universe
}

// rankCandidates applies the fairness gate to every candidate gateFor selects and sorts
// survivors by ascending score. Equal scores are ordered by staff ID.
func (a *Allocator) rankCandidates(universe []int, points float64, gateFor func(id int) bool) ([]int, []GatedCandidate) {
	candidates := make([]int, 0, len(universe))
	gatedOut := []GatedCandidate{}

	for _, id := range universe {
		score := a.state.Score(id)
		if gateFor(id) && score+points > 0 {
			gatedOut = append(gatedOut, GatedCandidate{StaffID: id, Score: score})
			continue
		}
		candidates = append(candidates, id)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := a.state.Score(candidates[i]), a.state.Score(candidates[j])
		if si != sj {
			return si < sj
		}
		return candidates[i] < candidates[j]
	})

	return candidates, gatedOut
}

// pickCandidate returns the first unused candidate, in ranked order, who may take the demand
func (a *Allocator) pickCandidate(candidates []int, used map[int]bool, demand ShiftDemand) (int, bool) {
	for _, id := range candidates {
		if used[id] {
			continue
		}
		if IsCandidateValid(a.state, id, demand, a.criteria) {
			return id, true
		}
	}
	return 0, false
}

// preseededHolders returns the staff holding a pre-seeded marking of the shift type
func (a *Allocator) preseededHolders(shiftType model.ShiftType) map[int]bool {
	holders := make(map[int]bool)
	for _, id := range a.state.Order {
		for _, alloc := range a.state.Users[id].Allocations {
			if alloc.Preseeded && alloc.ShiftType == shiftType {
				holders[id] = true
				break
			}
		}
	}
	return holders
}

// recordUnfilled classifies and records the demands a shift type left open
func (a *Allocator) recordUnfilled(shiftType model.ShiftType, remaining []ShiftDemand) {
	if len(remaining) == 0 {
		return
	}

	for _, demand := range remaining {
		reason := a.classifyUnfilled(demand)
		a.diagnostics.Unfilled = append(a.diagnostics.Unfilled, UnfilledDemand{
			Date:      demand.Date,
			ShiftType: shiftType,
			Reason:    reason,
		})
		a.logger.Debug("Demand unfilled",
			zap.String("date", demand.Date),
			zap.String("shift_type", string(shiftType)),
			zap.String("reason", string(reason)))
	}
	a.diagnostics.UnfilledCounts[shiftType] += len(remaining)

	a.logger.Warn("Shift type has unfilled demands",
		zap.String("shift_type", string(shiftType)),
		zap.Int("unfilled", len(remaining)))
}

// recordCancelled records open demands of the interrupted type and all untouched types
func (a *Allocator) recordCancelled(untouched []model.ShiftType, demands DemandSet, interrupted []ShiftDemand) {
	for _, demand := range interrupted {
		a.diagnostics.Unfilled = append(a.diagnostics.Unfilled, UnfilledDemand{
			Date:      demand.Date,
			ShiftType: demand.ShiftType,
			Reason:    ReasonCancelled,
		})
		a.diagnostics.UnfilledCounts[demand.ShiftType]++
	}

	for _, shiftType := range untouched {
		for _, demand := range demands[shiftType] {
			a.diagnostics.Unfilled = append(a.diagnostics.Unfilled, UnfilledDemand{
				Date:      demand.Date,
				ShiftType: shiftType,
				Reason:    ReasonCancelled,
			})
		}
		a.diagnostics.UnfilledCounts[shiftType] += len(demands[shiftType])
	}
}

// classifyUnfilled works out which rule blocked a demand once its rounds have stopped
func (a *Allocator) classifyUnfilled(demand ShiftDemand) UnfilledReason {
	if len(demand.Eligible) == 0 {
		return ReasonNoCandidates
	}

	var free []int
	for _, id := range demand.Eligible {
		if _, busy := a.state.ShiftOn(id, demand.Date); !busy {
			free = append(free, id)
		}
	}
	if len(free) == 0 {
		return ReasonDateConflict
	}

	intervalBlocked := false
	for _, id := range free {
		if IsCandidateValid(a.state, id, demand, a.criteria) {
			return ReasonGated
		}
		if !IntervalOK(a.state, id, demand.ShiftType, demand.Date, a.state.Options.MinIntervalDays) {
			intervalBlocked = true
		}
	}

	if intervalBlocked {
		return ReasonIntervalExhausted
	}
	return ReasonConstraint
}
