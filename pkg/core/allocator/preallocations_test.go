package allocator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

func TestPartial_SeededSlotIsKeptAndNotReemitted(t *testing.T) {
	config := fiveStaffScenario(t)
	config.Mode = ModePartial
	config.Existing = ExistingMarkings{
		"2024-05-02": {5: model.ShiftA},
	}

	// Demand Collector must skip the seeded slot
	state, roster, err := InitAllocation(config)
	require.NoError(t, err)
	demands := CollectDemands(state, roster)
	for _, d := range demands[model.ShiftA] {
		assert.NotEqual(t, "2024-05-02", d.Date, "seeded (2024-05-02, A) must not be re-emitted")
	}
	assert.Len(t, demands[model.ShiftA], 26)
	assert.Len(t, demands[model.ShiftB], 27)

	outcome, err := Allocate(context.Background(), config)
	require.NoError(t, err)

	holder, ok := outcome.Result.HolderOf("2024-05-02", model.ShiftA)
	require.True(t, ok)
	assert.Equal(t, 5, holder)
	assert.Equal(t, 1, outcome.Diagnostics.PreseededAssignments)
	assert.Equal(t, 161, outcome.Diagnostics.DemandCount)

	// The seeded marking is the first allocation for staff 5 and is flagged
	first := outcome.State.Users[5].Allocations[0]
	assert.Equal(t, Allocation{Date: "2024-05-02", ShiftType: model.ShiftA, Preseeded: true}, first)

	requireResultInvariants(t, outcome, staffIndex(config.Roster), DefaultMinIntervalDays)
}

func TestPartial_SeedScoresArePreApplied(t *testing.T) {
	config := fiveStaffScenario(t)
	config.Mode = ModePartial
	config.Existing = ExistingMarkings{
		"2024-05-02": {5: model.ShiftA, 6: model.ShiftC},
	}

	state, _, err := InitAllocation(config)
	require.NoError(t, err)

	assert.InDelta(t, state.Users[5].BaseScore+2.0, state.Users[5].CurrentScore, 1e-9)
	assert.InDelta(t, state.Users[6].BaseScore+0.8, state.Users[6].CurrentScore, 1e-9)
	assert.InDelta(t, state.Users[7].BaseScore, state.Users[7].CurrentScore, 1e-9)

	shiftType, busy := state.ShiftOn(6, "2024-05-02")
	assert.True(t, busy)
	assert.Equal(t, model.ShiftC, shiftType)
}

func TestPartial_FullResultFedBackIsIdempotent(t *testing.T) {
	full, err := Allocate(context.Background(), fiveStaffScenario(t))
	require.NoError(t, err)
	require.True(t, full.Complete())

	config := fiveStaffScenario(t)
	config.Mode = ModePartial
	config.Existing = full.Result.AsExisting()

	partial, err := Allocate(context.Background(), config)
	require.NoError(t, err)

	assert.Zero(t, partial.Diagnostics.NewAssignments)
	assert.Equal(t, full.Result, partial.Result)
	assert.Equal(t, full.Result.Count(), partial.Diagnostics.PreseededAssignments)

	fullScores := full.State.Scores()
	partialScores := partial.State.Scores()
	require.Len(t, partialScores, len(fullScores))
	for i := range fullScores {
		assert.InDelta(t, fullScores[i], partialScores[i], 1e-9)
	}
}

func TestPartial_RelaxGateIsIdempotent(t *testing.T) {
	config := fiveStaffScenario(t)
	config.Options.UnfilledPolicy = UnfilledRelaxGate

	full, err := Allocate(context.Background(), config)
	require.NoError(t, err)

	config.Mode = ModePartial
	config.Existing = full.Result.AsExisting()

	partial, err := Allocate(context.Background(), config)
	require.NoError(t, err)

	assert.Zero(t, partial.Diagnostics.NewAssignments)
	assert.Equal(t, full.Result, partial.Result)
}

func TestPartial_SeededTypeStartsGated(t *testing.T) {
	config := fiveStaffScenario(t)
	config.Mode = ModePartial
	config.Existing = ExistingMarkings{
		"2024-05-02": {5: model.ShiftA},
	}

	outcome, err := Allocate(context.Background(), config)
	require.NoError(t, err)

	for _, report := range outcome.Diagnostics.Rounds {
		switch report.ShiftType {
		case model.ShiftA:
			assert.True(t, report.Gated, "staff 5 holds a seeded A so the gate applies from round 1")
		case model.ShiftB:
			if report.Round == 1 {
				assert.False(t, report.Gated, "B has no seeded marking so its first round is open")
			}
		}
	}
}

func TestPartial_SeedViolationsAreReportedNotFatal(t *testing.T) {
	config := Config{
		Roster: rosterFor(monthDates(t, "2024-05"),
			model.Staff{ID: 1, Name: "Ola", Role: model.RoleRegularSpecialist},
			model.Staff{ID: 2, Name: "Lead", Role: model.RoleLeader},
		),
		Mode: ModePartial,
		Existing: ExistingMarkings{
			"2024-05-06": {1: model.ShiftA, 2: model.ShiftB}, // Leader on B
			"2024-05-08": {1: model.ShiftA},                  // 2 days after the previous A
			"2024-05-11": {1: model.ShiftC},                  // C on a Saturday
		},
	}

	outcome, err := Allocate(context.Background(), config)
	require.NoError(t, err)
	assert.True(t, outcome.Complete())
	assert.False(t, outcome.Success)

	names := make(map[string]int)
	for _, verr := range outcome.ValidationErrors {
		names[verr.CriterionName]++
	}
	assert.Equal(t, 1, names["Role"])
	assert.Equal(t, 1, names["Interval"])
	assert.Equal(t, 1, names["Calendar"])
	assert.Zero(t, names["Uniqueness"])
}

func TestPartial_SeedOnlyGatesItsHolder(t *testing.T) {
	roster := []RosterDay{
		{Date: "2024-05-06", Staff: []model.Staff{{ID: 1, Name: "Ola", Role: model.RoleRegularSpecialist}}},
		{Date: "2024-05-13", Staff: []model.Staff{{ID: 4, Name: "Dee", Role: model.RoleRegularSpecialist}}},
	}
	workDays := map[int]int{1: 100, 4: 3}

	full, err := Allocate(context.Background(), Config{Roster: roster, Mode: ModeFull, WorkDayCounts: workDays})
	require.NoError(t, err)
	holder, ok := full.Result.HolderOf("2024-05-13", model.ShiftA)
	require.True(t, ok)
	require.Equal(t, 4, holder)

	// Staff 1's seeded A must not close round 1 to staff 4, who holds no A
	partial, err := Allocate(context.Background(), Config{
		Roster:        roster,
		Mode:          ModePartial,
		Existing:      ExistingMarkings{"2024-05-06": {1: model.ShiftA}},
		WorkDayCounts: workDays,
	})
	require.NoError(t, err)

	holder, ok = partial.Result.HolderOf("2024-05-13", model.ShiftA)
	require.True(t, ok)
	assert.Equal(t, 4, holder)
	assert.Zero(t, partial.Diagnostics.UnfilledCounts[model.ShiftA])
	assert.Equal(t, full.Result, partial.Result)

	for _, report := range partial.Diagnostics.Rounds {
		if report.ShiftType == model.ShiftA && report.Round == 1 {
			assert.Empty(t, report.GatedOut)
		}
	}
}

func TestPartial_SeededHolderIsGatedFromRoundOne(t *testing.T) {
	roster := []RosterDay{
		{Date: "2024-05-06", Staff: []model.Staff{{ID: 4, Name: "Dee", Role: model.RoleRegularSpecialist}}},
		{Date: "2024-05-20", Staff: []model.Staff{
			{ID: 4, Name: "Dee", Role: model.RoleRegularSpecialist},
			{ID: 8, Name: "Hal", Role: model.RoleRegularSpecialist},
		}},
	}

	outcome, err := Allocate(context.Background(), Config{
		Roster:        roster,
		Mode:          ModePartial,
		Existing:      ExistingMarkings{"2024-05-06": {4: model.ShiftA}},
		WorkDayCounts: map[int]int{4: 3, 8: 3},
	})
	require.NoError(t, err)

	holder, ok := outcome.Result.HolderOf("2024-05-20", model.ShiftA)
	require.True(t, ok)
	assert.Equal(t, 8, holder, "staff 4 would pass zero with a second A, staff 8 takes the open round")

	var first *RoundReport
	for i, report := range outcome.Diagnostics.Rounds {
		if report.ShiftType == model.ShiftA && report.Round == 1 {
			first = &outcome.Diagnostics.Rounds[i]
		}
	}
	require.NotNil(t, first)
	assert.True(t, first.Gated)
	require.Len(t, first.GatedOut, 1)
	assert.Equal(t, 4, first.GatedOut[0].StaffID)
	assert.Equal(t, []int{8}, first.Considered)
}
