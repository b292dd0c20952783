package allocator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

func TestInitAllocation_SeedsBaseScores(t *testing.T) {
	state, roster, err := InitAllocation(fiveStaffScenario(t))
	require.NoError(t, err)

	assert.Len(t, roster, 27)
	assert.Equal(t, []int{5, 6, 7, 8, 9}, state.Order)

	// floor(27 * rate) * -0.365
	expected := map[int]float64{
		5: 25 * -0.365, // 0.95
		6: 18 * -0.365, // 0.70
		7: 22 * -0.365, // 0.85
		8: 24 * -0.365, // 0.90
		9: 25 * -0.365, // 0.95
	}
	for id, want := range expected {
		user := state.Users[id]
		assert.Equal(t, 27, user.WorkDays)
		assert.InDelta(t, want, user.BaseScore, 1e-9, "staff %d", id)
		assert.Equal(t, user.BaseScore, user.CurrentScore)
		assert.Empty(t, user.Allocations)
	}
}

func TestInitAllocation_WorkDaysCountRosterAppearances(t *testing.T) {
	config := Config{
		Roster: []RosterDay{
			{Date: "2024-05-07", Staff: specialists(1, 2)},
			{Date: "2024-05-06", Staff: specialists(1, 1)},
		},
		WorkDayCounts: map[int]int{2: 10},
	}

	state, roster, err := InitAllocation(config)
	require.NoError(t, err)

	// Roster is sorted by date
	assert.Equal(t, "2024-05-06", roster[0].Date)
	assert.Equal(t, 2, state.Users[1].WorkDays)
	assert.Equal(t, 10, state.Users[2].WorkDays, "explicit count overrides roster appearances")
	assert.Equal(t, []int{1, 2}, state.Order)
}

func TestInitAllocation_AppliesDefaultOptions(t *testing.T) {
	state, _, err := InitAllocation(fiveStaffScenario(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultMinIntervalDays, state.Options.MinIntervalDays)
	assert.Equal(t, DefaultNoOvertimePenalty, state.Options.NoOvertimePenalty)
	assert.Equal(t, DefaultScoreTable(), state.Options.ScoreTable)
	assert.Equal(t, DefaultAttendanceRates(), state.Options.AttendanceRates)
	assert.Equal(t, UnfilledLeave, state.Options.UnfilledPolicy)
}

func TestInitAllocation_InputErrors(t *testing.T) {
	specialist := model.Staff{ID: 1, Name: "Ola", Role: model.RoleRegularSpecialist}

	tests := []struct {
		name   string
		config Config
		field  string
	}{
		{
			name:   "empty roster",
			config: Config{},
			field:  "Roster",
		},
		{
			name:   "roster without staff",
			config: Config{Roster: []RosterDay{{Date: "2024-05-06"}}},
			field:  "Roster",
		},
		{
			name:   "bad date",
			config: Config{Roster: []RosterDay{{Date: "06/05/2024", Staff: []model.Staff{specialist}}}},
			field:  "Roster",
		},
		{
			name: "duplicate date",
			config: Config{Roster: []RosterDay{
				{Date: "2024-05-06", Staff: []model.Staff{specialist}},
				{Date: "2024-05-06", Staff: []model.Staff{specialist}},
			}},
			field: "Roster",
		},
		{
			name:   "staff twice on one day",
			config: Config{Roster: []RosterDay{{Date: "2024-05-06", Staff: []model.Staff{specialist, specialist}}}},
			field:  "Roster",
		},
		{
			name:   "unknown role",
			config: Config{Roster: []RosterDay{{Date: "2024-05-06", Staff: []model.Staff{{ID: 2, Role: "Chef"}}}}},
			field:  "Roster",
		},
		{
			name: "conflicting roles",
			config: Config{Roster: []RosterDay{
				{Date: "2024-05-06", Staff: []model.Staff{specialist}},
				{Date: "2024-05-07", Staff: []model.Staff{{ID: 1, Role: model.RoleLeader}}},
			}},
			field: "Roster",
		},
		{
			name: "existing markings in full mode",
			config: Config{
				Roster:   rosterFor([]string{"2024-05-06"}, specialist),
				Existing: ExistingMarkings{"2024-05-06": {1: model.ShiftA}},
			},
			field: "Existing",
		},
		{
			name: "marking for unknown staff",
			config: Config{
				Roster:   rosterFor([]string{"2024-05-06"}, specialist),
				Mode:     ModePartial,
				Existing: ExistingMarkings{"2024-05-06": {99: model.ShiftA}},
			},
			field: "Existing",
		},
		{
			name: "marking with unknown shift type",
			config: Config{
				Roster:   rosterFor([]string{"2024-05-06"}, specialist),
				Mode:     ModePartial,
				Existing: ExistingMarkings{"2024-05-06": {1: "Z"}},
			},
			field: "Existing",
		},
		{
			name: "slot marked twice",
			config: Config{
				Roster:   rosterFor([]string{"2024-05-06"}, specialists(1, 2)...),
				Mode:     ModePartial,
				Existing: ExistingMarkings{"2024-05-06": {1: model.ShiftA, 2: model.ShiftA}},
			},
			field: "Existing",
		},
		{
			name: "positive penalty",
			config: Config{
				Roster:  rosterFor([]string{"2024-05-06"}, specialist),
				Options: Options{NoOvertimePenalty: 0.5},
			},
			field: "NoOvertimePenalty",
		},
		{
			name: "attendance rate above one",
			config: Config{
				Roster:  rosterFor([]string{"2024-05-06"}, specialist),
				Options: Options{AttendanceRates: AttendanceRates{0.9, 1.5, 0.7, 0.85}},
			},
			field: "AttendanceRates",
		},
		{
			name: "unknown policy",
			config: Config{
				Roster:  rosterFor([]string{"2024-05-06"}, specialist),
				Options: Options{UnfilledPolicy: "retry"},
			},
			field: "UnfilledPolicy",
		},
		{
			name: "negative work day count",
			config: Config{
				Roster:        rosterFor([]string{"2024-05-06"}, specialist),
				WorkDayCounts: map[int]int{1: -1},
			},
			field: "WorkDayCounts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := Allocate(context.Background(), tt.config)
			require.Error(t, err)
			assert.Nil(t, outcome, "input errors produce no result")

			var inputErr *InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.field, inputErr.Field)
		})
	}
}
