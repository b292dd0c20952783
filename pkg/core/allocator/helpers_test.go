package allocator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

// weekdaysFrom returns n consecutive Monday-Friday dates starting at start (inclusive)
func weekdaysFrom(t *testing.T, start string, n int) []string {
	t.Helper()
	d, err := time.Parse(model.DateLayout, start)
	require.NoError(t, err)

	dates := make([]string, 0, n)
	for len(dates) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			dates = append(dates, d.Format(model.DateLayout))
		}
		d = d.AddDate(0, 0, 1)
	}
	return dates
}

// monthDates returns every date of a month as strings
func monthDates(t *testing.T, month string) []string {
	t.Helper()
	dates, err := model.MonthDates(month)
	require.NoError(t, err)

	result := make([]string, len(dates))
	for i, d := range dates {
		result[i] = d.Format(model.DateLayout)
	}
	return result
}

// rosterFor puts the same staff on every date
func rosterFor(dates []string, staff ...model.Staff) []RosterDay {
	roster := make([]RosterDay, len(dates))
	for i, date := range dates {
		roster[i] = RosterDay{Date: date, Staff: staff}
	}
	return roster
}

// specialists returns RegularSpecialist staff with IDs from..to inclusive
func specialists(from, to int) []model.Staff {
	var staff []model.Staff
	for id := from; id <= to; id++ {
		staff = append(staff, model.Staff{ID: id, Name: "Staff " + string(rune('A'+id%26)), Role: model.RoleRegularSpecialist})
	}
	return staff
}

// fiveStaffScenario is five specialists (IDs 5-9) on 27 consecutive weekdays from 2024-05-01
func fiveStaffScenario(t *testing.T) Config {
	t.Helper()
	return Config{
		Roster: rosterFor(weekdaysFrom(t, "2024-05-01", 27), specialists(5, 9)...),
		Mode:   ModeFull,
	}
}

func weekdayOf(t *testing.T, date string) time.Weekday {
	t.Helper()
	d, err := time.Parse(model.DateLayout, date)
	require.NoError(t, err)
	return d.Weekday()
}

func daysApart(t *testing.T, a, b string) int {
	t.Helper()
	ta, err := time.Parse(model.DateLayout, a)
	require.NoError(t, err)
	tb, err := time.Parse(model.DateLayout, b)
	require.NoError(t, err)
	days := int(tb.Sub(ta).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// requireResultInvariants checks the structural guarantees every result must satisfy
func requireResultInvariants(t *testing.T, outcome *Outcome, staff map[int]model.Staff, minInterval int) {
	t.Helper()

	sameType := make(map[int]map[model.ShiftType][]string)

	for date, byStaff := range outcome.Result {
		weekday := weekdayOf(t, date)
		require.NotEqual(t, time.Sunday, weekday, "no assignments on Sunday %s", date)

		seenTypes := make(map[model.ShiftType]int)
		for staffID, shiftType := range byStaff {
			if prev, dup := seenTypes[shiftType]; dup {
				t.Fatalf("slot %s/%s held by both %d and %d", date, shiftType, prev, staffID)
			}
			seenTypes[shiftType] = staffID

			if weekday == time.Saturday {
				require.Equal(t, model.ShiftA, shiftType, "Saturday %s must only have A", date)
			}

			if s, ok := staff[staffID]; ok && s.IsLeader() {
				require.True(t, shiftType.IsLeaderShift(), "Leader %d holds %s on %s", staffID, shiftType, date)
				require.NotEqual(t, time.Saturday, weekday, "Leader %d on Saturday %s", staffID, date)
			}

			if shiftType == model.ShiftA || shiftType == model.ShiftB {
				if sameType[staffID] == nil {
					sameType[staffID] = make(map[model.ShiftType][]string)
				}
				sameType[staffID][shiftType] = append(sameType[staffID][shiftType], date)
			}
		}
	}

	for staffID, byType := range sameType {
		for shiftType, dates := range byType {
			for i := 0; i < len(dates); i++ {
				for j := i + 1; j < len(dates); j++ {
					gap := daysApart(t, dates[i], dates[j])
					require.GreaterOrEqual(t, gap, minInterval,
						"staff %d holds %s on %s and %s", staffID, shiftType, dates[i], dates[j])
				}
			}
		}
	}
}

func staffIndex(roster []RosterDay) map[int]model.Staff {
	index := make(map[int]model.Staff)
	for _, day := range roster {
		for _, s := range day.Staff {
			index[s.ID] = s
		}
	}
	return index
}
