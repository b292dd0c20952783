package allocator

import (
	"fmt"
	"sort"
	"time"

	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

// IntervalCriterion keeps repeat A and B shifts apart for the same staff member.
//
// Validity:
//   - Only applies to shift types A and B
//   - Returns false if the staff member already holds the same type within MinIntervalDays of the date
//
// Validation:
//   - Reports any two same-type A or B allocations closer than MinIntervalDays
type IntervalCriterion struct {
	minIntervalDays int
}

// NewIntervalCriterion creates a new IntervalCriterion with the given minimum spacing
func NewIntervalCriterion(minIntervalDays int) *IntervalCriterion {
	return &IntervalCriterion{minIntervalDays: minIntervalDays}
}

func (c *IntervalCriterion) Name() string {
	return "Interval"
}

func (c *IntervalCriterion) IsCandidateValid(state *AllocationState, staffID int, demand ShiftDemand) bool {
	return IntervalOK(state, staffID, demand.ShiftType, demand.Date, c.minIntervalDays)
}

func (c *IntervalCriterion) ValidateState(state *AllocationState) []ValidationError {
	var errors []ValidationError

	for _, staffID := range state.Order {
		user := state.Users[staffID]
		for _, shiftType := range []model.ShiftType{model.ShiftA, model.ShiftB} {
			var dates []string
			for _, a := range user.Allocations {
				if a.ShiftType == shiftType {
					dates = append(dates, a.Date)
				}
			}
			sort.Strings(dates)

			for i := 1; i < len(dates); i++ {
				gap := state.daysBetween(dates[i-1], dates[i])
				if gap < c.minIntervalDays {
					errors = append(errors, ValidationError{
						Date:          dates[i],
						StaffID:       staffID,
						ShiftType:     string(shiftType),
						CriterionName: c.Name(),
						Description: fmt.Sprintf("Staff %d holds %s on %s and %s (%d days apart, minimum %d)",
							staffID, shiftType, dates[i-1], dates[i], gap, c.minIntervalDays),
					})
				}
			}
		}
	}

	return errors
}

// IntervalOK reports whether a staff member may take another A or B shift on date.
// Other shift types always pass. The check passes when the staff member holds no
// shift of the same type, or the nearest one is at least minIntervalDays away.
func IntervalOK(state *AllocationState, staffID int, shiftType model.ShiftType, date string, minIntervalDays int) bool {
	if shiftType != model.ShiftA && shiftType != model.ShiftB {
		return true
	}

	user, ok := state.Users[staffID]
	if !ok {
		return true
	}

	for _, a := range user.Allocations {
		if a.ShiftType != shiftType {
			continue
		}
		if state.daysBetween(a.Date, date) < minIntervalDays {
			return false
		}
	}

	return true
}

// daysBetween returns the absolute whole-day difference between two dates.
// Unparseable dates count as the same day.
func (s *AllocationState) daysBetween(a, b string) int {
	ta, okA := s.parseDate(a)
	tb, okB := s.parseDate(b)
	if !okA || !okB {
		return 0
	}
	days := int(tb.Sub(ta).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

func (s *AllocationState) parseDate(date string) (time.Time, bool) {
	if t, ok := s.dates[date]; ok {
		return t, true
	}
	t, err := time.Parse(model.DateLayout, date)
	return t, err == nil
}
