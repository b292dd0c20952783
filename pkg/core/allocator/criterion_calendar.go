package allocator

import (
	"fmt"
	"slices"

	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

// CalendarCriterion enforces the day-of-week slot rules.
//
// Validity:
//   - Returns false for any Sunday slot, and for any Saturday slot other than A
//
// Validation:
//   - Reports allocations on Sundays and non-A allocations on Saturdays
type CalendarCriterion struct{}

// NewCalendarCriterion creates a new CalendarCriterion
func NewCalendarCriterion() *CalendarCriterion {
	return &CalendarCriterion{}
}

func (c *CalendarCriterion) Name() string {
	return "Calendar"
}

func (c *CalendarCriterion) IsCandidateValid(state *AllocationState, staffID int, demand ShiftDemand) bool {
	return slotExists(state, demand.Date, demand.ShiftType)
}

func (c *CalendarCriterion) ValidateState(state *AllocationState) []ValidationError {
	var errors []ValidationError

	for _, staffID := range state.Order {
		for _, a := range state.Users[staffID].Allocations {
			if slotExists(state, a.Date, a.ShiftType) {
				continue
			}
			t, _ := state.DateOf(a.Date)
			errors = append(errors, ValidationError{
				Date:          a.Date,
				StaffID:       staffID,
				ShiftType:     string(a.ShiftType),
				CriterionName: c.Name(),
				Description:   fmt.Sprintf("No %s slot exists on %s (%s)", a.ShiftType, a.Date, t.Weekday()),
			})
		}
	}

	return errors
}

func slotExists(state *AllocationState, date string, shiftType model.ShiftType) bool {
	t, ok := state.DateOf(date)
	if !ok {
		return false
	}
	return slices.Contains(slotsForDay(t.Weekday()), shiftType)
}
