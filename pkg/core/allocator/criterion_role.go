package allocator

import (
	"fmt"
	"time"

	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

// RoleCriterion restricts Leaders to E and F shifts on weekdays.
//
// Validity:
//   - Returns false if a Leader is offered anything other than E or F, or any Saturday slot
//
// Validation:
//   - Reports any Leader allocation outside E/F or on a Saturday
type RoleCriterion struct{}

// NewRoleCriterion creates a new RoleCriterion
func NewRoleCriterion() *RoleCriterion {
	return &RoleCriterion{}
}

func (c *RoleCriterion) Name() string {
	return "Role"
}

func (c *RoleCriterion) IsCandidateValid(state *AllocationState, staffID int, demand ShiftDemand) bool {
	user, ok := state.Users[staffID]
	if !ok || !user.Staff.IsLeader() {
		return true
	}
	return leaderMayHold(state, demand.Date, demand.ShiftType)
}

func (c *RoleCriterion) ValidateState(state *AllocationState) []ValidationError {
	var errors []ValidationError

	for _, staffID := range state.Order {
		user := state.Users[staffID]
		if !user.Staff.IsLeader() {
			continue
		}

		for _, a := range user.Allocations {
			if leaderMayHold(state, a.Date, a.ShiftType) {
				continue
			}
			errors = append(errors, ValidationError{
				Date:          a.Date,
				StaffID:       staffID,
				ShiftType:     string(a.ShiftType),
				CriterionName: c.Name(),
				Description:   fmt.Sprintf("Leader %d holds %s on %s (Leaders may only hold weekday E or F)", staffID, a.ShiftType, a.Date),
			})
		}
	}

	return errors
}

func leaderMayHold(state *AllocationState, date string, shiftType model.ShiftType) bool {
	if !shiftType.IsLeaderShift() {
		return false
	}
	if t, ok := state.DateOf(date); ok && t.Weekday() == time.Saturday {
		return false
	}
	return true
}
