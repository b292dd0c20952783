package allocator

import (
	"fmt"
	"sort"
)

// UniquenessCriterion guarantees one staff member per slot and one slot per staff member per date.
//
// Validity:
//   - Returns false if the slot is already held
//
// Validation:
//   - Rebuilds both indexes from every staff member's allocation list and reports any collisions
type UniquenessCriterion struct{}

// NewUniquenessCriterion creates a new UniquenessCriterion
func NewUniquenessCriterion() *UniquenessCriterion {
	return &UniquenessCriterion{}
}

func (c *UniquenessCriterion) Name() string {
	return "Uniqueness"
}

func (c *UniquenessCriterion) IsCandidateValid(state *AllocationState, staffID int, demand ShiftDemand) bool {
	_, taken := state.SlotHolder(demand.Date, demand.ShiftType)
	return !taken
}

func (c *UniquenessCriterion) ValidateState(state *AllocationState) []ValidationError {
	var errors []ValidationError

	slotHolders := make(map[slotKey][]int)
	for _, staffID := range state.Order {
		perDate := make(map[string]int)
		for _, a := range state.Users[staffID].Allocations {
			key := slotKey{Date: a.Date, ShiftType: a.ShiftType}
			slotHolders[key] = append(slotHolders[key], staffID)

			perDate[a.Date]++
			if perDate[a.Date] == 2 {
				errors = append(errors, ValidationError{
					Date:          a.Date,
					StaffID:       staffID,
					ShiftType:     string(a.ShiftType),
					CriterionName: c.Name(),
					Description:   fmt.Sprintf("Staff %d holds more than one shift on %s", staffID, a.Date),
				})
			}
		}
	}

	keys := make([]slotKey, 0, len(slotHolders))
	for key, holders := range slotHolders {
		if len(holders) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Date != keys[j].Date {
			return keys[i].Date < keys[j].Date
		}
		return keys[i].ShiftType < keys[j].ShiftType
	})

	for _, key := range keys {
		errors = append(errors, ValidationError{
			Date:          key.Date,
			StaffID:       slotHolders[key][1],
			ShiftType:     string(key.ShiftType),
			CriterionName: c.Name(),
			Description:   fmt.Sprintf("Slot %s/%s is held by %d staff: %v", key.Date, key.ShiftType, len(slotHolders[key]), slotHolders[key]),
		})
	}

	return errors
}
