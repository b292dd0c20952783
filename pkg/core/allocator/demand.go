package allocator

import (
	"time"

	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

// DemandSet holds the demands for each shift type, each list in date order
type DemandSet map[model.ShiftType][]ShiftDemand

// Total returns the number of demands across every shift type
func (d DemandSet) Total() int {
	total := 0
	for _, demands := range d {
		total += len(demands)
	}
	return total
}

// CollectDemands scans the roster and emits every slot that still needs filling.
//
// Day rules:
//   - Sunday: no slots
//   - Saturday: a single A slot, Leaders excluded
//   - Weekday: one slot for each of A-F; Leaders are only eligible for E and F
//
// Slots already held in state (pre-seeded markings) are skipped.
// A slot with no eligible staff is still emitted so it can be reported as unfilled.
func CollectDemands(state *AllocationState, roster []RosterDay) DemandSet {
	demands := make(DemandSet, len(model.AllShiftTypes))
	for _, shiftType := range model.AllShiftTypes {
		demands[shiftType] = []ShiftDemand{}
	}

	for _, day := range roster {
		date, ok := state.DateOf(day.Date)
		if !ok {
			continue
		}

		for _, shiftType := range slotsForDay(date.Weekday()) {
			if _, taken := state.SlotHolder(day.Date, shiftType); taken {
				continue
			}

			demands[shiftType] = append(demands[shiftType], ShiftDemand{
				Date:      day.Date,
				ShiftType: shiftType,
				Eligible:  eligibleStaff(day.Staff, shiftType),
			})
		}
	}

	return demands
}

// slotsForDay returns the shift types that need filling on a given weekday
func slotsForDay(weekday time.Weekday) []model.ShiftType {
	switch weekday {
	case time.Sunday:
		return nil
	case time.Saturday:
		return []model.ShiftType{model.ShiftA}
	default:
		return model.AllShiftTypes
	}
}

// eligibleStaff filters a day's staff to those who may hold the given shift type.
// Only weekday E and F admit Leaders, and Saturday only has an A slot.
func eligibleStaff(staff []model.Staff, shiftType model.ShiftType) []int {
	eligible := make([]int, 0, len(staff))
	for _, s := range staff {
		if s.IsLeader() && !shiftType.IsLeaderShift() {
			continue
		}
		eligible = append(eligible, s.ID)
	}
	return eligible
}
