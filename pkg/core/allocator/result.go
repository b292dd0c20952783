package allocator

import (
	"sort"

	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

// AllocationResult maps date -> staff ID -> shift type
type AllocationResult map[string]map[int]model.ShiftType

// AssembleResult flattens every staff member's allocations into an AllocationResult
func AssembleResult(state *AllocationState) AllocationResult {
	result := make(AllocationResult)
	for _, id := range state.Order {
		for _, a := range state.Users[id].Allocations {
			if result[a.Date] == nil {
				result[a.Date] = make(map[int]model.ShiftType)
			}
			result[a.Date][id] = a.ShiftType
		}
	}
	return result
}

// Count returns the total number of (date, staff) assignments
func (r AllocationResult) Count() int {
	count := 0
	for _, byStaff := range r {
		count += len(byStaff)
	}
	return count
}

// Dates returns the dates with at least one assignment, in ascending order
func (r AllocationResult) Dates() []string {
	dates := make([]string, 0, len(r))
	for date := range r {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// HolderOf returns the staff member holding a slot on a date, if any
func (r AllocationResult) HolderOf(date string, shiftType model.ShiftType) (int, bool) {
	for staffID, t := range r[date] {
		if t == shiftType {
			return staffID, true
		}
	}
	return 0, false
}

// AsExisting converts the result into markings suitable for a partial run
func (r AllocationResult) AsExisting() ExistingMarkings {
	existing := make(ExistingMarkings, len(r))
	for date, byStaff := range r {
		existing[date] = make(map[int]model.ShiftType, len(byStaff))
		for staffID, t := range byStaff {
			existing[date][staffID] = t
		}
	}
	return existing
}
