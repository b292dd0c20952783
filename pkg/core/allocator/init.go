package allocator

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

// InputError reports a roster, option or marking problem that prevents a run from starting
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid allocation input (%s): %s", e.Field, e.Reason)
}

// markingEntry is one existing marking flattened for ordered application
type markingEntry struct {
	date      string
	staffID   int
	shiftType model.ShiftType
}

// InitAllocation validates the configuration and builds the starting state:
// scores seeded from the roster, and in partial mode the existing markings applied.
//
// Returns:
//   - The initial AllocationState with options defaulted
//   - The roster sorted by date
//   - *InputError if the roster, options or markings are invalid
func InitAllocation(config Config) (*AllocationState, []RosterDay, error) {
	opts := config.Options.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, nil, err
	}

	if len(config.Roster) == 0 {
		return nil, nil, &InputError{Field: "Roster", Reason: "roster is empty"}
	}

	mode := config.Mode
	if mode == "" {
		mode = ModeFull
	}
	if mode != ModeFull && mode != ModePartial {
		return nil, nil, &InputError{Field: "Mode", Reason: fmt.Sprintf("unknown mode %q", mode)}
	}
	if mode == ModeFull && len(config.Existing) > 0 {
		return nil, nil, &InputError{Field: "Existing", Reason: "existing markings are only accepted in partial mode"}
	}

	state := newAllocationState(opts)

	roster := slices.Clone(config.Roster)
	sort.SliceStable(roster, func(i, j int) bool {
		return roster[i].Date < roster[j].Date
	})

	workDays := make(map[int]int)
	for _, day := range roster {
		date, err := time.Parse(model.DateLayout, day.Date)
		if err != nil {
			return nil, nil, &InputError{Field: "Roster", Reason: fmt.Sprintf("invalid date %q", day.Date)}
		}
		if _, exists := state.dates[day.Date]; exists {
			return nil, nil, &InputError{Field: "Roster", Reason: fmt.Sprintf("date %s appears more than once", day.Date)}
		}
		state.dates[day.Date] = date

		seen := make(map[int]bool, len(day.Staff))
		for _, staff := range day.Staff {
			if seen[staff.ID] {
				return nil, nil, &InputError{Field: "Roster", Reason: fmt.Sprintf("staff %d listed twice on %s", staff.ID, day.Date)}
			}
			seen[staff.ID] = true

			if !staff.Role.IsValid() {
				return nil, nil, &InputError{Field: "Roster", Reason: fmt.Sprintf("staff %d has unknown role %q", staff.ID, staff.Role)}
			}

			existing, known := state.Users[staff.ID]
			if !known {
				state.Users[staff.ID] = &UserScoreState{Staff: staff}
				state.Order = append(state.Order, staff.ID)
			} else if existing.Staff.Role != staff.Role {
				return nil, nil, &InputError{Field: "Roster", Reason: fmt.Sprintf("staff %d has conflicting roles %q and %q", staff.ID, existing.Staff.Role, staff.Role)}
			}
			workDays[staff.ID]++
		}
	}

	if len(state.Order) == 0 {
		return nil, nil, &InputError{Field: "Roster", Reason: "roster contains no staff"}
	}

	// Seed base scores
	for _, id := range state.Order {
		user := state.Users[id]
		user.WorkDays = workDays[id]
		if override, ok := config.WorkDayCounts[id]; ok {
			if override < 0 {
				return nil, nil, &InputError{Field: "WorkDayCounts", Reason: fmt.Sprintf("staff %d has negative work day count %d", id, override)}
			}
			user.WorkDays = override
		}
		user.BaseScore = BaseScore(user.Staff, user.WorkDays, opts.AttendanceRates, opts.NoOvertimePenalty)
		user.CurrentScore = user.BaseScore
	}

	if mode == ModePartial {
		if err := applyExistingMarkings(state, config.Existing); err != nil {
			return nil, nil, err
		}
	}

	return state, roster, nil
}

// applyExistingMarkings validates and commits pre-seeded markings.
// Markings are applied in shift priority order, then date, then staff ID, so that
// repeated runs accumulate scores in the same order as a fresh allocation.
func applyExistingMarkings(state *AllocationState, existing ExistingMarkings) error {
	entries := make([]markingEntry, 0)
	for date, byStaff := range existing {
		parsed, err := time.Parse(model.DateLayout, date)
		if err != nil {
			return &InputError{Field: "Existing", Reason: fmt.Sprintf("invalid date %q", date)}
		}
		if _, known := state.dates[date]; !known {
			state.dates[date] = parsed
		}

		for staffID, shiftType := range byStaff {
			if _, known := state.Users[staffID]; !known {
				return &InputError{Field: "Existing", Reason: fmt.Sprintf("staff %d on %s is not on the roster", staffID, date)}
			}
			if !shiftType.IsValid() {
				return &InputError{Field: "Existing", Reason: fmt.Sprintf("unknown shift type %q for staff %d on %s", shiftType, staffID, date)}
			}
			entries = append(entries, markingEntry{date: date, staffID: staffID, shiftType: shiftType})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		pi := slices.Index(model.AllShiftTypes, entries[i].shiftType)
		pj := slices.Index(model.AllShiftTypes, entries[j].shiftType)
		if pi != pj {
			return pi < pj
		}
		if entries[i].date != entries[j].date {
			return entries[i].date < entries[j].date
		}
		return entries[i].staffID < entries[j].staffID
	})

	for _, e := range entries {
		if holder, taken := state.SlotHolder(e.date, e.shiftType); taken {
			return &InputError{
				Field:  "Existing",
				Reason: fmt.Sprintf("slot %s/%s is marked for both staff %d and %d", e.date, e.shiftType, holder, e.staffID),
			}
		}
		state.commit(e.staffID, e.date, e.shiftType, true)
	}

	return nil
}
