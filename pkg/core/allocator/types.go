package allocator

import (
	"slices"
	"time"

	"github.com/jakechorley/ward-overtime/pkg/core/model"
)

// RosterDay is one calendar date and the staff on the qualifying base shift that day
type RosterDay struct {
	// Date in "2006-01-02" format
	Date string

	// Staff on the qualifying base shift, in roster order
	Staff []model.Staff
}

// ShiftDemand is a single (date, shift type) slot that needs filling
type ShiftDemand struct {
	Date      string
	ShiftType model.ShiftType

	// Eligible holds the IDs of staff who may fill this slot, in roster order
	Eligible []int
}

// IsEligible returns true if the staff member is in the demand's eligible set
func (d ShiftDemand) IsEligible(staffID int) bool {
	return slices.Contains(d.Eligible, staffID)
}

// Allocation is one overtime shift granted to a staff member
type Allocation struct {
	Date      string
	ShiftType model.ShiftType

	// Preseeded is true for existing markings supplied in partial mode
	Preseeded bool
}

// UserScoreState tracks a staff member's fairness score during a run
type UserScoreState struct {
	Staff model.Staff

	// WorkDays is the expected working-day count used to derive BaseScore
	WorkDays int

	// BaseScore is fixed for the whole run
	BaseScore float64

	// CurrentScore starts at BaseScore and rises with every allocation
	CurrentScore float64

	// Allocations in the order they were committed, pre-seeded ones first
	Allocations []Allocation
}

// CountOf returns how many allocations of the given type the staff member holds
func (u *UserScoreState) CountOf(shiftType model.ShiftType) int {
	count := 0
	for _, a := range u.Allocations {
		if a.ShiftType == shiftType {
			count++
		}
	}
	return count
}

// slotKey identifies a single (date, shift type) slot
type slotKey struct {
	Date      string
	ShiftType model.ShiftType
}

// staffDateKey identifies a staff member on a given date
type staffDateKey struct {
	StaffID int
	Date    string
}

// AllocationState is the working set of a single allocation run
type AllocationState struct {
	// Users keyed by staff ID
	Users map[int]*UserScoreState

	// Order lists staff IDs in the order they first appear in the roster
	Order []int

	// Options the run was configured with (defaults applied)
	Options Options

	dates      map[string]time.Time
	slots      map[slotKey]int
	staffDates map[staffDateKey]model.ShiftType
}

func newAllocationState(opts Options) *AllocationState {
	return &AllocationState{
		Users:      make(map[int]*UserScoreState),
		Options:    opts,
		dates:      make(map[string]time.Time),
		slots:      make(map[slotKey]int),
		staffDates: make(map[staffDateKey]model.ShiftType),
	}
}

// SlotHolder returns the staff ID holding the given slot, if any
func (s *AllocationState) SlotHolder(date string, shiftType model.ShiftType) (int, bool) {
	staffID, ok := s.slots[slotKey{Date: date, ShiftType: shiftType}]
	return staffID, ok
}

// ShiftOn returns the shift type a staff member holds on the given date, if any
func (s *AllocationState) ShiftOn(staffID int, date string) (model.ShiftType, bool) {
	shiftType, ok := s.staffDates[staffDateKey{StaffID: staffID, Date: date}]
	return shiftType, ok
}

// DateOf returns the parsed form of a date
func (s *AllocationState) DateOf(date string) (time.Time, bool) {
	return s.parseDate(date)
}

// Score returns a staff member's current score, or 0 if they are unknown
func (s *AllocationState) Score(staffID int) float64 {
	if u, ok := s.Users[staffID]; ok {
		return u.CurrentScore
	}
	return 0
}

// Scores returns every current score in roster order
func (s *AllocationState) Scores() []float64 {
	scores := make([]float64, 0, len(s.Order))
	for _, id := range s.Order {
		scores = append(scores, s.Users[id].CurrentScore)
	}
	return scores
}

// UserStates returns a copy of every user state in roster order
func (s *AllocationState) UserStates() []UserScoreState {
	states := make([]UserScoreState, 0, len(s.Order))
	for _, id := range s.Order {
		u := *s.Users[id]
		u.Allocations = slices.Clone(u.Allocations)
		states = append(states, u)
	}
	return states
}

// commit records an allocation and applies its score.
// Callers must have checked that the slot and the staff member's date are free.
func (s *AllocationState) commit(staffID int, date string, shiftType model.ShiftType, preseeded bool) {
	user := s.Users[staffID]
	user.CurrentScore += s.Options.ScoreTable.Score(shiftType)
	user.Allocations = append(user.Allocations, Allocation{
		Date:      date,
		ShiftType: shiftType,
		Preseeded: preseeded,
	})
	s.slots[slotKey{Date: date, ShiftType: shiftType}] = staffID
	s.staffDates[staffDateKey{StaffID: staffID, Date: date}] = shiftType
}

// Mode selects whether a run starts empty or from existing markings
type Mode string

const (
	ModeFull    Mode = "full"
	ModePartial Mode = "partial"
)

// ExistingMarkings maps date -> staff ID -> shift type
type ExistingMarkings map[string]map[int]model.ShiftType
