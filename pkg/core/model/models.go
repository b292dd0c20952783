package model

import (
	"fmt"
	"time"
)

// DateLayout is the date format used for every date string in the allocator and stores
const DateLayout = "2006-01-02"

// MonthLayout is the format used to identify an allocation month
const MonthLayout = "2006-01"

type RoleIdentity string

const (
	RoleRegularSpecialist RoleIdentity = "RegularSpecialist"
	RoleLeader            RoleIdentity = "Leader"
	RoleOther             RoleIdentity = "Other"
)

func (r RoleIdentity) IsValid() bool {
	return r == RoleRegularSpecialist || r == RoleLeader || r == RoleOther
}

// ShiftType is one of the six overtime designations
type ShiftType string

const (
	ShiftA ShiftType = "A"
	ShiftB ShiftType = "B"
	ShiftC ShiftType = "C"
	ShiftD ShiftType = "D"
	ShiftE ShiftType = "E"
	ShiftF ShiftType = "F"
)

// AllShiftTypes lists the shift types in allocation priority order
var AllShiftTypes = []ShiftType{ShiftA, ShiftB, ShiftC, ShiftD, ShiftE, ShiftF}

func (t ShiftType) IsValid() bool {
	switch t {
	case ShiftA, ShiftB, ShiftC, ShiftD, ShiftE, ShiftF:
		return true
	}
	return false
}

// IsLeaderShift reports whether a Leader may hold this shift type
func (t ShiftType) IsLeaderShift() bool {
	return t == ShiftE || t == ShiftF
}

// Staff represents a member of ward staff
type Staff struct {
	ID   int
	Name string
	Role RoleIdentity
}

// IsLeader returns true if the staff member holds the Leader role
func (s Staff) IsLeader() bool {
	return s.Role == RoleLeader
}

// MonthDates returns every calendar date in the given month ("2006-01")
func MonthDates(month string) ([]time.Time, error) {
	start, err := time.Parse(MonthLayout, month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: %w", month, err)
	}

	var dates []time.Time
	for d := start; d.Month() == start.Month(); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates, nil
}
