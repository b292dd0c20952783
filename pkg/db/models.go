package db

// Staff represents a database staff record
type Staff struct {
	ID     int
	Name   string
	Role   string
	Active bool
}

// BaseShift is a staff member's rostered base shift on one date
type BaseShift struct {
	ID        string
	StaffID   int
	ShiftDate string
	Code      string
}

// OvertimeMarking is one committed overtime designation
type OvertimeMarking struct {
	ID        string
	RunID     string
	StaffID   int
	ShiftDate string
	ShiftType string
}

// AllocationRun records a committed allocation for a month
type AllocationRun struct {
	ID               string
	Month            string
	Mode             string
	Strategy         string
	Success          bool
	Assigned         int
	Preseeded        int
	Unfilled         int
	ScoreRange       float64
	MeanAbsDeviation float64
	CreatedAt        string
}
