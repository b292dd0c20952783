package db

import "context"

// StaffStore defines the interface for staff database operations
type StaffStore interface {
	GetStaff(ctx context.Context) ([]Staff, error)
	UpsertStaff(ctx context.Context, staff []Staff) error
}

// BaseShiftStore defines the interface for base shift roster operations.
// Months are "2006-01".
type BaseShiftStore interface {
	GetBaseShifts(ctx context.Context, month string) ([]BaseShift, error)
	ReplaceBaseShifts(ctx context.Context, month string, shifts []BaseShift) error
}

// MarkingStore defines the interface for overtime marking operations
type MarkingStore interface {
	GetMarkings(ctx context.Context, month string) ([]OvertimeMarking, error)

	// SaveAllocation records the run and its new markings in a single transaction.
	// If replaceMonth is true the month's existing markings are removed first.
	SaveAllocation(ctx context.Context, run *AllocationRun, markings []OvertimeMarking, replaceMonth bool) error

	GetAllocationRuns(ctx context.Context, month string) ([]AllocationRun, error)
}

// Database defines the interface for all database operations.
// Both postgres.DB and sqlite.DB implement this interface.
type Database interface {
	StaffStore
	BaseShiftStore
	MarkingStore
	RunMigrations(ctx context.Context) error
	Close()
}
