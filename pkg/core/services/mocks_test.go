package services

import (
	"context"
	"time"

	"github.com/jakechorley/ward-overtime/internal/config"
	"github.com/jakechorley/ward-overtime/pkg/clients/sheetsclient"
	"github.com/jakechorley/ward-overtime/pkg/core/model"
	"github.com/jakechorley/ward-overtime/pkg/db"
)

// mockStore implements every store interface the services use
type mockStore struct {
	staff      []db.Staff
	baseShifts []db.BaseShift
	markings   []db.OvertimeMarking
	runs       []db.AllocationRun

	getStaffErr      error
	getBaseShiftsErr error
	getMarkingsErr   error
	getRunsErr       error
	saveErr          error
	upsertStaffErr   error
	replaceShiftsErr error

	savedRun      *db.AllocationRun
	savedMarkings []db.OvertimeMarking
	savedReplace  bool
	saveCalls     int

	upsertedStaff   []db.Staff
	replacedMonth   string
	replacedShifts  []db.BaseShift
	requestedMonths []string
}

func (m *mockStore) GetStaff(ctx context.Context) ([]db.Staff, error) {
	if m.getStaffErr != nil {
		return nil, m.getStaffErr
	}
	return m.staff, nil
}

func (m *mockStore) UpsertStaff(ctx context.Context, staff []db.Staff) error {
	if m.upsertStaffErr != nil {
		return m.upsertStaffErr
	}
	m.upsertedStaff = append(m.upsertedStaff, staff...)
	return nil
}

func (m *mockStore) GetBaseShifts(ctx context.Context, month string) ([]db.BaseShift, error) {
	if m.getBaseShiftsErr != nil {
		return nil, m.getBaseShiftsErr
	}
	m.requestedMonths = append(m.requestedMonths, month)
	return m.baseShifts, nil
}

func (m *mockStore) ReplaceBaseShifts(ctx context.Context, month string, shifts []db.BaseShift) error {
	if m.replaceShiftsErr != nil {
		return m.replaceShiftsErr
	}
	m.replacedMonth = month
	m.replacedShifts = shifts
	return nil
}

func (m *mockStore) GetMarkings(ctx context.Context, month string) ([]db.OvertimeMarking, error) {
	if m.getMarkingsErr != nil {
		return nil, m.getMarkingsErr
	}
	return m.markings, nil
}

func (m *mockStore) SaveAllocation(ctx context.Context, run *db.AllocationRun, markings []db.OvertimeMarking, replaceMonth bool) error {
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.savedRun = run
	m.savedMarkings = markings
	m.savedReplace = replaceMonth
	return nil
}

func (m *mockStore) GetAllocationRuns(ctx context.Context, month string) ([]db.AllocationRun, error) {
	if m.getRunsErr != nil {
		return nil, m.getRunsErr
	}
	return m.runs, nil
}

// mockPublisher implements OvertimePublisher for testing
type mockPublisher struct {
	spreadsheetID string
	published     *sheetsclient.PublishedOvertime
	publishErr    error
}

func (m *mockPublisher) PublishOvertime(ctx context.Context, spreadsheetID string, published *sheetsclient.PublishedOvertime) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.spreadsheetID = spreadsheetID
	m.published = published
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, URL: config.DriverSQLite},
	}
	cfg.ApplyDefaults()
	return cfg
}

// mayStore has five active specialists (IDs 1-5) on base shift A every weekday of May 2024,
// an inactive specialist (ID 6) and a Leader (ID 7) on night shifts only
func mayStore() *mockStore {
	store := &mockStore{
		staff: []db.Staff{
			{ID: 1, Name: "Ade", Role: string(model.RoleRegularSpecialist), Active: true},
			{ID: 2, Name: "Bea", Role: string(model.RoleRegularSpecialist), Active: true},
			{ID: 3, Name: "Cal", Role: string(model.RoleRegularSpecialist), Active: true},
			{ID: 4, Name: "Dee", Role: string(model.RoleRegularSpecialist), Active: true},
			{ID: 5, Name: "Eve", Role: string(model.RoleRegularSpecialist), Active: true},
			{ID: 6, Name: "Fin", Role: string(model.RoleRegularSpecialist), Active: false},
			{ID: 7, Name: "Gus", Role: string(model.RoleLeader), Active: true},
		},
	}

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Month() == time.May; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		date := d.Format(model.DateLayout)
		for id := 1; id <= 6; id++ {
			store.baseShifts = append(store.baseShifts, db.BaseShift{StaffID: id, ShiftDate: date, Code: "A"})
		}
		store.baseShifts = append(store.baseShifts, db.BaseShift{StaffID: 7, ShiftDate: date, Code: "N"})
	}

	return store
}

// mayWeekdays is the number of Monday-Friday dates in May 2024
const mayWeekdays = 23
