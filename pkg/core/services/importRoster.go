package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/ward-overtime/pkg/core/model"
	"github.com/jakechorley/ward-overtime/pkg/db"
)

// rosterColumns is the required CSV header, in order
var rosterColumns = []string{"staff_id", "name", "role", "date", "base_shift"}

// ImportRosterResult summarises an imported roster file
type ImportRosterResult struct {
	Month      string
	StaffCount int
	ShiftCount int
}

// ImportRosterStore defines the database operations needed for importing a roster
type ImportRosterStore interface {
	UpsertStaff(ctx context.Context, staff []db.Staff) error
	ReplaceBaseShifts(ctx context.Context, month string, shifts []db.BaseShift) error
}

// ImportRoster reads a month's base shift roster from CSV and stores it, replacing any
// base shifts already held for the month. Every staff member in the file is upserted as active.
//
// Expected columns: staff_id,name,role,date,base_shift
func ImportRoster(
	ctx context.Context,
	store ImportRosterStore,
	logger *zap.Logger,
	month string,
	r io.Reader,
) (*ImportRosterResult, error) {
	logger.Debug("Starting importRoster", zap.String("month", month))

	monthStart, err := time.Parse(model.MonthLayout, month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: expected YYYY-MM", month)
	}

	staff, shifts, err := parseRosterCSV(r, monthStart)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}

	logger.Debug("Parsed roster", zap.Int("staff", len(staff)), zap.Int("base_shifts", len(shifts)))

	if err := store.UpsertStaff(ctx, staff); err != nil {
		return nil, fmt.Errorf("failed to save staff: %w", err)
	}
	if err := store.ReplaceBaseShifts(ctx, month, shifts); err != nil {
		return nil, fmt.Errorf("failed to save base shifts: %w", err)
	}

	logger.Info("Imported roster",
		zap.String("month", month),
		zap.Int("staff", len(staff)),
		zap.Int("base_shifts", len(shifts)))

	return &ImportRosterResult{
		Month:      month,
		StaffCount: len(staff),
		ShiftCount: len(shifts),
	}, nil
}

// parseRosterCSV validates every row and returns the distinct staff, sorted by ID, and
// their base shifts in file order
func parseRosterCSV(r io.Reader, monthStart time.Time) ([]db.Staff, []db.BaseShift, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("roster file is empty")
	}
	if err != nil {
		return nil, nil, err
	}
	for i, column := range rosterColumns {
		if i >= len(header) || strings.ToLower(strings.TrimSpace(header[i])) != column {
			return nil, nil, fmt.Errorf("expected header %s", strings.Join(rosterColumns, ","))
		}
	}

	staffByID := make(map[int]db.Staff)
	seen := make(map[string]bool)
	var shifts []db.BaseShift

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		staffID, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil || staffID <= 0 {
			return nil, nil, fmt.Errorf("line %d: invalid staff_id %q", line, record[0])
		}
		name := strings.TrimSpace(record[1])
		if name == "" {
			return nil, nil, fmt.Errorf("line %d: name is required", line)
		}
		role := model.RoleIdentity(strings.TrimSpace(record[2]))
		if !role.IsValid() {
			return nil, nil, fmt.Errorf("line %d: unknown role %q", line, record[2])
		}
		date, err := time.Parse(model.DateLayout, strings.TrimSpace(record[3]))
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: invalid date %q", line, record[3])
		}
		if date.Year() != monthStart.Year() || date.Month() != monthStart.Month() {
			return nil, nil, fmt.Errorf("line %d: date %s is outside %s", line, record[3], monthStart.Format(model.MonthLayout))
		}
		code := strings.TrimSpace(record[4])
		if code == "" {
			return nil, nil, fmt.Errorf("line %d: base_shift is required", line)
		}

		member := db.Staff{ID: staffID, Name: name, Role: string(role), Active: true}
		if previous, ok := staffByID[staffID]; ok && previous != member {
			return nil, nil, fmt.Errorf("line %d: staff %d has conflicting details", line, staffID)
		}
		staffByID[staffID] = member

		shiftDate := date.Format(model.DateLayout)
		key := fmt.Sprintf("%d/%s", staffID, shiftDate)
		if seen[key] {
			return nil, nil, fmt.Errorf("line %d: staff %d already has a base shift on %s", line, staffID, shiftDate)
		}
		seen[key] = true

		shifts = append(shifts, db.BaseShift{StaffID: staffID, ShiftDate: shiftDate, Code: code})
	}

	staff := make([]db.Staff, 0, len(staffByID))
	for _, member := range staffByID {
		staff = append(staff, member)
	}
	sort.Slice(staff, func(i, j int) bool { return staff[i].ID < staff[j].ID })

	return staff, shifts, nil
}
