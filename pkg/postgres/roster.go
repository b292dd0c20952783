package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/ward-overtime/pkg/db"
)

// GetStaff retrieves all staff records ordered by ID
func (d *DB) GetStaff(ctx context.Context) ([]db.Staff, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, role, active
		FROM staff
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer rows.Close()

	var staff []db.Staff
	for rows.Next() {
		var s db.Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.Role, &s.Active); err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		staff = append(staff, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staff: %w", err)
	}

	return staff, nil
}

// UpsertStaff inserts staff records, updating any that already exist
func (d *DB) UpsertStaff(ctx context.Context, staff []db.Staff) error {
	if len(staff) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, s := range staff {
		_, err := tx.Exec(ctx, `
			INSERT INTO staff (id, name, role, active)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, active = EXCLUDED.active
		`, s.ID, s.Name, s.Role, s.Active)
		if err != nil {
			return fmt.Errorf("failed to upsert staff %d: %w", s.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetBaseShifts retrieves the base shifts rostered in a month, ordered by date then staff ID
func (d *DB) GetBaseShifts(ctx context.Context, month string) ([]db.BaseShift, error) {
	start, end, err := db.MonthBounds(month)
	if err != nil {
		return nil, err
	}

	rows, err := d.pool.Query(ctx, `
		SELECT id, staff_id, shift_date, code
		FROM base_shift
		WHERE shift_date >= $1 AND shift_date < $2
		ORDER BY shift_date, staff_id
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query base shifts: %w", err)
	}
	defer rows.Close()

	var shifts []db.BaseShift
	for rows.Next() {
		var s db.BaseShift
		var shiftDate time.Time
		if err := rows.Scan(&s.ID, &s.StaffID, &shiftDate, &s.Code); err != nil {
			return nil, fmt.Errorf("failed to scan base shift: %w", err)
		}
		s.ShiftDate = shiftDate.Format("2006-01-02")
		shifts = append(shifts, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating base shifts: %w", err)
	}

	return shifts, nil
}

// ReplaceBaseShifts swaps a month's base shift roster for the given shifts.
// Shifts without an ID are given one.
func (d *DB) ReplaceBaseShifts(ctx context.Context, month string, shifts []db.BaseShift) error {
	start, end, err := db.MonthBounds(month)
	if err != nil {
		return err
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM base_shift WHERE shift_date >= $1 AND shift_date < $2`, start, end); err != nil {
		return fmt.Errorf("failed to delete base shifts: %w", err)
	}

	for _, s := range shifts {
		if s.ShiftDate < start || s.ShiftDate >= end {
			return fmt.Errorf("base shift on %s is outside %s", s.ShiftDate, month)
		}
		id := s.ID
		if id == "" {
			id = uuid.New().String()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO base_shift (id, staff_id, shift_date, code)
			VALUES ($1, $2, $3, $4)
		`, id, s.StaffID, s.ShiftDate, s.Code)
		if err != nil {
			return fmt.Errorf("failed to insert base shift: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
