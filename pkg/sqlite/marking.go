package sqlite

import (
	"context"
	"fmt"

	"github.com/jakechorley/ward-overtime/pkg/db"
)

// GetMarkings retrieves a month's overtime markings ordered by date then shift type
func (d *DB) GetMarkings(ctx context.Context, month string) ([]db.OvertimeMarking, error) {
	start, end, err := db.MonthBounds(month)
	if err != nil {
		return nil, err
	}

	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, run_id, staff_id, shift_date, shift_type
		FROM overtime_marking
		WHERE shift_date >= ? AND shift_date < ?
		ORDER BY shift_date, shift_type
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query markings: %w", err)
	}
	defer rows.Close()

	var markings []db.OvertimeMarking
	for rows.Next() {
		var m db.OvertimeMarking
		if err := rows.Scan(&m.ID, &m.RunID, &m.StaffID, &m.ShiftDate, &m.ShiftType); err != nil {
			return nil, fmt.Errorf("failed to scan marking: %w", err)
		}
		markings = append(markings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating markings: %w", err)
	}

	return markings, nil
}

// SaveAllocation records an allocation run and its markings in one transaction
func (d *DB) SaveAllocation(ctx context.Context, run *db.AllocationRun, markings []db.OvertimeMarking, replaceMonth bool) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if replaceMonth {
		start, end, err := db.MonthBounds(run.Month)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM overtime_marking WHERE shift_date >= ? AND shift_date < ?`, start, end); err != nil {
			return fmt.Errorf("failed to delete markings: %w", err)
		}
	}

	createdAt := d.timestamp()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO allocation_run (id, month, mode, strategy, success, assigned, preseeded, unfilled, score_range, mean_abs_deviation, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Month, run.Mode, run.Strategy, run.Success, run.Assigned, run.Preseeded, run.Unfilled,
		run.ScoreRange, run.MeanAbsDeviation, createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert allocation run: %w", err)
	}

	for _, m := range markings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO overtime_marking (id, run_id, staff_id, shift_date, shift_type)
			VALUES (?, ?, ?, ?, ?)
		`, m.ID, run.ID, m.StaffID, m.ShiftDate, m.ShiftType)
		if err != nil {
			return fmt.Errorf("failed to insert marking: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	run.CreatedAt = createdAt
	return nil
}

// GetAllocationRuns retrieves a month's allocation runs, oldest first
func (d *DB) GetAllocationRuns(ctx context.Context, month string) ([]db.AllocationRun, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, month, mode, strategy, success, assigned, preseeded, unfilled, score_range, mean_abs_deviation, created_at
		FROM allocation_run
		WHERE month = ?
		ORDER BY created_at, rowid
	`, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation runs: %w", err)
	}
	defer rows.Close()

	var runs []db.AllocationRun
	for rows.Next() {
		var r db.AllocationRun
		if err := rows.Scan(&r.ID, &r.Month, &r.Mode, &r.Strategy, &r.Success, &r.Assigned, &r.Preseeded,
			&r.Unfilled, &r.ScoreRange, &r.MeanAbsDeviation, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan allocation run: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation runs: %w", err)
	}

	return runs, nil
}
