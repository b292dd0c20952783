package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/ward-overtime/pkg/db"
)

// GetMarkings retrieves a month's overtime markings ordered by date then shift type
func (d *DB) GetMarkings(ctx context.Context, month string) ([]db.OvertimeMarking, error) {
	start, end, err := db.MonthBounds(month)
	if err != nil {
		return nil, err
	}

	rows, err := d.pool.Query(ctx, `
		SELECT id, run_id, staff_id, shift_date, shift_type
		FROM overtime_marking
		WHERE shift_date >= $1 AND shift_date < $2
		ORDER BY shift_date, shift_type
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query markings: %w", err)
	}
	defer rows.Close()

	var markings []db.OvertimeMarking
	for rows.Next() {
		var m db.OvertimeMarking
		var shiftDate time.Time
		if err := rows.Scan(&m.ID, &m.RunID, &m.StaffID, &shiftDate, &m.ShiftType); err != nil {
			return nil, fmt.Errorf("failed to scan marking: %w", err)
		}
		m.ShiftDate = shiftDate.Format("2006-01-02")
		markings = append(markings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating markings: %w", err)
	}

	return markings, nil
}

// SaveAllocation records an allocation run and its markings in one transaction
func (d *DB) SaveAllocation(ctx context.Context, run *db.AllocationRun, markings []db.OvertimeMarking, replaceMonth bool) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if replaceMonth {
		start, end, err := db.MonthBounds(run.Month)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM overtime_marking WHERE shift_date >= $1 AND shift_date < $2`, start, end); err != nil {
			return fmt.Errorf("failed to delete markings: %w", err)
		}
	}

	var createdAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO allocation_run (id, month, mode, strategy, success, assigned, preseeded, unfilled, score_range, mean_abs_deviation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, run.ID, run.Month, run.Mode, run.Strategy, run.Success, run.Assigned, run.Preseeded, run.Unfilled,
		run.ScoreRange, run.MeanAbsDeviation).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert allocation run: %w", err)
	}

	for _, m := range markings {
		_, err := tx.Exec(ctx, `
			INSERT INTO overtime_marking (id, run_id, staff_id, shift_date, shift_type)
			VALUES ($1, $2, $3, $4, $5)
		`, m.ID, run.ID, m.StaffID, m.ShiftDate, m.ShiftType)
		if err != nil {
			return fmt.Errorf("failed to insert marking: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	run.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return nil
}

// GetAllocationRuns retrieves a month's allocation runs, oldest first
func (d *DB) GetAllocationRuns(ctx context.Context, month string) ([]db.AllocationRun, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, month, mode, strategy, success, assigned, preseeded, unfilled, score_range, mean_abs_deviation, created_at
		FROM allocation_run
		WHERE month = $1
		ORDER BY created_at
	`, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation runs: %w", err)
	}
	defer rows.Close()

	var runs []db.AllocationRun
	for rows.Next() {
		var r db.AllocationRun
		var createdAt time.Time
		if err := rows.Scan(&r.ID, &r.Month, &r.Mode, &r.Strategy, &r.Success, &r.Assigned, &r.Preseeded,
			&r.Unfilled, &r.ScoreRange, &r.MeanAbsDeviation, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan allocation run: %w", err)
		}
		r.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation runs: %w", err)
	}

	return runs, nil
}
