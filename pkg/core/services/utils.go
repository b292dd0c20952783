package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/ward-overtime/internal/config"
	"github.com/jakechorley/ward-overtime/pkg/core/allocator"
	"github.com/jakechorley/ward-overtime/pkg/core/model"
	"github.com/jakechorley/ward-overtime/pkg/db"
)

// defaultClosedReason labels closed dates configured without a reason
const defaultClosedReason = "Closed"

// RosterStore defines the database operations needed to build a month's roster
type RosterStore interface {
	GetStaff(ctx context.Context) ([]db.Staff, error)
	GetBaseShifts(ctx context.Context, month string) ([]db.BaseShift, error)
}

// monthRoster is the allocator input derived from a month's base shifts
type monthRoster struct {
	Roster []allocator.RosterDay

	// WorkDays counts every base shift a staff member works in the month, of any code
	WorkDays map[int]int

	// Staff keyed by ID, active or not
	Staff map[int]model.Staff

	// ClosedDates maps a skipped date to the reason it is closed
	ClosedDates map[string]string
}

// loadMonthRoster fetches staff and base shifts and builds the qualifying roster for a month.
// Inactive staff and closed dates are left off the roster. Days with nobody on the
// qualifying shift are omitted.
func loadMonthRoster(ctx context.Context, store RosterStore, cfg *config.Config, logger *zap.Logger, month string) (*monthRoster, error) {
	if _, err := time.Parse(model.MonthLayout, month); err != nil {
		return nil, fmt.Errorf("invalid month %q: expected YYYY-MM", month)
	}

	logger.Debug("Fetching staff")
	staffRows, err := store.GetStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch staff: %w", err)
	}

	staff := make(map[int]model.Staff, len(staffRows))
	active := make(map[int]bool, len(staffRows))
	for _, row := range staffRows {
		member, err := convertStaff(row)
		if err != nil {
			return nil, err
		}
		staff[row.ID] = member
		active[row.ID] = row.Active
	}

	logger.Debug("Fetching base shifts", zap.String("month", month))
	baseShifts, err := store.GetBaseShifts(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch base shifts: %w", err)
	}

	closed, err := closedDatesInMonth(cfg.ClosedDates, month)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve closed dates: %w", err)
	}
	for date, reason := range closed {
		logger.Debug("Skipping closed date", zap.String("date", date), zap.String("reason", reason))
	}

	qualifying := cfg.QualifyingBaseShift
	if qualifying == "" {
		qualifying = config.DefaultQualifyingBaseShift
	}

	workDays := make(map[int]int)
	byDate := make(map[string][]model.Staff)
	for _, shift := range baseShifts {
		member, ok := staff[shift.StaffID]
		if !ok {
			return nil, fmt.Errorf("base shift on %s references unknown staff %d", shift.ShiftDate, shift.StaffID)
		}
		if !active[shift.StaffID] {
			continue
		}
		workDays[shift.StaffID]++

		if shift.Code != qualifying {
			continue
		}
		if _, isClosed := closed[shift.ShiftDate]; isClosed {
			continue
		}
		byDate[shift.ShiftDate] = append(byDate[shift.ShiftDate], member)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	roster := make([]allocator.RosterDay, 0, len(dates))
	for _, date := range dates {
		dayStaff := byDate[date]
		sort.Slice(dayStaff, func(i, j int) bool { return dayStaff[i].ID < dayStaff[j].ID })
		roster = append(roster, allocator.RosterDay{Date: date, Staff: dayStaff})
	}

	logger.Debug("Built roster",
		zap.String("month", month),
		zap.String("qualifying_base_shift", qualifying),
		zap.Int("days", len(roster)),
		zap.Int("closed_dates", len(closed)))

	return &monthRoster{
		Roster:      roster,
		WorkDays:    workDays,
		Staff:       staff,
		ClosedDates: closed,
	}, nil
}

// convertStaff maps a staff row to the domain type
func convertStaff(row db.Staff) (model.Staff, error) {
	role := model.RoleIdentity(row.Role)
	if !role.IsValid() {
		return model.Staff{}, fmt.Errorf("staff %d has unknown role %q", row.ID, row.Role)
	}
	return model.Staff{ID: row.ID, Name: row.Name, Role: role}, nil
}

// closedDatesInMonth expands the closed date rules into the dates they fall on within month.
// Rules without a DTSTART are anchored to the first of the month.
func closedDatesInMonth(rules []config.ClosedDate, month string) (map[string]string, error) {
	monthStart, err := time.Parse(model.MonthLayout, month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: %w", month, err)
	}
	nextMonth := monthStart.AddDate(0, 1, 0)

	closed := make(map[string]string)
	for i, closedDate := range rules {
		rule, err := rrule.StrToRRule(closedDate.RRule)
		if err != nil {
			return nil, fmt.Errorf("invalid rrule in closedDates[%d]: %w", i, err)
		}
		if !strings.Contains(strings.ToUpper(closedDate.RRule), "DTSTART") {
			rule.DTStart(monthStart)
		}

		reason := closedDate.Reason
		if reason == "" {
			reason = defaultClosedReason
		}

		for _, occurrence := range rule.Between(monthStart, nextMonth, true) {
			if !occurrence.Before(nextMonth) {
				continue
			}
			date := occurrence.Format(model.DateLayout)
			if _, seen := closed[date]; !seen {
				closed[date] = reason
			}
		}
	}

	return closed, nil
}

// convertToExistingMarkings converts persisted markings to the allocator's seed format.
// A staff member may hold at most one marking per date.
func convertToExistingMarkings(markings []db.OvertimeMarking) (allocator.ExistingMarkings, error) {
	existing := make(allocator.ExistingMarkings)
	for _, marking := range markings {
		shiftType := model.ShiftType(marking.ShiftType)
		if !shiftType.IsValid() {
			return nil, fmt.Errorf("marking %s has unknown shift type %q", marking.ID, marking.ShiftType)
		}
		if existing[marking.ShiftDate] == nil {
			existing[marking.ShiftDate] = make(map[int]model.ShiftType)
		}
		if held, ok := existing[marking.ShiftDate][marking.StaffID]; ok {
			return nil, fmt.Errorf("marking %s duplicates staff %d on %s (already holds %s)", marking.ID, marking.StaffID, marking.ShiftDate, held)
		}
		existing[marking.ShiftDate][marking.StaffID] = shiftType
	}
	return existing, nil
}

// convertToDBMarkings returns a marking row for every allocation the run made itself.
// Pre-seeded allocations are already stored and are skipped.
func convertToDBMarkings(runID string, states []allocator.UserScoreState) []db.OvertimeMarking {
	var markings []db.OvertimeMarking
	for _, user := range states {
		for _, allocation := range user.Allocations {
			if allocation.Preseeded {
				continue
			}
			markings = append(markings, db.OvertimeMarking{
				ID:        uuid.New().String(),
				RunID:     runID,
				StaffID:   user.Staff.ID,
				ShiftDate: allocation.Date,
				ShiftType: string(allocation.ShiftType),
			})
		}
	}

	sort.Slice(markings, func(i, j int) bool {
		if markings[i].ShiftDate != markings[j].ShiftDate {
			return markings[i].ShiftDate < markings[j].ShiftDate
		}
		return markings[i].ShiftType < markings[j].ShiftType
	})
	return markings
}
