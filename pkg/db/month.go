package db

import (
	"fmt"
	"time"
)

// MonthBounds returns the first date of month and the first date of the following month,
// both as "2006-01-02". Stores select a month with shift_date >= start AND shift_date < end.
func MonthBounds(month string) (string, string, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return "", "", fmt.Errorf("invalid month %q: %w", month, err)
	}
	return start.Format("2006-01-02"), start.AddDate(0, 1, 0).Format("2006-01-02"), nil
}
