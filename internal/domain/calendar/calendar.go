// Package calendar computes loan due dates that fall on library working days.
package calendar

import (
	"fmt"
	"time"

	"circulation_recall_daemon/internal/domain/item"
	"circulation_recall_daemon/internal/domain/recall"
)

// Calendar knows which days the library desk is open.
type Calendar struct {
	workingDays map[time.Weekday]bool
	holidays    map[string]bool
}

// DefaultWorkingDays is Monday to Friday.
var DefaultWorkingDays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// New builds a calendar. Holidays are YYYY-MM-DD dates.
func New(workingDays []time.Weekday, holidays []string) (*Calendar, error) {
	if len(workingDays) == 0 {
		return nil, fmt.Errorf("calendar needs at least one working day")
	}
	c := &Calendar{
		workingDays: make(map[time.Weekday]bool, len(workingDays)),
		holidays:    make(map[string]bool, len(holidays)),
	}
	for _, d := range workingDays {
		c.workingDays[d] = true
	}
	for _, h := range holidays {
		d, ok := recall.ParseLetterDate(h)
		if !ok {
			return nil, fmt.Errorf("invalid holiday date %q", h)
		}
		c.holidays[d.Format(recall.DateLayout)] = true
	}
	return c, nil
}

// IsOpen reports whether loans may fall due on day.
func (c *Calendar) IsOpen(day time.Time) bool {
	return c.workingDays[day.Weekday()] && !c.holidays[day.Format(recall.DateLayout)]
}

// DueDate adds days to from and moves forward to the first open day.
func (c *Calendar) DueDate(from time.Time, days int) time.Time {
	due := recall.DateOnly(from).AddDate(0, 0, days)
	for !c.IsOpen(due) {
		due = due.AddDate(0, 0, 1)
	}
	return due
}

// LoanPeriodDays maps a copy's loan period to the number of days of a loan or renewal.
func LoanPeriodDays(period string) int {
	if period == item.LoanPeriodFourWeeks {
		return 30
	}
	return 7
}
