// Package period holds the calendar arithmetic shared by filings, rectifications
// and the backfill process. A period is the first day of a month at UTC midnight.
package period

import (
	"fmt"
	"time"
)

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// Of returns the period containing t, evaluated in t's own location.
func Of(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// New builds the period for year/month. The month must be 1-12.
func New(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the period following p.
func Next(p time.Time) time.Time {
	return Of(p).AddDate(0, 1, 0)
}

// Previous returns the period preceding p.
func Previous(p time.Time) time.Time {
	return Of(p).AddDate(0, -1, 0)
}

// MonthName returns the display name for m, the way it appears on filing descriptions.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// PreviousMonthName wraps around January to December.
func PreviousMonthName(p time.Time) string {
	return MonthName(Previous(p).Month())
}

// Parse accepts "2006-01" or "2006-01-02" and returns the containing period.
func Parse(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return Of(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid period %q (expected YYYY-MM or YYYY-MM-DD)", s)
}

// Format renders p as YYYY-MM.
func Format(p time.Time) string {
	return p.Format("2006-01")
}

// DeadlineIn returns the deadline instant of the month containing t: day
// deadlineDay clamped to the month length, at midnight in loc.
func DeadlineIn(t time.Time, deadlineDay int, loc *time.Location) time.Time {
	t = t.In(loc)
	last := daysIn(t.Year(), t.Month())
	day := deadlineDay
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(t.Year(), t.Month(), day, 0, 0, 0, 0, loc)
}

// DeadlinePassed reports whether t is on or after this month's deadline day.
func DeadlinePassed(t time.Time, deadlineDay int, loc *time.Location) bool {
	return !t.In(loc).Before(DeadlineIn(t, deadlineDay, loc))
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Clock supplies "now" in the municipality's time zone.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// SystemClock reads the wall clock in loc.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Now: time.Now, Location: loc}
}

// Today returns the current instant in the clock's location.
func (c Clock) Today() time.Time {
	return c.Now().In(c.Location)
}

// Date truncates t to its calendar day at UTC midnight.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
