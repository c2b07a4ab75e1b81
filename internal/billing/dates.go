package billing

import (
	"fmt"
	"math"
	"time"
)

// AddMonthsClamped adds calendar months keeping the day of month, clamped to
// the last day of the target month. Time of day and location are preserved.
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOfDay truncates t to local midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// DaysUntil returns the whole-day distance from today to due, both
// normalised to midnight in now's location. Negative means overdue.
func DaysUntil(due, now time.Time) int {
	today := StartOfDay(now)
	target := StartOfDay(due.In(now.Location()))
	return int(math.Round(target.Sub(today).Hours() / 24))
}

// Period is a calendar month in a given location.
type Period struct {
	Year     int
	Month    time.Month
	Location *time.Location
}

// NewPeriod validates and builds a Period.
func NewPeriod(year int, month time.Month, loc *time.Location) (Period, error) {
	if month < time.January || month > time.December {
		return Period{}, fmt.Errorf("billing: month %d out of range", month)
	}
	if year < 1 {
		return Period{}, fmt.Errorf("billing: year %d out of range", year)
	}
	return Period{Year: year, Month: month, Location: loc}, nil
}

// PeriodOf returns the month containing t, in t's location.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month(), Location: t.Location()}
}

// IsZero reports whether the period was left unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

func (p Period) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	local := t.In(p.location())
	return local.Year() == p.Year && local.Month() == p.Month
}

// Start returns the first instant of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, p.location())
}

// End returns the first instant after the period.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
