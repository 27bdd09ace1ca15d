// internal/core/domain/period.go
package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used on the wire
const DateLayout = "2006-01-02"

// Period is a half-open reporting window [Start, End) anchored at local
// midnight in the reporting location.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod builds a period covering the inclusive calendar dates
// first..last in loc.
func NewPeriod(first, last time.Time, loc *time.Location) (Period, error) {
	if loc == nil {
		loc = time.Local
	}
	start := startOfDay(first, loc)
	lastDay := startOfDay(last, loc)
	if lastDay.Before(start) {
		return Period{}, fmt.Errorf("%w: start %s is after end %s",
			ErrInvalidDateRange, start.Format(DateLayout), lastDay.Format(DateLayout))
	}
	return Period{Start: start, End: lastDay.AddDate(0, 0, 1)}, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Duration is the length of the window
func (p Period) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// Previous returns the equal-length window immediately preceding p:
// [Start - (End - Start), Start).
func (p Period) Previous() Period {
	return Period{Start: p.Start.Add(-p.Duration()), End: p.Start}
}

// Contains reports whether t falls inside the half-open window
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// LastDay is the inclusive end date of the window
func (p Period) LastDay() time.Time {
	return p.End.AddDate(0, 0, -1)
}

// Days lists every calendar date in the window, ascending
func (p Period) Days() []time.Time {
	var days []time.Time
	for d := p.Start; d.Before(p.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// View renders the period with inclusive date strings
func (p Period) View() PeriodView {
	return PeriodView{
		Start: p.Start.Format(DateLayout),
		End:   p.LastDay().Format(DateLayout),
	}
}

// Key is a stable identifier of the window, used in cache keys
func (p Period) Key() string {
	return p.Start.Format(DateLayout) + ":" + p.LastDay().Format(DateLayout)
}

// PeriodView is the JSON form of a period
type PeriodView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}
