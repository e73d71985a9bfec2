package reports

import (
	"time"

	"salesreports/internal/core/apperror"
)

// Period is a closed date-time window [From, To].
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NormalizePeriod widens from and to into whole calendar days:
// from's day at 00:00:00 through to's day at 23:59:59.
// A nil to collapses the window to the single day of from.
// Day boundaries keep the location of each input.
func NormalizePeriod(from time.Time, to *time.Time) (Period, error) {
	if from.IsZero() {
		return Period{}, apperror.NewInvalidDateRange("from", "Start date is required")
	}
	end := from
	if to != nil {
		if to.IsZero() {
			return Period{}, apperror.NewInvalidDateRange("to", "End date is invalid")
		}
		end = *to
	}

	return Period{
		From: startOfDay(from),
		To:   endOfDay(end),
	}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

// Days returns the number of calendar days the period spans.
func (p Period) Days() int {
	fy, fm, fd := p.From.Date()
	ty, tm, td := p.To.Date()
	from := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	to := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours()/24) + 1
}
