// Package workday computes buffer deadlines. Sunday is the only non-working day.
package workday

import (
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/models"
)

// SubtractWorkingDays steps back from d one calendar day at a time and
// returns the date reached after n non-Sunday steps.
func SubtractWorkingDays(d models.Date, n int) (models.Date, error) {
	const op = "workday.SubtractWorkingDays"
	if d.IsZero() {
		return models.Date{}, apperr.New(apperr.InvalidArgument, op, "date is required")
	}
	if n < 0 {
		return models.Date{}, apperr.Newf(apperr.InvalidArgument, op, "negative working days: %d", n)
	}
	for subtracted := 0; subtracted < n; {
		d = d.AddDays(-1)
		if d.Weekday() != time.Sunday {
			subtracted++
		}
	}
	return d, nil
}

// BufferDays is the number of working days reserved before the deadline.
func BufferDays(u models.Urgency) int {
	switch u {
	case models.UrgencyCritical:
		return 0
	case models.UrgencyHigh:
		return 1
	default:
		return 2
	}
}

// BufferDeadline is the internal target date for a task.
func BufferDeadline(deadline models.Date, u models.Urgency) (models.Date, error) {
	return SubtractWorkingDays(deadline, BufferDays(u))
}
