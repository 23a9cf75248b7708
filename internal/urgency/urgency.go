// Package urgency classifies how pressing a deadline is relative to a
// reference instant. Levels are recomputed on every read and never stored:
// urgency is a function of "now" and would go stale in the database.
package urgency

import (
	"time"

	"github.com/david/rfp-tracker/internal/civil"
)

// Level is the discrete urgency of a deadline.
type Level string

const (
	Overdue   Level = "overdue"
	Critical  Level = "critical"
	Warning   Level = "warning"
	Safe      Level = "safe"
	Completed Level = "completed"
)

// Classify returns the urgency level for a deadline date.
//
// A completed deadline is always Completed, regardless of date. Otherwise
// the deadline date is compared against the current calendar day in the
// reference timezone (Europe/London):
//
//	daysUntil < 0   -> Overdue
//	0..3            -> Critical
//	4..7            -> Warning
//	> 7             -> Safe
//
// now is required so the function stays deterministic under test; callers
// at the outermost layer pass time.Now().
//
// The day difference is computed in calendar terms, not by dividing an
// epoch delta: London's UTC offset changes across the year, and epoch
// arithmetic across a DST boundary comes out a day short.
func Classify(date civil.Date, completed bool, now time.Time) Level {
	if completed {
		return Completed
	}

	today := civil.DateOf(now.In(civil.London))
	if date.Before(today) {
		return Overdue
	}

	switch daysUntil := today.DaysUntil(date); {
	case daysUntil <= 3:
		return Critical
	case daysUntil <= 7:
		return Warning
	default:
		return Safe
	}
}
