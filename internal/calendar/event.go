// Package calendar turns tracked deadlines into calendar events and
// serializes them for ICS export and Google Calendar sync.
package calendar

import (
	"fmt"
	"time"

	"github.com/david/rfp-tracker/internal/civil"
)

// DefaultReminderBefore is how far ahead of the deadline the reminder fires.
const DefaultReminderBefore = 24 * time.Hour

// Deadline is the calendar-facing view of a tracked deadline.
type Deadline struct {
	Date    civil.Date
	Time    string // "HH:MM" 24-hour, empty for all-day
	Label   string
	Context string
	RFPName string
}

// Event is a calendar event ready for serialization. All-day events carry
// StartDate/EndDate; timed events carry Start/End in the reference timezone.
type Event struct {
	Title          string
	Description    string
	AllDay         bool
	StartDate      civil.Date
	EndDate        civil.Date
	Start          time.Time
	End            time.Time
	ReminderBefore time.Duration
}

// BuildEvent converts a deadline into an event. Deadlines with a time become
// one-hour timed events anchored in Europe/London; deadlines without a time
// become all-day events.
func BuildEvent(d Deadline) (Event, error) {
	if d.Date.IsZero() {
		return Event{}, fmt.Errorf("deadline has no date")
	}

	title := d.Label
	if d.RFPName != "" {
		title = d.Label + " - " + d.RFPName
	}

	ev := Event{
		Title:          title,
		Description:    d.Context,
		ReminderBefore: DefaultReminderBefore,
	}

	if d.Time == "" {
		ev.AllDay = true
		ev.StartDate = d.Date
		ev.EndDate = d.Date
		return ev, nil
	}

	parsed, err := time.Parse("15:04", d.Time)
	if err != nil {
		return Event{}, fmt.Errorf("invalid deadline time %q: %w", d.Time, err)
	}

	ev.Start = time.Date(d.Date.Year, d.Date.Month, d.Date.Day,
		parsed.Hour(), parsed.Minute(), 0, 0, civil.London)
	ev.End = ev.Start.Add(time.Hour)
	return ev, nil
}

// BuildEvents converts a batch of deadlines, failing on the first bad one.
func BuildEvents(deadlines []Deadline) ([]Event, error) {
	events := make([]Event, 0, len(deadlines))
	for i, d := range deadlines {
		ev, err := BuildEvent(d)
		if err != nil {
			return nil, fmt.Errorf("deadline %d (%s): %w", i, d.Label, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
