package calendar

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

var ErrNoEvents = errors.New("no events to export")

const icsProductID = "-//rfp-tracker//EN"

// EncodeICS writes events as an RFC 5545 calendar. Timed events are emitted
// with a TZID parameter; all-day events use VALUE=DATE with an exclusive
// DTEND one day after the start.
func EncodeICS(w io.Writer, calendarName string, events []Event) error {
	if len(events) == 0 {
		return ErrNoEvents
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)
	if calendarName != "" {
		cal.Props.SetText("X-WR-CALNAME", calendarName)
	}

	now := time.Now().UTC()
	for _, ev := range events {
		cal.Children = append(cal.Children, toVEvent(ev, now))
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

func toVEvent(ev Event, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uuid.NewString()+"@rfp-tracker")
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	ve.Props.SetText(ical.PropSummary, ev.Title)
	if ev.Description != "" {
		ve.Props.SetText(ical.PropDescription, ev.Description)
	}

	if ev.AllDay {
		ve.Props.Set(dateProp(ical.PropDateTimeStart, ev.StartDate.In(time.UTC)))
		// DTEND is exclusive for all-day events.
		ve.Props.Set(dateProp(ical.PropDateTimeEnd, ev.EndDate.AddDays(1).In(time.UTC)))
	} else {
		ve.Props.Set(zonedDateTimeProp(ical.PropDateTimeStart, ev.Start))
		ve.Props.Set(zonedDateTimeProp(ical.PropDateTimeEnd, ev.End))
	}

	if ev.ReminderBefore > 0 {
		ve.Children = append(ve.Children, toVAlarm(ev))
	}
	return ve
}

func dateProp(name string, t time.Time) *ical.Prop {
	p := ical.NewProp(name)
	p.SetValueType(ical.ValueDate)
	p.Value = t.Format("20060102")
	return p
}

// zonedDateTimeProp emits a local date-time with an explicit TZID
// parameter. Consumers resolve well-known zone names without a VTIMEZONE.
func zonedDateTimeProp(name string, t time.Time) *ical.Prop {
	p := ical.NewProp(name)
	p.Params.Set("TZID", t.Location().String())
	p.Value = t.Format("20060102T150405")
	return p
}

func toVAlarm(ev Event) *ical.Component {
	alarm := ical.NewComponent("VALARM")
	alarm.Props.SetText("ACTION", "DISPLAY")
	alarm.Props.SetText(ical.PropDescription, ev.Title)

	// TRIGGER carries a raw RFC 5545 duration, negative for "before start".
	trigger := ical.NewProp("TRIGGER")
	trigger.Value = formatNegativeDuration(ev.ReminderBefore)
	alarm.Props.Set(trigger)
	return alarm
}

// formatNegativeDuration renders a reminder offset as an RFC 5545 duration
// before the event, e.g. 24h -> "-P1D", 90m -> "-PT1H30M".
func formatNegativeDuration(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	rem := d % (24 * time.Hour)
	hours := int(rem / time.Hour)
	minutes := int(rem % time.Hour / time.Minute)

	if hours == 0 && minutes == 0 {
		if days == 0 {
			return "-PT0S"
		}
		return fmt.Sprintf("-P%dD", days)
	}

	out := "-P"
	if days > 0 {
		out += fmt.Sprintf("%dD", days)
	}
	out += "T"
	if hours > 0 {
		out += fmt.Sprintf("%dH", hours)
	}
	if minutes > 0 {
		out += fmt.Sprintf("%dM", minutes)
	}
	return out
}
