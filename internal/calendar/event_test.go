package calendar

import (
	"testing"
	"time"

	"github.com/david/rfp-tracker/internal/civil"
)

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestBuildEvent_AllDay(t *testing.T) {
	ev, err := BuildEvent(Deadline{
		Date:    mustDate(t, "2026-03-15"),
		Label:   "Submission deadline",
		Context: "Via procurement portal",
		RFPName: "Council Website Refresh",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ev.AllDay {
		t.Fatal("expected all-day event")
	}
	if ev.Title != "Submission deadline - Council Website Refresh" {
		t.Fatalf("unexpected title: %q", ev.Title)
	}
	if ev.Description != "Via procurement portal" {
		t.Fatalf("unexpected description: %q", ev.Description)
	}
	if ev.StartDate != ev.EndDate || ev.StartDate.String() != "2026-03-15" {
		t.Fatalf("unexpected dates: %v..%v", ev.StartDate, ev.EndDate)
	}
	if ev.ReminderBefore != 24*time.Hour {
		t.Fatalf("unexpected reminder: %v", ev.ReminderBefore)
	}
}

func TestBuildEvent_TimedAnchoredInLondon(t *testing.T) {
	ev, err := BuildEvent(Deadline{
		Date:  mustDate(t, "2026-07-01"),
		Time:  "17:00",
		Label: "Questions due",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.AllDay {
		t.Fatal("expected timed event")
	}
	if ev.Title != "Questions due" {
		t.Fatalf("unexpected title without RFP name: %q", ev.Title)
	}
	if ev.Start.Location() != civil.London {
		t.Fatalf("expected Europe/London, got %v", ev.Start.Location())
	}
	if ev.Start.Hour() != 17 || ev.Start.Minute() != 0 {
		t.Fatalf("unexpected start: %v", ev.Start)
	}
	if ev.End.Sub(ev.Start) != time.Hour {
		t.Fatalf("expected one-hour event, got %v", ev.End.Sub(ev.Start))
	}
	// 2026-07-01 is in BST, so the instant is 16:00 UTC.
	if got := ev.Start.UTC().Hour(); got != 16 {
		t.Fatalf("expected 16:00 UTC during BST, got %02d:00", got)
	}
}

func TestBuildEvent_InvalidTime(t *testing.T) {
	for _, bad := range []string{"25:00", "5pm", "17:60", "noon"} {
		_, err := BuildEvent(Deadline{
			Date:  mustDate(t, "2026-03-15"),
			Time:  bad,
			Label: "X",
		})
		if err == nil {
			t.Fatalf("expected error for time %q", bad)
		}
	}
}

func TestBuildEvent_ZeroDate(t *testing.T) {
	if _, err := BuildEvent(Deadline{Label: "X"}); err == nil {
		t.Fatal("expected error for zero date")
	}
}

func TestBuildEvents_FailsFast(t *testing.T) {
	_, err := BuildEvents([]Deadline{
		{Date: mustDate(t, "2026-03-15"), Label: "ok"},
		{Date: mustDate(t, "2026-03-16"), Time: "bad", Label: "broken"},
	})
	if err == nil {
		t.Fatal("expected error from invalid deadline in batch")
	}
}

func TestToGoogleEvent_AllDayUsesEqualDates(t *testing.T) {
	ev, err := BuildEvent(Deadline{Date: mustDate(t, "2026-03-15"), Label: "Submission deadline"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g := toGoogleEvent(ev)
	if g.Start.Date != "2026-03-15" || g.End.Date != "2026-03-15" {
		t.Fatalf("unexpected dates: start=%q end=%q", g.Start.Date, g.End.Date)
	}
	if g.Start.DateTime != "" || g.End.DateTime != "" {
		t.Fatal("all-day event must not carry dateTime")
	}
	if g.Reminders == nil || g.Reminders.UseDefault {
		t.Fatal("expected reminder overrides")
	}
	if len(g.Reminders.Overrides) != 1 || g.Reminders.Overrides[0].Minutes != 1440 {
		t.Fatalf("unexpected overrides: %+v", g.Reminders.Overrides)
	}
	if g.Reminders.Overrides[0].Method != "popup" {
		t.Fatalf("unexpected method: %q", g.Reminders.Overrides[0].Method)
	}
}

func TestToGoogleEvent_TimedCarriesTimezone(t *testing.T) {
	ev, err := BuildEvent(Deadline{Date: mustDate(t, "2026-03-15"), Time: "12:00", Label: "X"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g := toGoogleEvent(ev)
	if g.Start.TimeZone != "Europe/London" || g.End.TimeZone != "Europe/London" {
		t.Fatalf("unexpected timezones: %q %q", g.Start.TimeZone, g.End.TimeZone)
	}
	if g.Start.Date != "" {
		t.Fatal("timed event must not carry date")
	}
	// March is still GMT, so the offset is +00:00.
	if g.Start.DateTime != "2026-03-15T12:00:00Z" && g.Start.DateTime != "2026-03-15T12:00:00+00:00" {
		t.Fatalf("unexpected start: %q", g.Start.DateTime)
	}
}
