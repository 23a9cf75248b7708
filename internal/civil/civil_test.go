package civil

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year != 2026 || d.Month != time.March || d.Day != 15 {
		t.Fatalf("unexpected date: %+v", d)
	}
	if d.String() != "2026-03-15" {
		t.Fatalf("expected round-trip, got %s", d.String())
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "15/03/2026", "2026-13-01", "March 15, 2026"} {
		if _, err := ParseDate(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestAddDays_MonthRollover(t *testing.T) {
	d := Date{Year: 2026, Month: time.January, Day: 31}
	got := d.AddDays(1)
	want := Date{Year: 2026, Month: time.February, Day: 1}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDaysUntil_AcrossSpringForward(t *testing.T) {
	// Europe/London loses an hour on 2026-03-29. The gap between the two
	// civil dates is still exactly 2 days even though only 47 wall-clock
	// hours separate their London midnights.
	before := Date{Year: 2026, Month: time.March, Day: 28}
	after := Date{Year: 2026, Month: time.March, Day: 30}
	if got := before.DaysUntil(after); got != 2 {
		t.Fatalf("expected 2 days, got %d", got)
	}
	if got := after.DaysUntil(before); got != -2 {
		t.Fatalf("expected -2 days, got %d", got)
	}
}

func TestBefore(t *testing.T) {
	a := Date{Year: 2026, Month: time.March, Day: 28}
	b := Date{Year: 2026, Month: time.March, Day: 30}
	if !a.Before(b) {
		t.Fatalf("expected %v before %v", a, b)
	}
	if b.Before(a) {
		t.Fatalf("did not expect %v before %v", b, a)
	}
	if a.Before(a) {
		t.Fatal("a date is not before itself")
	}
}

func TestDateOf_UsesLocationCalendar(t *testing.T) {
	// 23:30 UTC on the 29th is already the 30th in London (BST, UTC+1).
	instant := time.Date(2026, 3, 29, 23, 30, 0, 0, time.UTC)
	got := DateOf(instant.In(London))
	want := Date{Year: 2026, Month: time.March, Day: 30}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := Date{Year: 2026, Month: time.February, Day: 5}
	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `"2026-02-05"` {
		t.Fatalf("unexpected JSON: %s", raw)
	}

	var back Date
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != d {
		t.Fatalf("expected %v, got %v", d, back)
	}
}
