package calendar

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func encodeToString(t *testing.T, name string, events []Event) string {
	t.Helper()
	var buf bytes.Buffer
	if err := EncodeICS(&buf, name, events); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	return buf.String()
}

func TestEncodeICS_NoEvents(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeICS(&buf, "RFP Deadlines", nil); !errors.Is(err, ErrNoEvents) {
		t.Fatalf("expected ErrNoEvents, got %v", err)
	}
}

func TestEncodeICS_AllDayEvent(t *testing.T) {
	ev, err := BuildEvent(Deadline{
		Date:    mustDate(t, "2026-03-15"),
		Label:   "Submission deadline",
		RFPName: "Council Website Refresh",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := encodeToString(t, "RFP Deadlines", []Event{ev})

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"X-WR-CALNAME:RFP Deadlines",
		"BEGIN:VEVENT",
		"SUMMARY:Submission deadline - Council Website Refresh",
		"DTSTART;VALUE=DATE:20260315",
		"DTEND;VALUE=DATE:20260316",
		"BEGIN:VALARM",
		"ACTION:DISPLAY",
		"TRIGGER:-P1D",
		"END:VALARM",
		"END:VEVENT",
		"END:VCALENDAR",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("%q missing from output:\n%s", want, out)
		}
	}
}

func TestEncodeICS_TimedEventCarriesTZID(t *testing.T) {
	ev, err := BuildEvent(Deadline{
		Date:  mustDate(t, "2026-07-01"),
		Time:  "17:00",
		Label: "Questions due",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := encodeToString(t, "", []Event{ev})

	if !strings.Contains(out, "DTSTART;TZID=Europe/London:20260701T170000") {
		t.Fatalf("timed DTSTART missing from output:\n%s", out)
	}
	if !strings.Contains(out, "DTEND;TZID=Europe/London:20260701T180000") {
		t.Fatalf("timed DTEND missing from output:\n%s", out)
	}
	if strings.Contains(out, "X-WR-CALNAME") {
		t.Fatal("empty calendar name must not emit X-WR-CALNAME")
	}
}

func TestEncodeICS_OneVEventPerDeadline(t *testing.T) {
	events, err := BuildEvents([]Deadline{
		{Date: mustDate(t, "2026-03-15"), Label: "Submission deadline"},
		{Date: mustDate(t, "2026-03-01"), Time: "12:00", Label: "Questions due"},
		{Date: mustDate(t, "2026-02-10"), Label: "Site visit"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := encodeToString(t, "RFP Deadlines", events)

	if got := strings.Count(out, "BEGIN:VEVENT"); got != 3 {
		t.Fatalf("expected 3 VEVENTs, got %d", got)
	}
	if got := strings.Count(out, "BEGIN:VALARM"); got != 3 {
		t.Fatalf("expected 3 VALARMs, got %d", got)
	}

	// UIDs must be unique across events.
	uids := map[string]bool{}
	for _, line := range strings.Split(out, "\r\n") {
		if strings.HasPrefix(line, "UID:") {
			if uids[line] {
				t.Fatalf("duplicate UID line %q", line)
			}
			uids[line] = true
		}
	}
	if len(uids) != 3 {
		t.Fatalf("expected 3 UIDs, got %d", len(uids))
	}
}

func TestFormatNegativeDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{24 * time.Hour, "-P1D"},
		{48 * time.Hour, "-P2D"},
		{90 * time.Minute, "-PT1H30M"},
		{30 * time.Minute, "-PT30M"},
		{25 * time.Hour, "-P1DT1H"},
		{0, "-PT0S"},
	}
	for _, tc := range cases {
		if got := formatNegativeDuration(tc.in); got != tc.want {
			t.Fatalf("%v: got %q, want %q", tc.in, got, tc.want)
		}
	}
}
