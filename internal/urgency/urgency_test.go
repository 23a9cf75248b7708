package urgency

import (
	"testing"
	"time"

	"github.com/david/rfp-tracker/internal/civil"
)

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func TestClassify_CompletedWinsOverEverything(t *testing.T) {
	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	for _, date := range []string{"2020-01-01", "2026-02-15", "2030-12-31"} {
		if got := Classify(mustDate(t, date), true, now); got != Completed {
			t.Fatalf("expected completed for %s, got %s", date, got)
		}
	}
}

func TestClassify_DayBuckets(t *testing.T) {
	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		date string
		want Level
	}{
		{"2026-02-14", Overdue},  // yesterday
		{"2026-02-15", Critical}, // today
		{"2026-02-18", Critical}, // +3
		{"2026-02-19", Warning},  // +4
		{"2026-02-22", Warning},  // +7
		{"2026-02-23", Safe},     // +8
		{"2025-06-01", Overdue},
		{"2027-01-01", Safe},
	}
	for _, tc := range cases {
		if got := Classify(mustDate(t, tc.date), false, now); got != tc.want {
			t.Fatalf("classify(%s): expected %s, got %s", tc.date, tc.want, got)
		}
	}
}

func TestClassify_DSTBoundary(t *testing.T) {
	// London springs forward on 2026-03-29. At 23:30 UTC on the 29th it is
	// already 00:30 on the 30th in London, so a deadline on the 30th is due
	// "today" (critical), even though the UTC date still reads the 29th.
	now := time.Date(2026, 3, 29, 23, 30, 0, 0, time.UTC)
	if got := Classify(mustDate(t, "2026-03-30"), false, now); got != Critical {
		t.Fatalf("expected critical across DST boundary, got %s", got)
	}

	// And the 29th itself is now yesterday in London terms.
	if got := Classify(mustDate(t, "2026-03-29"), false, now); got != Overdue {
		t.Fatalf("expected overdue across DST boundary, got %s", got)
	}
}

func TestClassify_HostTimezoneIndependent(t *testing.T) {
	// The same instant expressed in a far-east timezone must classify
	// identically: only London's calendar matters.
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	instant := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	date := mustDate(t, "2026-02-15")

	if got, want := Classify(date, false, instant.In(tokyo)), Classify(date, false, instant); got != want {
		t.Fatalf("classification changed with caller timezone: %s vs %s", got, want)
	}
}
