package api

import (
	"testing"
	"time"

	"github.com/david/rfp-tracker/internal/civil"
	"github.com/david/rfp-tracker/internal/extract"
	"github.com/david/rfp-tracker/internal/models"
	"github.com/david/rfp-tracker/internal/urgency"
)

func mustParseDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Submission deadline Council Website Refresh", "submission-deadline-council-website-refresh"},
		{"Q&A session (round 2)", "q-a-session-round-2"},
		{"  --- ", "deadline"},
		{"Already-Slugged", "already-slugged"},
	}
	for _, tc := range cases {
		if got := slugify(tc.in); got != tc.want {
			t.Fatalf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"RFP Final (v2).pdf", "RFP_Final__v2_.pdf"},
		{"../../etc/passwd", "passwd"},
		{"財務諸表.docx", "____.docx"},
		{"...", "upload"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDetectMimeType(t *testing.T) {
	if got := detectMimeType("application/pdf", "x.bin"); got != "application/pdf" {
		t.Fatalf("declared type ignored: %q", got)
	}
	if got := detectMimeType("text/plain; charset=utf-8", "x.bin"); got != "text/plain" {
		t.Fatalf("parameters not stripped: %q", got)
	}
	if got := detectMimeType("", "report.pdf"); got != "application/pdf" {
		t.Fatalf("extension fallback failed: %q", got)
	}
	if got := detectMimeType("application/octet-stream", "notes.txt"); got != "text/plain" {
		t.Fatalf("octet-stream not replaced by extension: %q", got)
	}
	if got := detectMimeType("", "mystery"); got != "application/octet-stream" {
		t.Fatalf("unknown should fall back to octet-stream: %q", got)
	}
}

func TestCandidatesToParams(t *testing.T) {
	in := []extract.RawCandidate{
		{Date: "2026-03-15", Time: "17:00", Label: "Submission deadline", Context: "Portal only"},
		{Date: "not-a-date", Label: "dropped"},
		{Date: "2026-04-01", Time: "5pm", Label: "Questions due"},
		{Date: "2026-05-01"},
	}

	out := candidatesToParams("rfp-1", in)
	if len(out) != 3 {
		t.Fatalf("expected 3 params, got %d", len(out))
	}

	if out[0].Time == nil || *out[0].Time != "17:00" {
		t.Fatalf("valid time lost: %+v", out[0])
	}
	if out[0].Context == nil || *out[0].Context != "Portal only" {
		t.Fatalf("context lost: %+v", out[0])
	}
	if out[1].Time != nil {
		t.Fatalf("invalid time should be demoted to all-day: %+v", out[1])
	}
	if out[2].Label != "Deadline" {
		t.Fatalf("empty label should default, got %q", out[2].Label)
	}
	for _, p := range out {
		if p.RFPID != "rfp-1" {
			t.Fatalf("rfp id not set: %+v", p)
		}
	}
}

func TestDecorateDeadlineComputesUrgency(t *testing.T) {
	s := &Server{now: func() time.Time {
		return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	}}

	d := models.DeadlineWithRFP{RFPName: "Test RFP"}
	d.Label = "Submission deadline"
	d.Date = mustParseDate(t, "2026-03-12")

	resp := s.decorateDeadline(d)
	if resp.Urgency != urgency.Critical {
		t.Fatalf("expected critical, got %s", resp.Urgency)
	}

	d.Completed = true
	if got := s.decorateDeadline(d).Urgency; got != urgency.Completed {
		t.Fatalf("expected completed, got %s", got)
	}
}
