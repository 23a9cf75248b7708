package extract

import (
	"reflect"
	"testing"
)

func TestDedupe_FirstOccurrenceWins(t *testing.T) {
	in := []RawCandidate{
		{Date: "2024-03-15", Label: "X", Context: "A"},
		{Date: "2024-03-15", Label: "X", Context: "B"},
	}

	out := Dedupe(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(out))
	}
	if out[0].Context != "A" {
		t.Fatalf("expected first context to win, got %q", out[0].Context)
	}
}

func TestDedupe_KeyIsDateAndLabel(t *testing.T) {
	in := []RawCandidate{
		{Date: "2024-03-15", Label: "Submission deadline"},
		{Date: "2024-03-15", Label: "Questions due"},   // same date, different label
		{Date: "2024-04-01", Label: "Submission deadline"}, // same label, different date
		{Date: "2024-03-15", Label: "Submission Deadline"}, // case differs: distinct on purpose
	}

	out := Dedupe(in)
	if len(out) != 4 {
		t.Fatalf("expected 4 distinct candidates, got %d", len(out))
	}
}

func TestDedupe_PreservesOrder(t *testing.T) {
	in := []RawCandidate{
		{Date: "2024-05-01", Label: "C"},
		{Date: "2024-01-01", Label: "A"},
		{Date: "2024-05-01", Label: "C"},
		{Date: "2024-03-01", Label: "B"},
	}

	out := Dedupe(in)
	var labels []string
	for _, c := range out {
		labels = append(labels, c.Label)
	}
	if !reflect.DeepEqual(labels, []string{"C", "A", "B"}) {
		t.Fatalf("expected first-occurrence order, got %v", labels)
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	in := []RawCandidate{
		{Date: "2024-03-15", Label: "X", Context: "A"},
		{Date: "2024-03-15", Label: "X", Context: "B"},
		{Date: "2024-03-16", Label: "Y"},
	}

	once := Dedupe(in)
	twice := Dedupe(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("dedupe not idempotent: %v vs %v", once, twice)
	}
}

func TestDedupe_EmptyInput(t *testing.T) {
	out := Dedupe(nil)
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}
}
