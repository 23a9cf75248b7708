package db

import "testing"

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Submission deadline", "Submission deadline"},
		{"  padded  ", "padded"},
		{"<b>bold</b> label", "bold label"},
		{"<script>alert('x')</script>safe", "safe"},
		{"R&D department", "R&D department"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := sanitizeText(tc.in); got != tc.want {
			t.Fatalf("sanitizeText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeTextPtr(t *testing.T) {
	if got := sanitizeTextPtr(nil); got != nil {
		t.Fatalf("expected nil for nil input, got %q", *got)
	}

	empty := "  <i></i>  "
	if got := sanitizeTextPtr(&empty); got != nil {
		t.Fatalf("expected nil for markup-only input, got %q", *got)
	}

	value := "<p>Via portal</p>"
	got := sanitizeTextPtr(&value)
	if got == nil || *got != "Via portal" {
		t.Fatalf("unexpected result: %v", got)
	}
}
