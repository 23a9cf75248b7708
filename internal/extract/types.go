// Package extract turns an arbitrary-length document into a deduplicated
// list of deadline candidates. The language-model call itself is injected
// as a capability interface so the pipeline runs without any network
// dependency under test and is swappable across providers.
package extract

import (
	"context"
	"errors"
)

// RawCandidate is a single deadline proposed by the extractor. Candidates
// from overlapping chunks may repeat; Dedupe collapses them.
type RawCandidate struct {
	Date    string `json:"date"`              // YYYY-MM-DD
	Time    string `json:"time,omitempty"`    // HH:MM 24h, empty when the source gave no time
	Label   string `json:"label"`             // what the deadline is for
	Context string `json:"context,omitempty"` // surrounding requirements, empty when absent
}

// Key is the dedup identity: exact (date, label) string equality.
func (c RawCandidate) Key() string {
	return c.Date + "|" + c.Label
}

// TextCandidateExtractor maps one text segment to zero or more candidates.
type TextCandidateExtractor interface {
	ExtractFromText(ctx context.Context, segment string) ([]RawCandidate, error)
}

// ImageCandidateExtractor maps one document image to zero or more candidates.
type ImageCandidateExtractor interface {
	ExtractFromImage(ctx context.Context, data []byte, mimeType string) ([]RawCandidate, error)
}

var (
	// ErrInvalidChunkConfig means the chunk parameters cannot make progress.
	ErrInvalidChunkConfig = errors.New("chunk size must be positive and greater than overlap")

	// ErrExtractionFailed wraps provider/network failures from the extractor.
	ErrExtractionFailed = errors.New("candidate extraction failed")

	// ErrMalformedOutput wraps responses that cannot be interpreted as
	// candidates, so callers can tell "service broke" from "model returned
	// garbage".
	ErrMalformedOutput = errors.New("malformed extractor output")
)
