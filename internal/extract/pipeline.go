package extract

import (
	"context"
	"fmt"
	"log"
)

// Default chunk geometry: GPT-class models have room for far more, but we
// leave headroom for the system prompt and the structured response.
const (
	DefaultMaxChunkChars = 50000
	DefaultChunkOverlap  = 500
)

// Pipeline chains chunking, per-segment extraction, and deduplication.
// It holds no mutable state; one value can serve concurrent requests.
type Pipeline struct {
	Text  TextCandidateExtractor
	Image ImageCandidateExtractor

	MaxChunkChars int
	ChunkOverlap  int
}

// NewPipeline builds a pipeline with the default chunk geometry.
func NewPipeline(text TextCandidateExtractor, image ImageCandidateExtractor) *Pipeline {
	return &Pipeline{
		Text:          text,
		Image:         image,
		MaxChunkChars: DefaultMaxChunkChars,
		ChunkOverlap:  DefaultChunkOverlap,
	}
}

// FromText extracts deadline candidates from a document's text.
//
// Chunks are processed strictly one at a time: ordering feeds the
// first-wins dedup rule, and the extractor never sees more than one
// in-flight request per document. Any chunk failure fails the whole
// document — there is no partial-success aggregation, and no retry here;
// retry policy belongs to the caller.
func (p *Pipeline) FromText(ctx context.Context, text string) ([]RawCandidate, error) {
	chunks, err := Chunk(text, p.MaxChunkChars, p.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	if len(chunks) > 1 {
		log.Printf("Extracting deadlines from %d chunks (%d chars)", len(chunks), len(text))
	}

	var all []RawCandidate
	for i, chunk := range chunks {
		candidates, err := p.Text.ExtractFromText(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		all = append(all, candidates...)
	}

	return Dedupe(all), nil
}

// FromImage extracts deadline candidates from a document image. The output
// is deduped as well, so every pipeline result upholds the unique
// (date, label) invariant.
func (p *Pipeline) FromImage(ctx context.Context, data []byte, mimeType string) ([]RawCandidate, error) {
	candidates, err := p.Image.ExtractFromImage(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}
	return Dedupe(candidates), nil
}
