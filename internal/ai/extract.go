package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/david/rfp-tracker/internal/extract"
)

const candidateSystemPrompt = `You are a helpful assistant that extracts dates and deadlines from RFP (Request for Proposal) documents.

Extract ALL dates mentioned in the document, including:
- Submission deadlines
- Question/clarification deadlines
- Site visit dates
- Pre-bid meeting dates
- Contract start/end dates
- Any other milestone dates

For each date found, provide:
1. date: in YYYY-MM-DD format
2. time: in HH:MM format (24-hour) if specified, otherwise null
3. label: a brief description of what the deadline is for
4. context: additional context or requirements related to this date

Return your response as a JSON object with a "dates" array containing objects with these fields.

If no dates are found, return an empty dates array.`

// ExtractFromText asks the model for all deadline candidates in one text
// segment. Implements extract.TextCandidateExtractor.
func (c *OpenAIClient) ExtractFromText(ctx context.Context, segment string) ([]extract.RawCandidate, error) {
	content, err := c.ChatJSON(ctx, []chatMessage{
		{Role: "system", Content: candidateSystemPrompt},
		{Role: "user", Content: segment},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extract.ErrExtractionFailed, err)
	}

	return parseCandidatesPayload(content)
}

// ExtractFromImage asks the vision model for all deadline candidates in a
// document image. Implements extract.ImageCandidateExtractor.
func (c *OpenAIClient) ExtractFromImage(ctx context.Context, data []byte, mimeType string) ([]extract.RawCandidate, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))

	content, err := c.ChatJSON(ctx, []chatMessage{
		{Role: "system", Content: candidateSystemPrompt},
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: "Extract all dates and deadlines from this document image."},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extract.ErrExtractionFailed, err)
	}

	return parseCandidatesPayload(content)
}

type candidatesPayload struct {
	Dates []extract.RawCandidate `json:"dates"`
}

// parseCandidatesPayload decodes the model's JSON answer. JSON mode is
// usually clean, but models still occasionally wrap output in markdown
// fences or leading prose, so strip those before giving up.
func parseCandidatesPayload(resp string) ([]extract.RawCandidate, error) {
	cleaned := strings.TrimSpace(resp)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	if jsonStr, ok := extractFirstJSONObject(cleaned); ok {
		cleaned = jsonStr
	}

	var payload candidatesPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		snippet := resp
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		return nil, fmt.Errorf("%w: %v (response: %s)", extract.ErrMalformedOutput, err, snippet)
	}

	if payload.Dates == nil {
		return []extract.RawCandidate{}, nil
	}
	return payload.Dates, nil
}

// extractFirstJSONObject finds the first outermost balanced {...}
func extractFirstJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		char := s[i]

		if escaped {
			escaped = false
			continue
		}

		if char == '\\' {
			escaped = true
			continue
		}

		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			if char == '{' {
				depth++
			} else if char == '}' {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}

	return "", false
}
