package extract

import "unicode/utf8"

// Chunk splits text into windows of at most maxChars bytes, each overlapping
// the previous one by roughly overlapChars, so a deadline statement straddling
// a window boundary still appears whole in at least one window. Cuts land on
// UTF-8 rune boundaries; every chunk of valid input is valid UTF-8.
//
// Text no longer than maxChars comes back as a single chunk, unchanged —
// including empty text, which yields [""] so the extractor still runs once
// and may legitimately return nothing.
func Chunk(text string, maxChars, overlapChars int) ([]string, error) {
	if maxChars <= 0 || overlapChars < 0 || maxChars <= overlapChars {
		return nil, ErrInvalidChunkConfig
	}

	if len(text) <= maxChars {
		return []string{text}, nil
	}

	var chunks []string
	start := 0
	for {
		end := start + maxChars
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			return chunks, nil
		}
		for end > start && !utf8.RuneStart(text[end]) {
			end--
		}
		if end == start {
			// Window narrower than the rune at start; take the rune whole.
			_, n := utf8.DecodeRuneInString(text[start:])
			end = start + n
			if end >= len(text) {
				chunks = append(chunks, text[start:])
				return chunks, nil
			}
		}
		chunks = append(chunks, text[start:end])

		next := end - overlapChars
		if next <= start {
			next = start + 1
		}
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}
}
