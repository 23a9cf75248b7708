package extract

// Dedupe collapses candidates that share an exact (date, label) key. The
// first occurrence wins and keeps its context; later matches are dropped
// without merging. Output order is first-occurrence order.
//
// Near-duplicate labels ("Submission deadline" vs "Submission Deadline")
// do not merge; the key is exact string equality on purpose.
func Dedupe(candidates []RawCandidate) []RawCandidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]RawCandidate, 0, len(candidates))

	for _, c := range candidates {
		key := c.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}

	return out
}
