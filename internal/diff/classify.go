package diff

import (
	"strings"
	"unicode"
)

// mergeChanges collapses adjacent records of identical type into one,
// concatenating text and extending the byte ranges.
func mergeChanges(changes []LineChange) []LineChange {
	if len(changes) < 2 {
		return changes
	}
	merged := changes[:1]
	for _, c := range changes[1:] {
		last := &merged[len(merged)-1]
		if c.Type == last.Type {
			last.Text += c.Text
			last.OriginalRange.End = c.OriginalRange.End
			last.ModifiedRange.End = c.ModifiedRange.End
			continue
		}
		merged = append(merged, c)
	}
	return merged
}

// IsSimpleDiff reports whether a merged change sequence is readable enough to
// present at its current granularity. A sequence is simple when it has at
// most one record, or when no record immediately follows a replacement (two
// modifications in a row) without an intervening unchanged span containing
// whitespace. A sequence may end immediately after a replacement.
//
// Arbitrarily interleaved character-level insert/delete pairs are unreadable;
// failing this predicate triggers the coarser chunk-granularity retry.
func IsSimpleDiff(changes []LineChange) bool {
	if len(changes) <= 1 {
		return true
	}

	prevModified := false
	for i, c := range changes {
		modified := c.Type != ChangeUnchanged
		if modified && prevModified {
			// Replacement at i. Whatever follows must be a whitespace-bearing
			// unchanged span, unless the sequence ends here.
			if i+1 < len(changes) {
				next := changes[i+1]
				if next.Type != ChangeUnchanged || !containsWhitespace(next.Text) {
					return false
				}
			}
		}
		prevModified = modified
	}
	return true
}

func containsWhitespace(text string) bool {
	return strings.IndexFunc(text, unicode.IsSpace) >= 0
}
