package diff

import (
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// defaultChunkPattern tokenizes a line into word, whitespace, and punctuation
// runs for the coarse-granularity intra-line diff. The alternation covers
// every byte, so a tokenization always reassembles into the input.
var defaultChunkPattern = regexp.MustCompile(`\w+|\s+|[^\w\s]+`)

// Option configures Decorate.
type Option func(*options)

type options struct {
	chunkPattern *regexp.Regexp
}

// WithChunkPattern overrides the chunk tokenizer used when a character-level
// line diff is too noisy to present.
func WithChunkPattern(re *regexp.Regexp) Option {
	return func(o *options) { o.chunkPattern = re }
}

// Decorate computes the decoration model between two text snapshots. It is
// total over all string inputs; empty inputs degenerate to all-added or
// all-removed lines.
func Decorate(original, modified string, opts ...Option) DecorationInfo {
	o := options{chunkPattern: defaultChunkPattern}
	for _, opt := range opts {
		opt(&o)
	}

	nl := detectNewline(original, modified)
	origLines := strings.Split(original, nl)
	modLines := strings.Split(modified, nl)

	info := DecorationInfo{Newline: nl}
	dmp := diffmatchpatch.New()

	origNo, modNo := 1, 1
	emit := func(l Line) {
		switch l.Kind {
		case LineAdded:
			info.AddedLines = append(info.AddedLines, l)
		case LineRemoved:
			info.RemovedLines = append(info.RemovedLines, l)
		case LineModified:
			info.ModifiedLines = append(info.ModifiedLines, l)
		default:
			info.UnchangedLines = append(info.UnchangedLines, l)
		}
	}

	hunks := lineHunks(dmp, origLines, modLines)
	for _, h := range hunks {
		switch {
		case h.equal != nil:
			for _, text := range h.equal {
				emit(Line{Kind: LineUnchanged, OriginalLine: origNo, ModifiedLine: modNo, Text: text})
				origNo++
				modNo++
			}

		default:
			// Pair the first min(deletions, insertions) lines positionally.
			paired := min(len(h.deleted), len(h.inserted))
			for i := 0; i < paired; i++ {
				oldText, newText := h.deleted[i], h.inserted[i]
				if oldText == newText {
					emit(Line{Kind: LineUnchanged, OriginalLine: origNo, ModifiedLine: modNo, Text: newText})
				} else {
					emit(Line{
						Kind:         LineModified,
						OriginalLine: origNo,
						ModifiedLine: modNo,
						OldText:      oldText,
						Text:         newText,
						Changes:      lineChanges(dmp, oldText, newText, o.chunkPattern),
					})
				}
				origNo++
				modNo++
			}
			for _, text := range h.deleted[paired:] {
				emit(Line{Kind: LineRemoved, OriginalLine: origNo, Text: text})
				origNo++
			}
			for _, text := range h.inserted[paired:] {
				emit(Line{Kind: LineAdded, ModifiedLine: modNo, Text: text})
				modNo++
			}
		}
	}

	return info
}

// hunk is one contiguous region of the line-level edit script: either a run
// of equal lines or a replace/insert/delete block.
type hunk struct {
	equal    []string
	deleted  []string
	inserted []string
}

// lineHunks computes a minimal line-level edit script. Each distinct line is
// mapped to a rune so the character-level diff engine can operate on whole
// lines, then delete/insert adjacency is coalesced into replace hunks.
func lineHunks(dmp *diffmatchpatch.DiffMatchPatch, origLines, modLines []string) []hunk {
	index := map[string]rune{}
	var table []string
	encode := func(lines []string) []rune {
		runes := make([]rune, 0, len(lines))
		for _, l := range lines {
			r, ok := index[l]
			if !ok {
				r = lineRune(len(table))
				index[l] = r
				table = append(table, l)
			}
			runes = append(runes, r)
		}
		return runes
	}
	decode := func(text string) []string {
		var lines []string
		for _, r := range text {
			lines = append(lines, table[lineRuneIndex(r)])
		}
		return lines
	}

	a := encode(origLines)
	b := encode(modLines)
	diffs := dmp.DiffMainRunes(a, b, false)

	var hunks []hunk
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			hunks = append(hunks, hunk{equal: decode(d.Text)})

		case diffmatchpatch.DiffDelete:
			h := hunk{deleted: decode(d.Text)}
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				h.inserted = decode(diffs[i+1].Text)
				i++
			}
			hunks = append(hunks, h)

		case diffmatchpatch.DiffInsert:
			h := hunk{inserted: decode(d.Text)}
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffDelete {
				h.deleted = decode(diffs[i+1].Text)
				i++
			}
			hunks = append(hunks, h)
		}
	}
	return hunks
}

// lineRune maps a line table index to a rune, skipping the surrogate range
// which cannot survive string round-trips inside the diff engine.
func lineRune(i int) rune {
	r := rune(i + 1)
	if r >= 0xD800 {
		r += 0x800
	}
	return r
}

func lineRuneIndex(r rune) int {
	if r >= 0xD800+0x800 {
		r -= 0x800
	}
	return int(r - 1)
}

// detectNewline picks the dominant newline convention, preferring the
// original text's, falling back to the modified text's, then to "\n".
func detectNewline(original, modified string) string {
	for _, text := range []string{original, modified} {
		crlf := strings.Count(text, "\r\n")
		lf := strings.Count(text, "\n") - crlf
		if crlf > lf {
			return "\r\n"
		}
		if lf > 0 || crlf > 0 {
			return "\n"
		}
	}
	return "\n"
}
