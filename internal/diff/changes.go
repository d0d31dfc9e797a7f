package diff

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// lineChanges computes the ordered change records for one modified line.
// Character granularity is attempted first; when the merged result is not a
// simple line diff the coarser chunk (word) granularity is used instead.
func lineChanges(dmp *diffmatchpatch.DiffMatchPatch, oldText, newText string, chunkPattern *regexp.Regexp) []LineChange {
	charLevel := changesFromDiffs(dmp.DiffMain(oldText, newText, false))
	if IsSimpleDiff(charLevel) {
		return charLevel
	}
	return changesFromDiffs(chunkDiff(dmp, oldText, newText, chunkPattern))
}

// changesFromDiffs converts a diff script into LineChange records with byte
// ranges into the original and modified line text. Replace pairs have their
// shared leading/trailing whitespace stripped into unchanged records so
// whitespace churn is not presented as a content change. Adjacent same-type
// records are merged.
func changesFromDiffs(diffs []diffmatchpatch.Diff) []LineChange {
	var changes []LineChange
	orig, mod := 0, 0

	unchanged := func(text string) {
		changes = append(changes, LineChange{
			Type:          ChangeUnchanged,
			OriginalRange: Span{orig, orig + len(text)},
			ModifiedRange: Span{mod, mod + len(text)},
			Text:          text,
		})
		orig += len(text)
		mod += len(text)
	}
	deleted := func(text string) {
		if text == "" {
			return
		}
		changes = append(changes, LineChange{
			Type:          ChangeDelete,
			OriginalRange: Span{orig, orig + len(text)},
			ModifiedRange: Span{mod, mod},
			Text:          text,
		})
		orig += len(text)
	}
	inserted := func(text string) {
		if text == "" {
			return
		}
		changes = append(changes, LineChange{
			Type:          ChangeInsert,
			OriginalRange: Span{orig, orig},
			ModifiedRange: Span{mod, mod + len(text)},
			Text:          text,
		})
		mod += len(text)
	}

	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			if d.Text != "" {
				unchanged(d.Text)
			}

		case diffmatchpatch.DiffDelete:
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				del, ins := d.Text, diffs[i+1].Text
				i++

				lead := commonWhitespacePrefix(del, ins)
				del, ins = del[lead:], ins[lead:]
				trail := commonWhitespaceSuffix(del, ins)

				if lead > 0 {
					unchanged(d.Text[:lead])
				}
				deleted(del[:len(del)-trail])
				inserted(ins[:len(ins)-trail])
				if trail > 0 {
					unchanged(del[len(del)-trail:])
				}
			} else {
				deleted(d.Text)
			}

		case diffmatchpatch.DiffInsert:
			inserted(d.Text)
		}
	}

	return mergeChanges(changes)
}

// chunkDiff diffs two lines at chunk granularity by mapping each distinct
// chunk to a rune, the same reduction the engine uses for whole lines.
func chunkDiff(dmp *diffmatchpatch.DiffMatchPatch, oldText, newText string, pattern *regexp.Regexp) []diffmatchpatch.Diff {
	index := map[string]rune{}
	var table []string
	encode := func(chunks []string) []rune {
		runes := make([]rune, 0, len(chunks))
		for _, c := range chunks {
			r, ok := index[c]
			if !ok {
				r = lineRune(len(table))
				index[c] = r
				table = append(table, c)
			}
			runes = append(runes, r)
		}
		return runes
	}

	a := encode(tokenize(oldText, pattern))
	b := encode(tokenize(newText, pattern))
	encoded := dmp.DiffMainRunes(a, b, false)

	diffs := make([]diffmatchpatch.Diff, 0, len(encoded))
	for _, d := range encoded {
		var text string
		for _, r := range d.Text {
			text += table[lineRuneIndex(r)]
		}
		diffs = append(diffs, diffmatchpatch.Diff{Type: d.Type, Text: text})
	}
	return diffs
}

// tokenize splits text into chunks matching pattern. Any bytes the pattern
// skips are preserved as their own chunks so reassembly is lossless.
func tokenize(text string, pattern *regexp.Regexp) []string {
	var chunks []string
	last := 0
	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			chunks = append(chunks, text[last:loc[0]])
		}
		chunks = append(chunks, text[loc[0]:loc[1]])
		last = loc[1]
	}
	if last < len(text) {
		chunks = append(chunks, text[last:])
	}
	return chunks
}

// commonWhitespacePrefix returns the byte length of the longest identical
// whitespace-only prefix shared by a and b.
func commonWhitespacePrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) {
		r, size := utf8.DecodeRuneInString(a[n:])
		if !unicode.IsSpace(r) || n+size > len(b) || a[n:n+size] != b[n:n+size] {
			break
		}
		n += size
	}
	return n
}

// commonWhitespaceSuffix returns the byte length of the longest identical
// whitespace-only suffix shared by a and b.
func commonWhitespaceSuffix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) {
		r, size := utf8.DecodeLastRuneInString(a[:len(a)-n])
		if !unicode.IsSpace(r) || n+size > len(b) || a[len(a)-n-size:len(a)-n] != b[len(b)-n-size:len(b)-n] {
			break
		}
		n += size
	}
	return n
}
