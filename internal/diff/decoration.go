// Package diff computes structured change models ("decorations") between two
// text snapshots using the sergi/go-diff engine, suitable for driving visual
// rendering of AI-proposed edits.
package diff

import (
	"sort"
	"strings"
)

// ChangeType classifies a character-level change inside a modified line.
type ChangeType string

const (
	ChangeUnchanged ChangeType = "unchanged"
	ChangeInsert    ChangeType = "insert"
	ChangeDelete    ChangeType = "delete"
)

// Span is a half-open [Start, End) byte range within a line's text.
type Span struct {
	Start int
	End   int
}

// Len returns the span width in bytes.
func (s Span) Len() int { return s.End - s.Start }

// LineChange is one ordered change record inside a modified line.
//
// Invariant: concatenating the Text of all unchanged+insert changes of a line
// yields the modified line text exactly; unchanged+delete yields the original.
type LineChange struct {
	Type          ChangeType
	OriginalRange Span
	ModifiedRange Span
	Text          string
}

// LineKind classifies a decoration line entry.
type LineKind string

const (
	LineUnchanged LineKind = "unchanged"
	LineAdded     LineKind = "added"
	LineRemoved   LineKind = "removed"
	LineModified  LineKind = "modified"
)

// Line is one entry of a decoration. Field presence depends on Kind:
//
//	unchanged: OriginalLine, ModifiedLine, Text (identical on both sides)
//	added:     ModifiedLine, Text
//	removed:   OriginalLine, Text
//	modified:  OriginalLine, ModifiedLine, OldText, Text (new), Changes
//
// Line numbers are 1-based; 0 means the side is absent.
type Line struct {
	Kind         LineKind
	OriginalLine int
	ModifiedLine int
	Text         string
	OldText      string
	Changes      []LineChange
}

// DecorationInfo is the full change model for one diff operation: four
// disjoint ordered sequences of line entries. Immutable once produced.
type DecorationInfo struct {
	AddedLines     []Line
	RemovedLines   []Line
	ModifiedLines  []Line
	UnchangedLines []Line

	// Newline is the line separator the inputs were split on.
	Newline string
}

// OriginalText reconstructs the original input from the old-side projection.
func (d DecorationInfo) OriginalText() string {
	var lines []Line
	lines = append(lines, d.UnchangedLines...)
	lines = append(lines, d.RemovedLines...)
	lines = append(lines, d.ModifiedLines...)
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].OriginalLine < lines[j].OriginalLine
	})

	texts := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Kind == LineModified {
			texts = append(texts, l.OldText)
		} else {
			texts = append(texts, l.Text)
		}
	}
	return strings.Join(texts, d.Newline)
}

// ModifiedText reconstructs the modified input from the new-side projection.
func (d DecorationInfo) ModifiedText() string {
	var lines []Line
	lines = append(lines, d.UnchangedLines...)
	lines = append(lines, d.AddedLines...)
	lines = append(lines, d.ModifiedLines...)
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].ModifiedLine < lines[j].ModifiedLine
	})

	texts := make([]string, 0, len(lines))
	for _, l := range lines {
		texts = append(texts, l.Text)
	}
	return strings.Join(texts, d.Newline)
}
