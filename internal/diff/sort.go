package diff

import "sort"

// kindPriority orders entries that share a line number:
// added before modified before unchanged before removed.
var kindPriority = map[LineKind]int{
	LineAdded:     0,
	LineModified:  1,
	LineUnchanged: 2,
	LineRemoved:   3,
}

// sortKey is the line number an entry is positioned at for rendering:
// the modified-side number where one exists, the original-side otherwise.
func sortKey(l Line) int {
	if l.Kind == LineRemoved {
		return l.OriginalLine
	}
	return l.ModifiedLine
}

// SortLines flattens a decoration into a single render-ordered sequence.
func SortLines(info DecorationInfo) []Line {
	lines := make([]Line, 0,
		len(info.AddedLines)+len(info.RemovedLines)+len(info.ModifiedLines)+len(info.UnchangedLines))
	lines = append(lines, info.AddedLines...)
	lines = append(lines, info.RemovedLines...)
	lines = append(lines, info.ModifiedLines...)
	lines = append(lines, info.UnchangedLines...)

	sort.SliceStable(lines, func(i, j int) bool {
		ki, kj := sortKey(lines[i]), sortKey(lines[j])
		if ki != kj {
			return ki < kj
		}
		return kindPriority[lines[i].Kind] < kindPriority[lines[j].Kind]
	})
	return lines
}
