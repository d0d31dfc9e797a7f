package diff

// Stats aggregates line and character totals per change category.
type Stats struct {
	AddedLines     int
	RemovedLines   int
	ModifiedLines  int
	UnchangedLines int

	AddedChars     int
	RemovedChars   int
	UnchangedChars int
}

// ComputeStats derives counting totals from a decoration. Character totals
// count added/removed whole lines plus the per-change text of modified lines.
func ComputeStats(info DecorationInfo) Stats {
	stats := Stats{
		AddedLines:     len(info.AddedLines),
		RemovedLines:   len(info.RemovedLines),
		ModifiedLines:  len(info.ModifiedLines),
		UnchangedLines: len(info.UnchangedLines),
	}

	for _, l := range info.AddedLines {
		stats.AddedChars += len(l.Text)
	}
	for _, l := range info.RemovedLines {
		stats.RemovedChars += len(l.Text)
	}
	for _, l := range info.UnchangedLines {
		stats.UnchangedChars += len(l.Text)
	}
	for _, l := range info.ModifiedLines {
		for _, c := range l.Changes {
			switch c.Type {
			case ChangeInsert:
				stats.AddedChars += len(c.Text)
			case ChangeDelete:
				stats.RemovedChars += len(c.Text)
			default:
				stats.UnchangedChars += len(c.Text)
			}
		}
	}

	return stats
}

// IsOnlyAddingText reports whether the decoration describes a pure insertion:
// nothing removed anywhere, and at least one added line or inserted span.
func IsOnlyAddingText(info DecorationInfo) bool {
	if len(info.RemovedLines) > 0 {
		return false
	}
	inserts := len(info.AddedLines) > 0
	for _, l := range info.ModifiedLines {
		for _, c := range l.Changes {
			if c.Type == ChangeDelete {
				return false
			}
			if c.Type == ChangeInsert {
				inserts = true
			}
		}
	}
	return inserts
}

// IsOnlyRemovingText reports whether the decoration describes a pure
// deletion: nothing added anywhere, and at least one removed line or deleted
// span.
func IsOnlyRemovingText(info DecorationInfo) bool {
	if len(info.AddedLines) > 0 {
		return false
	}
	deletes := len(info.RemovedLines) > 0
	for _, l := range info.ModifiedLines {
		for _, c := range l.Changes {
			if c.Type == ChangeInsert {
				return false
			}
			if c.Type == ChangeDelete {
				deletes = true
			}
		}
	}
	return deletes
}
