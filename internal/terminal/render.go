package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/perch-hq/agentic-context-engine/internal/diff"
)

// DiffRenderer renders a decoration as a unified-style terminal diff.
// Character-level changes inside modified lines get their own highlight.
type DiffRenderer struct {
	added      lipgloss.Style
	removed    lipgloss.Style
	context    lipgloss.Style
	insertMark lipgloss.Style
	deleteMark lipgloss.Style
	gutter     lipgloss.Style
}

// NewDiffRenderer creates a renderer. Pass color=false for plain output
// (pipes, logs, tests).
func NewDiffRenderer(color bool) *DiffRenderer {
	r := &DiffRenderer{}
	if !color {
		plain := lipgloss.NewStyle()
		r.added, r.removed, r.context = plain, plain, plain
		r.insertMark, r.deleteMark, r.gutter = plain, plain, plain
		return r
	}
	r.added = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	r.removed = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	r.context = lipgloss.NewStyle().Faint(true)
	r.insertMark = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("2"))
	r.deleteMark = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("1")).Strikethrough(true)
	r.gutter = lipgloss.NewStyle().Faint(true)
	return r
}

// Render produces the full diff listing, one terminal line per decoration
// line, in display order.
func (r *DiffRenderer) Render(info diff.DecorationInfo) string {
	lines := diff.SortLines(info)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, r.RenderLine(line))
	}
	return strings.Join(out, "\n")
}

// RenderLine renders a single decoration line with its gutter marker.
func (r *DiffRenderer) RenderLine(line diff.Line) string {
	switch line.Kind {
	case diff.LineAdded:
		return r.added.Render("+ "+line.Text) + r.lineNo(0, line.ModifiedLine)
	case diff.LineRemoved:
		return r.removed.Render("- "+line.Text) + r.lineNo(line.OriginalLine, 0)
	case diff.LineModified:
		return r.renderModified(line)
	default:
		return r.context.Render("  "+line.Text) + r.lineNo(line.OriginalLine, line.ModifiedLine)
	}
}

// renderModified interleaves the line's change records so deletions appear
// struck through in place, before the text that replaced them.
func (r *DiffRenderer) renderModified(line diff.Line) string {
	var b strings.Builder
	b.WriteString("~ ")
	for _, change := range line.Changes {
		switch change.Type {
		case diff.ChangeInsert:
			b.WriteString(r.insertMark.Render(change.Text))
		case diff.ChangeDelete:
			b.WriteString(r.deleteMark.Render(change.Text))
		default:
			b.WriteString(change.Text)
		}
	}
	if len(line.Changes) == 0 {
		b.WriteString(line.Text)
	}
	return b.String() + r.lineNo(line.OriginalLine, line.ModifiedLine)
}

func (r *DiffRenderer) lineNo(orig, mod int) string {
	left, right := "-", "-"
	if orig > 0 {
		left = fmt.Sprintf("%d", orig)
	}
	if mod > 0 {
		right = fmt.Sprintf("%d", mod)
	}
	return r.gutter.Render(fmt.Sprintf("  [%s:%s]", left, right))
}

// RenderStats formats a one-line change summary.
func RenderStats(s diff.Stats) string {
	return fmt.Sprintf("+%d -%d ~%d lines, +%d -%d chars",
		s.AddedLines, s.RemovedLines, s.ModifiedLines, s.AddedChars, s.RemovedChars)
}
