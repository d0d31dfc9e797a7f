// Package domain defines the core value types shared across the engine.
package domain

// Source identifies where a context item came from. Items tagged SourceUser
// are never dropped by the reviewer's reflection step.
type Source string

const (
	SourceUser    Source = "user"
	SourceInitial Source = "initial"
	SourceEditor  Source = "editor"
	SourceSearch  Source = "search"
	SourceAgentic Source = "agentic"
	SourceTool    Source = "tool"
)

// ItemKind classifies the unit of information a context item carries.
type ItemKind string

const (
	KindFile       ItemKind = "file"
	KindSymbol     ItemKind = "symbol"
	KindRepository ItemKind = "repository"
	KindDirectory  ItemKind = "directory"
	KindToolOutput ItemKind = "tool-output"
	KindMedia      ItemKind = "media"
)

// LineRange is a half-open [Start, End) line span within a file.
type LineRange struct {
	Start int
	End   int
}

// ContextItem is one unit of retrievable information eligible for inclusion
// in a model prompt. Items are value objects: they are mutated only by
// replacement, never in place.
type ContextItem struct {
	Kind        ItemKind
	URI         string
	Range       *LineRange
	Content     string
	Source      Source
	Size        int
	Title       string
	Description string
	IsIgnored   bool
	IsTooLarge  bool
}

// IsUserAdded reports whether the item was explicitly added by the user.
// User-added items survive every reflection replacement.
func (c ContextItem) IsUserAdded() bool {
	return c.Source == SourceUser || c.Source == SourceInitial
}

// WithSource returns a copy of the item tagged with the given provenance.
func (c ContextItem) WithSource(s Source) ContextItem {
	c.Source = s
	return c
}

// TokenEstimate approximates the prompt token cost of a string.
// Uses the common chars/4 heuristic; good enough for budgeting, not billing.
func TokenEstimate(content string) int {
	return len(content) / 4
}

// UserAdded filters items down to the user-added subset, preserving order.
func UserAdded(items []ContextItem) []ContextItem {
	var out []ContextItem
	for _, item := range items {
		if item.IsUserAdded() {
			out = append(out, item)
		}
	}
	return out
}
