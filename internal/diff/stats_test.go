package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	info := Decorate("a\nremoved\nshared old", "a\nshared new\nadded line")

	stats := ComputeStats(info)
	assert.Equal(t, len(info.AddedLines), stats.AddedLines)
	assert.Equal(t, len(info.RemovedLines), stats.RemovedLines)
	assert.Equal(t, len(info.ModifiedLines), stats.ModifiedLines)
	assert.Equal(t, len(info.UnchangedLines), stats.UnchangedLines)

	// Char totals must cover both inputs exactly once, minus the newlines.
	origChars := len("a\nremoved\nshared old") - 2
	modChars := len("a\nshared new\nadded line") - 2
	assert.Equal(t, origChars, stats.RemovedChars+stats.UnchangedChars)
	assert.Equal(t, modChars, stats.AddedChars+stats.UnchangedChars)
}

func TestIsOnlyAddingText(t *testing.T) {
	assert.True(t, IsOnlyAddingText(Decorate("a\nb", "a\nb\nc")))
	assert.False(t, IsOnlyAddingText(Decorate("a\nb\nc", "a\nb")))
	assert.False(t, IsOnlyAddingText(Decorate("a", "a")))
	assert.True(t, IsOnlyAddingText(Decorate("foo bar", "foo  bar")), "pure in-line insertion")
}

func TestIsOnlyRemovingText(t *testing.T) {
	assert.True(t, IsOnlyRemovingText(Decorate("a\nb\nc", "a\nb")))
	assert.False(t, IsOnlyRemovingText(Decorate("a\nb", "a\nb\nc")))
	assert.False(t, IsOnlyRemovingText(Decorate("a", "a")))
	assert.True(t, IsOnlyRemovingText(Decorate("foo  bar", "foo bar")), "pure in-line deletion")
}

func TestSortLines(t *testing.T) {
	info := DecorationInfo{
		AddedLines:     []Line{{Kind: LineAdded, ModifiedLine: 2, Text: "add"}},
		RemovedLines:   []Line{{Kind: LineRemoved, OriginalLine: 2, Text: "rm"}},
		ModifiedLines:  []Line{{Kind: LineModified, OriginalLine: 3, ModifiedLine: 2, Text: "mod"}},
		UnchangedLines: []Line{{Kind: LineUnchanged, OriginalLine: 1, ModifiedLine: 1, Text: "same"}},
		Newline:        "\n",
	}

	sorted := SortLines(info)
	require.Len(t, sorted, 4)

	// Position 1 first, then the three entries sharing position 2 in
	// added -> modified -> removed priority order.
	assert.Equal(t, LineUnchanged, sorted[0].Kind)
	assert.Equal(t, LineAdded, sorted[1].Kind)
	assert.Equal(t, LineModified, sorted[2].Kind)
	assert.Equal(t, LineRemoved, sorted[3].Kind)
}
