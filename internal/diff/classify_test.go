package diff

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func change(t ChangeType, text string) LineChange {
	return LineChange{Type: t, Text: text}
}

func TestIsSimpleDiff(t *testing.T) {
	tests := []struct {
		name    string
		changes []LineChange
		want    bool
	}{
		{"empty", nil, true},
		{"single delete", []LineChange{change(ChangeDelete, "abc")}, true},
		{
			"replacement at end",
			[]LineChange{
				change(ChangeUnchanged, "prefix "),
				change(ChangeDelete, "old"),
				change(ChangeInsert, "new"),
			},
			true,
		},
		{
			"replacement followed by whitespace span",
			[]LineChange{
				change(ChangeDelete, "old"),
				change(ChangeInsert, "new"),
				change(ChangeUnchanged, " = "),
				change(ChangeInsert, "1"),
			},
			true,
		},
		{
			"replacement followed by non-whitespace span",
			[]LineChange{
				change(ChangeDelete, "a"),
				change(ChangeInsert, "x"),
				change(ChangeUnchanged, "bc"),
				change(ChangeDelete, "a"),
			},
			false,
		},
		{
			"replacement directly followed by another change",
			[]LineChange{
				change(ChangeDelete, "a"),
				change(ChangeInsert, "x"),
				change(ChangeDelete, "b"),
			},
			false,
		},
		{
			"isolated changes separated by unchanged",
			[]LineChange{
				change(ChangeDelete, "a"),
				change(ChangeUnchanged, "bc"),
				change(ChangeInsert, "x"),
			},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSimpleDiff(tt.changes))
		})
	}
}

func TestMergeChanges(t *testing.T) {
	in := []LineChange{
		{Type: ChangeUnchanged, OriginalRange: Span{0, 2}, ModifiedRange: Span{0, 2}, Text: "ab"},
		{Type: ChangeUnchanged, OriginalRange: Span{2, 3}, ModifiedRange: Span{2, 3}, Text: "c"},
		{Type: ChangeDelete, OriginalRange: Span{3, 4}, ModifiedRange: Span{3, 3}, Text: "d"},
		{Type: ChangeDelete, OriginalRange: Span{4, 5}, ModifiedRange: Span{3, 3}, Text: "e"},
		{Type: ChangeInsert, OriginalRange: Span{5, 5}, ModifiedRange: Span{3, 4}, Text: "x"},
	}

	want := []LineChange{
		{Type: ChangeUnchanged, OriginalRange: Span{0, 3}, ModifiedRange: Span{0, 3}, Text: "abc"},
		{Type: ChangeDelete, OriginalRange: Span{3, 5}, ModifiedRange: Span{3, 3}, Text: "de"},
		{Type: ChangeInsert, OriginalRange: Span{5, 5}, ModifiedRange: Span{3, 4}, Text: "x"},
	}

	if diff := cmp.Diff(want, mergeChanges(in)); diff != "" {
		t.Errorf("mergeChanges mismatch (-want +got):\n%s", diff)
	}
}

func TestCommonWhitespaceAffixes(t *testing.T) {
	assert.Equal(t, 2, commonWhitespacePrefix("  old", "  new"))
	assert.Equal(t, 0, commonWhitespacePrefix("xold", "xnew"), "shared prefix must be whitespace")
	assert.Equal(t, 1, commonWhitespacePrefix(" \told", "  new"), "affix must be identical text")
	assert.Equal(t, 2, commonWhitespaceSuffix("old  ", "new  "))
	assert.Equal(t, 0, commonWhitespaceSuffix("old.", "new."))
}
