package phrase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const marker = "- "

func counts(x *UsageIndex, heading string) map[string]int {
	out := map[string]int{}
	for _, p := range x.ForHeading(heading) {
		out[p.Text()] = p.Count()
	}
	return out
}

func TestExtractPhrases(t *testing.T) {
	text := "Intro line\n- First\n   -   Second  \n-\n- \nnot - this\n- First"
	assert.Equal(t, []string{"First", "Second", "First"}, ExtractPhrases(text, marker))
	assert.Nil(t, ExtractPhrases("", marker))
	assert.Equal(t, []string{"a"}, ExtractPhrases("* a\n- b", "* "))
}

func TestRecompute_Idempotent(t *testing.T) {
	x := NewUsageIndex([]string{"Code"})
	texts := []string{"- Good\n- Tests", "- Good", "nothing"}

	x.Recompute("Code", texts, marker)
	first := counts(x, "Code")
	x.Recompute("Code", texts, marker)

	assert.Equal(t, first, counts(x, "Code"))
	assert.Equal(t, map[string]int{"Good": 2, "Tests": 1}, first)
}

func TestApplyDiff_XYToYZ(t *testing.T) {
	x := NewUsageIndex([]string{"Code"})
	old := "- X\n- Y"
	x.Recompute("Code", []string{old, "- Y"}, marker)

	changes := x.ApplyDiff("Code", old, "- Y\n- Z", marker)

	assert.Equal(t, []Change{
		{Kind: ChangeDeleted, Heading: "Code", Phrase: "X"},
		{Kind: ChangeAdded, Heading: "Code", Phrase: "Z", Count: 1},
	}, changes)
	assert.Equal(t, map[string]int{"Y": 2, "Z": 1}, counts(x, "Code"))
}

func TestApplyDiff_CountUpdates(t *testing.T) {
	x := NewUsageIndex([]string{"Code"})
	x.Recompute("Code", []string{"- X", "- X"}, marker)

	changes := x.ApplyDiff("Code", "- X", "", marker)
	assert.Equal(t, []Change{{Kind: ChangeCountUpdated, Heading: "Code", Phrase: "X", Count: 1}}, changes)

	changes = x.ApplyDiff("Code", "", "- X", marker)
	assert.Equal(t, []Change{{Kind: ChangeCountUpdated, Heading: "Code", Phrase: "X", Count: 2}}, changes)
}

func TestApplyDiff_DuplicatesAreCountedAsMultiset(t *testing.T) {
	x := NewUsageIndex([]string{"Code"})
	texts := []string{"- A\n- A\n- B", "- A"}
	x.Recompute("Code", texts, marker)

	// One of the two "A" lines in the first document goes away.
	newText := "- A\n- B"
	changes := x.ApplyDiff("Code", texts[0], newText, marker)
	assert.Equal(t, []Change{{Kind: ChangeCountUpdated, Heading: "Code", Phrase: "A", Count: 2}}, changes)

	// The incremental result equals a full recount.
	want := NewUsageIndex([]string{"Code"})
	want.Recompute("Code", []string{newText, texts[1]}, marker)
	assert.Equal(t, counts(want, "Code"), counts(x, "Code"))
}

func TestApplyDiff_NoChangeForUnchangedPhrases(t *testing.T) {
	x := NewUsageIndex([]string{"Code"})
	x.Recompute("Code", []string{"- A\nfree text"}, marker)
	assert.Empty(t, x.ApplyDiff("Code", "- A\nfree text", "- A\nother text", marker))
}

func TestChangeKind_EventType(t *testing.T) {
	assert.Equal(t, "phrase.added", string(ChangeAdded.EventType()))
	assert.Equal(t, "phrase.deleted", string(ChangeDeleted.EventType()))
	assert.Equal(t, "phrase.count_updated", string(ChangeCountUpdated.EventType()))
}

func TestUsageIndex_Headings(t *testing.T) {
	x := NewUsageIndex([]string{"A", "B"})
	assert.Equal(t, 2, x.Headings())
	x.DropHeading("A")
	x.AddHeading("C")
	x.AddHeading("C")
	assert.False(t, x.HasHeading("A"))
	assert.True(t, x.HasHeading("C"))
	assert.Equal(t, 2, x.Headings())

	x.Recompute("B", []string{"- q"}, marker)
	n, ok := x.Lookup("B", "q")
	assert.True(t, ok)
	assert.Equal(t, 1, n)
	_, ok = x.Lookup("B", "missing")
	assert.False(t, ok)
}
