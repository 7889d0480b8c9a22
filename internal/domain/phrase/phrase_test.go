package phrase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare_CountDescendingThenTextDescending(t *testing.T) {
	phrases := []*Phrase{
		NewPhraseWithCount("apple", 3),
		NewPhraseWithCount("zebra", 3),
		NewPhraseWithCount("mango", 5),
		NewPhraseWithCount("kiwi", 1),
	}
	SortPhrases(phrases)

	var got []string
	for _, p := range phrases {
		got = append(got, p.Text())
	}
	assert.Equal(t, []string{"mango", "zebra", "apple", "kiwi"}, got)
	assert.Negative(t, Compare(NewPhraseWithCount("a", 5), NewPhraseWithCount("b", 3)))
}

func TestPhrase_Counter(t *testing.T) {
	p := NewPhrase("Nice.")
	assert.Equal(t, 1, p.Count())
	p.Increment()
	assert.Equal(t, 2, p.Count())
	p.Decrement()
	p.Decrement()
	assert.True(t, p.IsUnused())
	p.Decrement()
	assert.Equal(t, 0, p.Count())
	p.SetCount(-4)
	assert.Equal(t, 0, p.Count())
	p.SetCount(7)
	assert.Equal(t, 7, p.Count())
}

func TestPhrase_EqualIgnoresCount(t *testing.T) {
	assert.True(t, NewPhraseWithCount("x", 1).Equal(NewPhraseWithCount("x", 9)))
	assert.False(t, NewPhrase("x").Equal(NewPhrase("y")))
	assert.False(t, NewPhrase("x").Equal(nil))
}
