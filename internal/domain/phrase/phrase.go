// Package phrase holds the reusable-phrase bookkeeping of an assignment: the
// Phrase value with its usage counter, the per-heading usage index derived from
// document text, and the user-curated custom phrase lists.
package phrase

import (
	"cmp"
	"slices"
)

// Phrase is a bullet line's text (marker stripped) with a usage count.
// Two phrases are equal iff their text is equal.
type Phrase struct {
	text  string
	count int
}

// NewPhrase creates a phrase used once.
func NewPhrase(text string) *Phrase {
	return &Phrase{text: text, count: 1}
}

// NewPhraseWithCount creates a phrase with an explicit count, floored at 0.
func NewPhraseWithCount(text string, count int) *Phrase {
	return &Phrase{text: text, count: max(count, 0)}
}

// Text returns the phrase text.
func (p *Phrase) Text() string {
	return p.text
}

// Count returns the current usage count.
func (p *Phrase) Count() int {
	return p.count
}

// Increment records one more use.
func (p *Phrase) Increment() {
	p.count++
}

// Decrement records one less use. The count never drops below 0.
func (p *Phrase) Decrement() {
	if p.count > 0 {
		p.count--
	}
}

// SetCount overwrites the count, floored at 0.
func (p *Phrase) SetCount(n int) {
	p.count = max(n, 0)
}

// IsUnused reports whether the count reached 0.
func (p *Phrase) IsUnused() bool {
	return p.count == 0
}

// Equal compares by text only.
func (p *Phrase) Equal(other *Phrase) bool {
	return other != nil && p.text == other.text
}

// String returns the phrase text.
func (p *Phrase) String() string {
	return p.text
}

// Compare orders phrases by descending count, then by descending text.
// The text tie-break is intentionally reversed: at equal counts "zebra"
// sorts before "apple".
func Compare(a, b *Phrase) int {
	if c := cmp.Compare(b.count, a.count); c != 0 {
		return c
	}
	return cmp.Compare(b.text, a.text)
}

// SortPhrases sorts phrases in place using Compare.
func SortPhrases(phrases []*Phrase) {
	slices.SortFunc(phrases, Compare)
}
