package phrase

import (
	"strings"

	"github.com/alem-hub/feedback-helper/internal/domain/shared"
)

// ChangeKind classifies a change to the usage index.
type ChangeKind int

const (
	// ChangeAdded means a phrase entered the index.
	ChangeAdded ChangeKind = iota
	// ChangeDeleted means a phrase's last use disappeared.
	ChangeDeleted
	// ChangeCountUpdated means an existing phrase's count moved.
	ChangeCountUpdated
)

// EventType maps the change kind onto the matching domain event type.
func (k ChangeKind) EventType() shared.EventType {
	switch k {
	case ChangeAdded:
		return shared.EventPhraseAdded
	case ChangeDeleted:
		return shared.EventPhraseDeleted
	default:
		return shared.EventPhraseCountUpdated
	}
}

// Change describes the effect of ApplyDiff on one phrase.
type Change struct {
	Kind    ChangeKind
	Heading string
	Phrase  string
	Count   int
}

// UsageIndex keeps, per heading, how many bullet lines across all documents
// carry each phrase. It is derived data: never persisted, always rebuildable
// with Recompute.
type UsageIndex struct {
	tables map[string]map[string]*Phrase
}

// NewUsageIndex creates an index with an empty table for every heading.
func NewUsageIndex(headings []string) *UsageIndex {
	idx := &UsageIndex{tables: make(map[string]map[string]*Phrase, len(headings))}
	for _, h := range headings {
		idx.tables[h] = make(map[string]*Phrase)
	}
	return idx
}

// ExtractPhrases returns the bullet phrases of text in line order: every line
// that, once trimmed, starts with marker, with the marker removed and the
// remainder trimmed. Lines left empty after stripping are skipped.
func ExtractPhrases(text, marker string) []string {
	if marker == "" || text == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, marker) {
			continue
		}
		p := strings.TrimSpace(strings.TrimPrefix(line, marker))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// countPhrases groups phrases into a multiset.
func countPhrases(phrases []string) map[string]int {
	counts := make(map[string]int, len(phrases))
	for _, p := range phrases {
		counts[p]++
	}
	return counts
}

// Recompute replaces the heading's table with counts taken from texts.
func (x *UsageIndex) Recompute(heading string, texts []string, marker string) {
	table := make(map[string]*Phrase)
	for _, text := range texts {
		for _, p := range ExtractPhrases(text, marker) {
			if existing, ok := table[p]; ok {
				existing.Increment()
				continue
			}
			table[p] = NewPhrase(p)
		}
	}
	x.tables[heading] = table
}

// ApplyDiff updates the heading's table for one section edit from oldText to
// newText and reports what changed.
//
// The diff is a multiset difference: a phrase appearing twice in oldText and
// once in newText loses exactly one use. This keeps the incremental path equal
// to Recompute over the same documents. Each phrase yields at most one Change.
func (x *UsageIndex) ApplyDiff(heading, oldText, newText, marker string) []Change {
	table, ok := x.tables[heading]
	if !ok {
		table = make(map[string]*Phrase)
		x.tables[heading] = table
	}

	oldList := ExtractPhrases(oldText, marker)
	newList := ExtractPhrases(newText, marker)
	oldCounts := countPhrases(oldList)
	newCounts := countPhrases(newList)

	var changes []Change

	// Removals first, in old text order.
	for _, p := range orderedKeys(oldList) {
		removed := oldCounts[p] - newCounts[p]
		if removed <= 0 {
			continue
		}
		entry, ok := table[p]
		if !ok {
			continue
		}
		for i := 0; i < removed; i++ {
			entry.Decrement()
		}
		if entry.IsUnused() {
			delete(table, p)
			changes = append(changes, Change{Kind: ChangeDeleted, Heading: heading, Phrase: p})
			continue
		}
		changes = append(changes, Change{Kind: ChangeCountUpdated, Heading: heading, Phrase: p, Count: entry.Count()})
	}

	for _, p := range orderedKeys(newList) {
		added := newCounts[p] - oldCounts[p]
		if added <= 0 {
			continue
		}
		if entry, ok := table[p]; ok {
			entry.SetCount(entry.Count() + added)
			changes = append(changes, Change{Kind: ChangeCountUpdated, Heading: heading, Phrase: p, Count: entry.Count()})
			continue
		}
		table[p] = NewPhraseWithCount(p, added)
		changes = append(changes, Change{Kind: ChangeAdded, Heading: heading, Phrase: p, Count: added})
	}

	return changes
}

// orderedKeys returns the distinct values of list in first-seen order.
func orderedKeys(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, v := range list {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ForHeading returns copies of the heading's phrases sorted by Compare.
func (x *UsageIndex) ForHeading(heading string) []*Phrase {
	table := x.tables[heading]
	out := make([]*Phrase, 0, len(table))
	for _, p := range table {
		out = append(out, NewPhraseWithCount(p.text, p.count))
	}
	SortPhrases(out)
	return out
}

// Lookup returns the count of one phrase under a heading.
func (x *UsageIndex) Lookup(heading, text string) (int, bool) {
	p, ok := x.tables[heading][text]
	if !ok {
		return 0, false
	}
	return p.count, true
}

// Headings reports how many heading tables the index holds.
func (x *UsageIndex) Headings() int {
	return len(x.tables)
}

// HasHeading reports whether a table exists for heading.
func (x *UsageIndex) HasHeading(heading string) bool {
	_, ok := x.tables[heading]
	return ok
}

// AddHeading creates an empty table for heading if missing.
func (x *UsageIndex) AddHeading(heading string) {
	if _, ok := x.tables[heading]; !ok {
		x.tables[heading] = make(map[string]*Phrase)
	}
}

// DropHeading removes the heading's table.
func (x *UsageIndex) DropHeading(heading string) {
	delete(x.tables, heading)
}
