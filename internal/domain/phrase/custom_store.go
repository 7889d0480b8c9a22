package phrase

import (
	"slices"
	"strings"

	"github.com/alem-hub/feedback-helper/internal/domain/shared"
)

// CustomStore keeps the user-curated phrase list of every heading. Lists keep
// insertion order as adjusted by Reorder; usage counts play no part.
type CustomStore struct {
	lists map[string][]string
}

// NewCustomStore creates an empty list for every heading.
func NewCustomStore(headings []string) *CustomStore {
	s := &CustomStore{lists: make(map[string][]string, len(headings))}
	for _, h := range headings {
		s.lists[h] = []string{}
	}
	return s
}

// Add trims text and appends it to the heading's list. It returns the stored
// text and whether anything was added: blank text, text equal to the line
// marker and phrases already in the list are ignored.
func (s *CustomStore) Add(heading, text, marker string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" || text == marker || text == strings.TrimSpace(marker) {
		return "", false
	}
	list := s.lists[heading]
	if slices.Contains(list, text) {
		return text, false
	}
	s.lists[heading] = append(list, text)
	return text, true
}

// Delete removes text from the heading's list.
func (s *CustomStore) Delete(heading, text string) error {
	list := s.lists[heading]
	i := slices.Index(list, text)
	if i < 0 {
		return shared.ErrPhraseNotFound.Detail("%q under %q", text, heading)
	}
	s.lists[heading] = slices.Delete(list, i, i+1)
	return nil
}

// Reorder moves text by delta positions, clamped to the list bounds, and
// returns its old and new positions. Moving the first entry up or the last
// entry down leaves the list unchanged and returns equal positions.
func (s *CustomStore) Reorder(heading, text string, delta int) (int, int, error) {
	list := s.lists[heading]
	i := slices.Index(list, text)
	if i < 0 {
		return -1, -1, shared.ErrPhraseNotFound.Detail("%q under %q", text, heading)
	}
	j := min(max(i+delta, 0), len(list)-1)
	if i == j {
		return i, j, nil
	}
	list = slices.Delete(list, i, i+1)
	s.lists[heading] = slices.Insert(list, j, text)
	return i, j, nil
}

// Get returns a copy of the heading's list.
func (s *CustomStore) Get(heading string) []string {
	return slices.Clone(s.lists[heading])
}

// Set replaces the heading's list, used when restoring a snapshot.
func (s *CustomStore) Set(heading string, phrases []string) {
	s.lists[heading] = slices.Clone(phrases)
}

// RenameHeading moves the whole list from oldName to newName.
func (s *CustomStore) RenameHeading(oldName, newName string) {
	list, ok := s.lists[oldName]
	if !ok {
		list = []string{}
	}
	delete(s.lists, oldName)
	s.lists[newName] = list
}

// AddHeading creates an empty list for heading if missing.
func (s *CustomStore) AddHeading(heading string) {
	if _, ok := s.lists[heading]; !ok {
		s.lists[heading] = []string{}
	}
}

// HasHeading reports whether a list exists for heading.
func (s *CustomStore) HasHeading(heading string) bool {
	_, ok := s.lists[heading]
	return ok
}

// Headings reports how many heading lists the store holds.
func (s *CustomStore) Headings() int {
	return len(s.lists)
}
