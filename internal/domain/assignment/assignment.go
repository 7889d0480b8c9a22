// Package assignment contains the Assignment aggregate: one grading task with
// its headings, per-student feedback documents, phrase usage index, custom
// phrase lists and export style.
//
// The aggregate keeps these invariants:
//
//   - every document, the usage index and the custom store have exactly the
//     assignment's headings as keys;
//   - the usage index always equals a full recount of the documents' bullet lines;
//   - rejected operations leave the state untouched.
//
// Mutations record domain events; callers drain them with PullEvents and
// publish them.
package assignment

import (
	"slices"
	"strings"

	"github.com/alem-hub/feedback-helper/internal/domain/feedback"
	"github.com/alem-hub/feedback-helper/internal/domain/phrase"
	"github.com/alem-hub/feedback-helper/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATE
// ══════════════════════════════════════════════════════════════════════════════

// Assignment is the aggregate root.
type Assignment struct {
	title     string
	directory string
	headings  []string
	documents map[shared.StudentID]*feedback.Document
	usage     *phrase.UsageIndex
	custom    *phrase.CustomStore
	style     ExportStyle

	dirty  bool
	events []shared.Event
}

// NewParams are the inputs for creating a fresh assignment.
type NewParams struct {
	Title        string
	HeadingsText string
	Students     []shared.StudentID
	Directory    string
	Style        ExportStyle
}

// New creates an assignment with a blank document per student.
// Duplicate student IDs are collapsed.
func New(p NewParams) (*Assignment, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, shared.ErrBlankTitle
	}
	if err := p.Style.Validate(); err != nil {
		return nil, err
	}
	for _, id := range p.Students {
		if !id.IsValid() {
			return nil, shared.ErrInvalidIdentifier.Detail("%q", id.String())
		}
	}

	headings := ParseHeadings(p.HeadingsText)
	a := &Assignment{
		title:     title,
		directory: p.Directory,
		headings:  headings,
		documents: make(map[shared.StudentID]*feedback.Document, len(p.Students)),
		usage:     phrase.NewUsageIndex(headings),
		custom:    phrase.NewCustomStore(headings),
		style:     p.Style,
		dirty:     true,
	}
	for _, id := range p.Students {
		if _, ok := a.documents[id]; ok {
			continue
		}
		a.documents[id] = feedback.NewDocument(id, headings)
	}
	return a, nil
}

// DocumentState is the persisted form of one document.
type DocumentState struct {
	StudentID shared.StudentID
	Sections  map[string]string
	Grade     float64
}

// RestoreParams rebuild an assignment from a snapshot.
type RestoreParams struct {
	Title         string
	Headings      []string
	Directory     string
	Style         ExportStyle
	Documents     []DocumentState
	CustomPhrases map[string][]string
}

// Restore rebuilds an assignment from persisted state. The usage index is
// recomputed from the documents rather than trusted from storage.
func Restore(p RestoreParams) (*Assignment, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, shared.ErrBlankTitle
	}
	if err := p.Style.Validate(); err != nil {
		return nil, err
	}

	headings := uniqueHeadings(p.Headings)
	a := &Assignment{
		title:     title,
		directory: p.Directory,
		headings:  headings,
		documents: make(map[shared.StudentID]*feedback.Document, len(p.Documents)),
		usage:     phrase.NewUsageIndex(headings),
		custom:    phrase.NewCustomStore(headings),
		style:     p.Style,
	}
	for _, ds := range p.Documents {
		if !ds.StudentID.IsValid() {
			return nil, shared.ErrInvalidIdentifier.Detail("%q", ds.StudentID.String())
		}
		if _, ok := a.documents[ds.StudentID]; ok {
			return nil, shared.ErrDuplicateStudent.Detail("%s", ds.StudentID)
		}
		a.documents[ds.StudentID] = feedback.RestoreDocument(ds.StudentID, headings, ds.Sections, ds.Grade)
	}
	for _, h := range headings {
		a.custom.Set(h, p.CustomPhrases[h])
		a.recompute(h)
	}
	return a, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ACCESSORS
// ══════════════════════════════════════════════════════════════════════════════

// Title returns the assignment title.
func (a *Assignment) Title() string {
	return a.title
}

// Directory returns where the snapshot and exports live.
func (a *Assignment) Directory() string {
	return a.directory
}

// Headings returns a copy of the ordered heading list.
func (a *Assignment) Headings() []string {
	return slices.Clone(a.headings)
}

// HasHeading reports whether heading exists.
func (a *Assignment) HasHeading(heading string) bool {
	return slices.Contains(a.headings, heading)
}

// Style returns the export style.
func (a *Assignment) Style() ExportStyle {
	return a.style
}

// StudentIDs returns all student IDs in ascending order.
func (a *Assignment) StudentIDs() []shared.StudentID {
	ids := make([]shared.StudentID, 0, len(a.documents))
	for id := range a.documents {
		ids = append(ids, id)
	}
	shared.SortStudentIDs(ids)
	return ids
}

// Document returns the student's document. Callers must not mutate it;
// go through the assignment so derived views stay consistent.
func (a *Assignment) Document(id shared.StudentID) (*feedback.Document, error) {
	doc, ok := a.documents[id]
	if !ok {
		return nil, shared.ErrUnknownStudent.Detail("%s", id)
	}
	return doc, nil
}

// Documents returns every document sorted by student ID. Read-only, as Document.
func (a *Assignment) Documents() []*feedback.Document {
	docs := make([]*feedback.Document, 0, len(a.documents))
	for _, d := range a.documents {
		docs = append(docs, d)
	}
	slices.SortFunc(docs, feedback.Compare)
	return docs
}

// Phrases returns the heading's usage index sorted by phrase order.
func (a *Assignment) Phrases(heading string) []*phrase.Phrase {
	return a.usage.ForHeading(heading)
}

// PhraseCount returns how many bullet lines carry text under heading.
func (a *Assignment) PhraseCount(heading, text string) int {
	n, _ := a.usage.Lookup(heading, text)
	return n
}

// CustomPhrases returns the heading's custom list in user order.
func (a *Assignment) CustomPhrases(heading string) []string {
	return a.custom.Get(heading)
}

// Dirty reports whether there are changes not yet captured by a save.
func (a *Assignment) Dirty() bool {
	return a.dirty
}

// MarkClean is called once a snapshot has been captured.
func (a *Assignment) MarkClean() {
	a.dirty = false
}

// GradeHistogram buckets every document's grade into half-point bins.
func (a *Assignment) GradeHistogram() GradeHistogram {
	var h GradeHistogram
	for _, d := range a.documents {
		h.Add(d.Grade())
	}
	return h
}

// PullEvents returns the events recorded since the last call and clears them.
func (a *Assignment) PullEvents() []shared.Event {
	events := a.events
	a.events = nil
	return events
}

func (a *Assignment) record(e shared.Event) {
	a.events = append(a.events, e)
}

// ══════════════════════════════════════════════════════════════════════════════
// MUTATIONS
// ══════════════════════════════════════════════════════════════════════════════

// AddStudent creates a blank document for id.
func (a *Assignment) AddStudent(id shared.StudentID) error {
	if !id.IsValid() {
		return shared.ErrInvalidIdentifier.Detail("%q", id.String())
	}
	if _, ok := a.documents[id]; ok {
		return shared.ErrDuplicateStudent.Detail("%s", id)
	}
	a.documents[id] = feedback.NewDocument(id, a.headings)
	a.dirty = true
	a.record(shared.NewNewStudentEvent(a.title, id))
	return nil
}

// UpdateSection replaces the text of one section and updates the heading's
// usage index from the difference.
func (a *Assignment) UpdateSection(id shared.StudentID, heading, text string) error {
	doc, ok := a.documents[id]
	if !ok {
		return shared.ErrUnknownStudent.Detail("%s", id)
	}
	old, err := doc.SetSection(heading, text)
	if err != nil {
		return err
	}
	if old == text {
		return nil
	}
	for _, c := range a.usage.ApplyDiff(heading, old, text, a.style.LineMarker) {
		a.record(shared.NewPhraseEvent(c.Kind.EventType(), a.title, c.Heading, c.Phrase, c.Count))
	}
	a.dirty = true
	return nil
}

// UpdateGrade sets a student's grade.
func (a *Assignment) UpdateGrade(id shared.StudentID, grade float64) error {
	doc, ok := a.documents[id]
	if !ok {
		return shared.ErrUnknownStudent.Detail("%s", id)
	}
	if !shared.IsValidGrade(grade) {
		return shared.ErrInvalidGrade.Detail("got %v", grade)
	}
	doc.SetGrade(grade)
	a.dirty = true
	a.record(shared.NewGradeUpdatedEvent(a.title, id, grade))
	return nil
}

// RenameHeading renames oldName to newName everywhere, keeping its position.
// The usage index for the new name is rebuilt from scratch.
func (a *Assignment) RenameHeading(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return shared.ErrBlankHeading
	}
	pos := slices.Index(a.headings, oldName)
	if pos < 0 {
		return shared.ErrUnknownHeading.Detail("%q", oldName)
	}
	if newName == oldName {
		return nil
	}
	if slices.Contains(a.headings, newName) {
		return shared.ErrDuplicateHeading.Detail("%q", newName)
	}

	a.headings[pos] = newName
	for _, d := range a.documents {
		d.RenameHeading(oldName, newName)
	}
	a.custom.RenameHeading(oldName, newName)
	a.usage.DropHeading(oldName)
	a.recompute(newName)

	a.dirty = true
	a.record(shared.NewHeadingsUpdatedEvent(a.title, a.headings))
	return nil
}

// UpdateStyle replaces the export style. A new line marker invalidates every
// usage table, so all headings are recounted and HeadingsUpdated tells
// listeners to rebuild their phrase views.
func (a *Assignment) UpdateStyle(style ExportStyle) error {
	if err := style.Validate(); err != nil {
		return err
	}
	markerChanged := style.LineMarker != a.style.LineMarker
	a.style = style
	if markerChanged {
		for _, h := range a.headings {
			a.recompute(h)
		}
	}
	a.dirty = true
	a.record(shared.NewInfoEvent(a.title, "export style updated"))
	if markerChanged {
		a.record(shared.NewHeadingsUpdatedEvent(a.title, a.headings))
	}
	return nil
}

// AddCustomPhrase appends text to the heading's custom list. Blank text, the
// line marker itself and phrases already listed are ignored without an event.
func (a *Assignment) AddCustomPhrase(heading, text string) error {
	if !a.HasHeading(heading) {
		return shared.ErrUnknownHeading.Detail("%q", heading)
	}
	stored, added := a.custom.Add(heading, text, a.style.LineMarker)
	if !added {
		return nil
	}
	a.dirty = true
	a.record(shared.NewCustomPhraseEvent(shared.EventCustomPhraseAdded, a.title, heading, stored))
	return nil
}

// DeleteCustomPhrase removes text from the heading's custom list.
func (a *Assignment) DeleteCustomPhrase(heading, text string) error {
	if !a.HasHeading(heading) {
		return shared.ErrUnknownHeading.Detail("%q", heading)
	}
	if err := a.custom.Delete(heading, text); err != nil {
		return err
	}
	a.dirty = true
	a.record(shared.NewCustomPhraseEvent(shared.EventCustomPhraseDeleted, a.title, heading, text))
	return nil
}

// ReorderCustomPhrase moves text by delta within its list and returns the old
// and new positions. The event is recorded even when the position is clamped
// to where it already was.
func (a *Assignment) ReorderCustomPhrase(heading, text string, delta int) (int, int, error) {
	if !a.HasHeading(heading) {
		return -1, -1, shared.ErrUnknownHeading.Detail("%q", heading)
	}
	oldPos, newPos, err := a.custom.Reorder(heading, text, delta)
	if err != nil {
		return -1, -1, err
	}
	if oldPos != newPos {
		a.dirty = true
	}
	a.record(shared.NewCustomPhraseReorderedEvent(a.title, heading, text, oldPos, newPos))
	return oldPos, newPos, nil
}

// recompute rebuilds one heading's usage table from all documents.
func (a *Assignment) recompute(heading string) {
	texts := make([]string, 0, len(a.documents))
	for _, d := range a.documents {
		text, err := d.Section(heading)
		if err != nil {
			continue
		}
		texts = append(texts, text)
	}
	a.usage.Recompute(heading, texts, a.style.LineMarker)
}

// checkInvariants verifies the key sets of all derived views. Used by tests.
func (a *Assignment) checkInvariants() bool {
	if a.usage.Headings() != len(a.headings) || a.custom.Headings() != len(a.headings) {
		return false
	}
	for _, h := range a.headings {
		if !a.usage.HasHeading(h) || !a.custom.HasHeading(h) {
			return false
		}
	}
	for _, d := range a.documents {
		if d.Len() != len(a.headings) {
			return false
		}
		for _, h := range a.headings {
			if !d.HasHeading(h) {
				return false
			}
		}
	}
	return true
}
