// Package feedback contains the per-student feedback document.
package feedback

import (
	"maps"

	"github.com/alem-hub/feedback-helper/internal/domain/shared"
)

// Document is one student's feedback: free text per heading plus a grade.
// The owning assignment decides heading order; the document only maps
// heading to text.
type Document struct {
	studentID shared.StudentID
	sections  map[string]string
	grade     float64
}

// NewDocument creates a document with an empty section for every heading and grade 0.
func NewDocument(id shared.StudentID, headings []string) *Document {
	d := &Document{
		studentID: id,
		sections:  make(map[string]string, len(headings)),
	}
	for _, h := range headings {
		d.sections[h] = ""
	}
	return d
}

// RestoreDocument rebuilds a document from persisted state. Headings missing
// from sections get empty text; sections for unknown headings are dropped.
func RestoreDocument(id shared.StudentID, headings []string, sections map[string]string, grade float64) *Document {
	d := NewDocument(id, headings)
	for _, h := range headings {
		d.sections[h] = sections[h]
	}
	d.grade = grade
	return d
}

// StudentID returns the owner of the document.
func (d *Document) StudentID() shared.StudentID {
	return d.studentID
}

// Section returns the text stored under heading.
func (d *Document) Section(heading string) (string, error) {
	text, ok := d.sections[heading]
	if !ok {
		return "", shared.ErrUnknownHeading.Detail("%q", heading)
	}
	return text, nil
}

// SetSection replaces the text under heading and returns the previous text.
func (d *Document) SetSection(heading, text string) (string, error) {
	old, ok := d.sections[heading]
	if !ok {
		return "", shared.ErrUnknownHeading.Detail("%q", heading)
	}
	d.sections[heading] = text
	return old, nil
}

// Sections returns a copy of the heading to text map.
func (d *Document) Sections() map[string]string {
	return maps.Clone(d.sections)
}

// Grade returns the current grade.
func (d *Document) Grade() float64 {
	return d.grade
}

// SetGrade stores g as is; range checks belong to the assignment.
func (d *Document) SetGrade(g float64) {
	d.grade = g
}

// RenameHeading moves the text from oldName to newName. The caller guarantees
// newName is not already used.
func (d *Document) RenameHeading(oldName, newName string) {
	text := d.sections[oldName]
	delete(d.sections, oldName)
	d.sections[newName] = text
}

// AddHeading adds an empty section if heading is missing.
func (d *Document) AddHeading(heading string) {
	if _, ok := d.sections[heading]; !ok {
		d.sections[heading] = ""
	}
}

// HasHeading reports whether the document has a section for heading.
func (d *Document) HasHeading(heading string) bool {
	_, ok := d.sections[heading]
	return ok
}

// Len returns the number of sections.
func (d *Document) Len() int {
	return len(d.sections)
}

// Compare orders documents by student ID.
func Compare(a, b *Document) int {
	return a.studentID.Compare(b.studentID)
}
