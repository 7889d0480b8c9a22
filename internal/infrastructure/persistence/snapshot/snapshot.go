// Package snapshot persists an assignment as a single ".fht" file and loads it
// back. The file holds a versioned CBOR record followed by a BLAKE2b checksum;
// the phrase usage index is never stored and is recomputed on load.
package snapshot

import (
	"maps"
	"path/filepath"
	"slices"

	"github.com/alem-hub/feedback-helper/internal/domain/assignment"
	"github.com/alem-hub/feedback-helper/pkg/slug"
)

// FileExtension is appended to the title slug to name the snapshot file.
const FileExtension = ".fht"

// Snapshot is a deep copy of an assignment's persistent state, detached from
// the live aggregate so it can be written on another goroutine.
type Snapshot struct {
	// Sequence orders snapshots of the same file; 0 means unordered.
	Sequence uint64

	Title         string
	Directory     string
	Headings      []string
	Style         assignment.ExportStyle
	Documents     []assignment.DocumentState
	CustomPhrases map[string][]string
}

// Capture copies everything that must survive a restart. It must run on the
// goroutine that owns the assignment.
func Capture(a *assignment.Assignment) *Snapshot {
	headings := a.Headings()
	s := &Snapshot{
		Title:         a.Title(),
		Directory:     a.Directory(),
		Headings:      headings,
		Style:         a.Style(),
		CustomPhrases: make(map[string][]string, len(headings)),
	}
	for _, doc := range a.Documents() {
		s.Documents = append(s.Documents, assignment.DocumentState{
			StudentID: doc.StudentID(),
			Sections:  doc.Sections(),
			Grade:     doc.Grade(),
		})
	}
	for _, h := range headings {
		s.CustomPhrases[h] = a.CustomPhrases(h)
	}
	return s
}

// FileName returns the snapshot's file name derived from the title.
func FileName(title string) string {
	return slug.Make(title) + FileExtension
}

// Path returns where the snapshot is written.
func (s *Snapshot) Path() string {
	return filepath.Join(s.Directory, FileName(s.Title))
}

// Restore rebuilds the aggregate from the snapshot, placing it in dir.
func (s *Snapshot) Restore(dir string) (*assignment.Assignment, error) {
	docs := make([]assignment.DocumentState, len(s.Documents))
	for i, d := range s.Documents {
		docs[i] = assignment.DocumentState{
			StudentID: d.StudentID,
			Sections:  maps.Clone(d.Sections),
			Grade:     d.Grade,
		}
	}
	custom := make(map[string][]string, len(s.CustomPhrases))
	for h, list := range s.CustomPhrases {
		custom[h] = slices.Clone(list)
	}
	return assignment.Restore(assignment.RestoreParams{
		Title:         s.Title,
		Headings:      slices.Clone(s.Headings),
		Directory:     dir,
		Style:         s.Style,
		Documents:     docs,
		CustomPhrases: custom,
	})
}
