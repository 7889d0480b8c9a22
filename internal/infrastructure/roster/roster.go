// Package roster resolves the initial student list of a new assignment from a
// student list file or, failing that, from the files in the assignment
// directory.
package roster

import (
	"bufio"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/alem-hub/feedback-helper/internal/domain/shared"
	"github.com/alem-hub/feedback-helper/pkg/logger"
)

// snapshotExt is skipped during directory scans.
const snapshotExt = ".fht"

// Resolver finds student IDs.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a Resolver. A nil logger uses slog.Default().
func NewResolver(log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{logger: log.With(logger.Component("roster"))}
}

// Resolve returns the sorted, de-duplicated student IDs listed in listPath.
// If listPath is empty or cannot be read, entries of dir are used instead.
// If both fail the result is empty, never an error.
func (r *Resolver) Resolve(listPath, dir string) []shared.StudentID {
	if listPath != "" {
		f, err := os.Open(listPath)
		if err == nil {
			defer f.Close()
			ids, err := r.parse(f)
			if err == nil {
				return ids
			}
			r.logger.Warn("student list unreadable", logger.Path(listPath), logger.Err(err))
		} else {
			r.logger.Warn("student list unavailable, scanning directory", logger.Path(listPath), logger.Err(err))
		}
	}
	if dir == "" {
		return nil
	}
	ids, err := r.scan(dir)
	if err != nil {
		r.logger.Debug("directory scan failed", logger.Path(dir), logger.Err(err))
		return nil
	}
	return ids
}

// Parse reads identifier tokens from r: one or more per line separated by
// commas or whitespace, with '#' starting a comment.
func Parse(r io.Reader) ([]shared.StudentID, error) {
	return NewResolver(nil).parse(r)
}

func (r *Resolver) parse(in io.Reader) ([]shared.StudentID, error) {
	set := newIDSet()
	sc := bufio.NewScanner(in)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		for _, tok := range strings.FieldsFunc(text, isSeparator) {
			id, err := shared.NewStudentID(tok)
			if err != nil {
				r.logger.Debug("skipping invalid student id", "line", line, "token", tok)
				continue
			}
			set.add(id)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return set.sorted(), nil
}

func (r *Resolver) scan(dir string) ([]shared.StudentID, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	set := newIDSet()
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		ext := filepath.Ext(name)
		if strings.EqualFold(ext, snapshotExt) {
			continue
		}
		if id, err := shared.NewStudentID(strings.TrimSuffix(name, ext)); err == nil {
			set.add(id)
		}
	}
	r.logger.Debug("students found by directory scan", logger.Path(dir), "count", len(set.ids))
	return set.sorted(), nil
}

func isSeparator(r rune) bool {
	return r == ',' || r == ';' || unicode.IsSpace(r)
}

type idSet struct {
	seen map[shared.StudentID]struct{}
	ids  []shared.StudentID
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[shared.StudentID]struct{})}
}

func (s *idSet) add(id shared.StudentID) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *idSet) sorted() []shared.StudentID {
	shared.SortStudentIDs(s.ids)
	return s.ids
}
