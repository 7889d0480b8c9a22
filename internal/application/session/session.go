// Package session owns the single open assignment of a run. It serialises
// mutations, relays the aggregate's events to listeners and dispatches a
// background save after every change.
package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/feedback-helper/internal/domain/assignment"
	"github.com/alem-hub/feedback-helper/internal/domain/shared"
	"github.com/alem-hub/feedback-helper/internal/infrastructure/persistence/snapshot"
	"github.com/alem-hub/feedback-helper/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotStore persists assignments.
type SnapshotStore interface {
	Save(ctx context.Context, snap *snapshot.Snapshot) (string, error)
	Load(ctx context.Context, path string) (*assignment.Assignment, error)
}

// Exporter writes the per-student feedback files.
type Exporter interface {
	ExportAll(ctx context.Context, a *assignment.Assignment) (string, error)
}

// RosterResolver finds the initial students of a new assignment.
type RosterResolver interface {
	Resolve(listPath, dir string) []shared.StudentID
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION
// ══════════════════════════════════════════════════════════════════════════════

// Session holds at most one open assignment.
type Session struct {
	bus      shared.EventBus
	store    SnapshotStore
	exporter Exporter
	roster   RosterResolver
	logger   *slog.Logger

	mu       sync.Mutex
	current  *assignment.Assignment
	lastSave *SaveHandle

	seq     atomic.Uint64
	pending sync.WaitGroup
}

// NewSession creates a Session. A nil logger uses slog.Default().
func NewSession(
	bus shared.EventBus,
	store SnapshotStore,
	exporter Exporter,
	roster RosterResolver,
	log *slog.Logger,
) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		bus:      bus,
		store:    store,
		exporter: exporter,
		roster:   roster,
		logger:   log.With(logger.Component("session")),
	}
}

// CreateAssignmentCommand contains the inputs of a new assignment.
type CreateAssignmentCommand struct {
	// Title names the assignment and, slugged, its snapshot and export directory.
	Title string

	// HeadingsText holds one heading per line.
	HeadingsText string

	// StudentListPath is an optional student list file.
	StudentListPath string

	// Directory holds the snapshot and the export. Created if absent.
	Directory string

	// Style is the export style.
	Style assignment.ExportStyle
}

// Validate validates the command.
func (c CreateAssignmentCommand) Validate() error {
	if c.Directory == "" {
		return shared.ErrMissingDirectory
	}
	return c.Style.Validate()
}

// CreateAssignment creates and opens a new assignment, then saves it.
func (s *Session) CreateAssignment(ctx context.Context, cmd CreateAssignmentCommand) (*assignment.Assignment, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.current != nil {
		s.mu.Unlock()
		return nil, shared.ErrAssignmentAlreadyOpen
	}

	dir, err := filepath.Abs(cmd.Directory)
	if err != nil {
		s.mu.Unlock()
		return nil, shared.ErrIOFailure.With(err)
	}
	students := s.roster.Resolve(cmd.StudentListPath, dir)

	a, err := assignment.New(assignment.NewParams{
		Title:        cmd.Title,
		HeadingsText: cmd.HeadingsText,
		Students:     students,
		Directory:    dir,
		Style:        cmd.Style,
	})
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := prepareDirectory(dir); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	s.current = a
	events := []shared.Event{shared.NewHeadingsUpdatedEvent(a.Title(), a.Headings())}
	release := s.startSaveLocked(ctx, a)
	s.mu.Unlock()

	s.logger.Info("assignment created",
		logger.Title(a.Title()),
		logger.Path(dir),
		"students", len(students),
		"headings", len(a.Headings()),
	)
	s.publish(events)
	release()
	return a, nil
}

// LoadAssignment opens an assignment from a snapshot file. Loading does not
// trigger a save.
func (s *Session) LoadAssignment(ctx context.Context, path string) (*assignment.Assignment, error) {
	s.mu.Lock()
	if s.current != nil {
		s.mu.Unlock()
		return nil, shared.ErrAssignmentAlreadyOpen
	}
	a, err := s.store.Load(ctx, path)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	a.MarkClean()
	s.current = a
	s.mu.Unlock()

	s.publish([]shared.Event{shared.NewHeadingsUpdatedEvent(a.Title(), a.Headings())})
	return a, nil
}

// CloseAssignment waits for pending saves and closes the open assignment.
func (s *Session) CloseAssignment(ctx context.Context) error {
	err := s.Flush(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return shared.ErrNoAssignment
	}
	s.logger.Debug("assignment closed", logger.Title(s.current.Title()))
	s.current = nil
	s.lastSave = nil
	return err
}

// Assignment returns the open assignment.
func (s *Session) Assignment() (*assignment.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, shared.ErrNoAssignment
	}
	return s.current, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MUTATIONS
// ══════════════════════════════════════════════════════════════════════════════

// AddStudent adds a blank document for the raw identifier.
func (s *Session) AddStudent(ctx context.Context, raw string) (shared.StudentID, error) {
	id, err := shared.NewStudentID(raw)
	if err != nil {
		return "", err
	}
	return id, s.mutate(ctx, "add_student", func(a *assignment.Assignment) error {
		return a.AddStudent(id)
	})
}

// UpdateFeedbackSection replaces the text of one section.
func (s *Session) UpdateFeedbackSection(ctx context.Context, id shared.StudentID, heading, text string) error {
	return s.mutate(ctx, "update_section", func(a *assignment.Assignment) error {
		return a.UpdateSection(id, heading, text)
	})
}

// UpdateGrade sets a student's grade.
func (s *Session) UpdateGrade(ctx context.Context, id shared.StudentID, grade float64) error {
	return s.mutate(ctx, "update_grade", func(a *assignment.Assignment) error {
		return a.UpdateGrade(id, grade)
	})
}

// RenameHeading renames a heading everywhere.
func (s *Session) RenameHeading(ctx context.Context, oldName, newName string) error {
	return s.mutate(ctx, "rename_heading", func(a *assignment.Assignment) error {
		return a.RenameHeading(oldName, newName)
	})
}

// UpdateStyle replaces the export style.
func (s *Session) UpdateStyle(ctx context.Context, style assignment.ExportStyle) error {
	return s.mutate(ctx, "update_style", func(a *assignment.Assignment) error {
		return a.UpdateStyle(style)
	})
}

// AddCustomPhrase appends a phrase to a heading's custom list.
func (s *Session) AddCustomPhrase(ctx context.Context, heading, text string) error {
	return s.mutate(ctx, "add_custom_phrase", func(a *assignment.Assignment) error {
		return a.AddCustomPhrase(heading, text)
	})
}

// DeleteCustomPhrase removes a phrase from a heading's custom list.
func (s *Session) DeleteCustomPhrase(ctx context.Context, heading, text string) error {
	return s.mutate(ctx, "delete_custom_phrase", func(a *assignment.Assignment) error {
		return a.DeleteCustomPhrase(heading, text)
	})
}

// ReorderCustomPhrase moves a custom phrase by delta and returns its old and
// new positions.
func (s *Session) ReorderCustomPhrase(ctx context.Context, heading, text string, delta int) (int, int, error) {
	oldPos, newPos := -1, -1
	err := s.mutate(ctx, "reorder_custom_phrase", func(a *assignment.Assignment) error {
		var err error
		oldPos, newPos, err = a.ReorderCustomPhrase(heading, text, delta)
		return err
	})
	return oldPos, newPos, err
}

// mutate applies fn to the open assignment, publishes the recorded events and
// starts a save if anything changed. Events are published after the lock is
// released so listeners may call back into the session.
func (s *Session) mutate(ctx context.Context, op string, fn func(a *assignment.Assignment) error) error {
	s.mu.Lock()
	a := s.current
	if a == nil {
		s.mu.Unlock()
		return shared.ErrNoAssignment
	}
	if err := fn(a); err != nil {
		s.mu.Unlock()
		s.logger.Debug("mutation rejected", logger.Operation(op), logger.Err(err))
		return err
	}
	events := a.PullEvents()
	release := func() {}
	if a.Dirty() {
		release = s.startSaveLocked(ctx, a)
	}
	s.mu.Unlock()

	s.publish(events)
	release()
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PERSISTENCE & EXPORT
// ══════════════════════════════════════════════════════════════════════════════

// Save captures the open assignment and writes it on a background goroutine.
func (s *Session) Save(ctx context.Context) (*SaveHandle, error) {
	s.mu.Lock()
	a := s.current
	if a == nil {
		s.mu.Unlock()
		return nil, shared.ErrNoAssignment
	}
	release := s.startSaveLocked(ctx, a)
	h := s.lastSave
	s.mu.Unlock()

	release()
	return h, nil
}

// startSaveLocked captures a snapshot and starts the write. The returned
// function publishes the SaveWorker event and must be called once, without
// s.mu held. Failures are published as an Error event after it.
func (s *Session) startSaveLocked(ctx context.Context, a *assignment.Assignment) func() {
	snap := snapshot.Capture(a)
	snap.Sequence = s.seq.Add(1)
	a.MarkClean()

	h := newSaveHandle(uuid.NewString())
	s.lastSave = h
	title := a.Title()
	ready := make(chan struct{})

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		start := time.Now()
		path, err := s.store.Save(context.WithoutCancel(ctx), snap)
		h.finish(path, err)

		<-ready
		if err != nil {
			s.logger.Error("background save failed", logger.Title(title), logger.Path(path), logger.Err(err))
			s.publish([]shared.Event{shared.NewErrorEvent(title, "could not save assignment", err)})
			return
		}
		s.logger.Debug("background save finished",
			logger.Path(path),
			"sequence", snap.Sequence,
			logger.Latency(time.Since(start)),
		)
	}()

	return func() {
		s.publish([]shared.Event{shared.NewSaveWorkerEvent(title, h)})
		close(ready)
	}
}

// Flush waits for all dispatched saves and returns the result of the latest.
func (s *Session) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	h := s.lastSave
	s.mu.Unlock()
	if h == nil {
		return nil
	}
	return h.Err()
}

// ExportAll writes the feedback files synchronously and returns the output
// directory.
func (s *Session) ExportAll(ctx context.Context) (string, error) {
	s.mu.Lock()
	a := s.current
	if a == nil {
		s.mu.Unlock()
		return "", shared.ErrNoAssignment
	}
	dir, err := s.exporter.ExportAll(ctx, a)
	title := a.Title()
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	s.publish([]shared.Event{shared.NewExportedEvent(title, dir)})
	return dir, nil
}

// Histogram returns the grade distribution of the open assignment.
func (s *Session) Histogram() (assignment.GradeHistogram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return assignment.GradeHistogram{}, shared.ErrNoAssignment
	}
	return s.current.GradeHistogram(), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LISTENERS
// ══════════════════════════════════════════════════════════════════════════════

// Subscribe registers a listener for every event.
func (s *Session) Subscribe(handler shared.EventHandler) (shared.SubscriptionID, error) {
	return s.bus.SubscribeAll(handler)
}

// SubscribeType registers a listener for one event type.
func (s *Session) SubscribeType(eventType shared.EventType, handler shared.EventHandler) (shared.SubscriptionID, error) {
	return s.bus.Subscribe(eventType, handler)
}

// Unsubscribe removes a listener.
func (s *Session) Unsubscribe(id shared.SubscriptionID) {
	s.bus.Unsubscribe(id)
}

func (s *Session) publish(events []shared.Event) {
	for _, e := range events {
		if err := s.bus.Publish(e); err != nil {
			s.logger.Warn("event not delivered", "event_type", e.EventType(), logger.Err(err))
		}
	}
}

// prepareDirectory creates dir if needed.
func prepareDirectory(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return shared.ErrNotADirectory.Detail("%s", dir)
		}
		return nil
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return shared.ErrIOFailure.With(fmt.Errorf("create %s: %w", dir, err))
		}
		return nil
	default:
		return shared.ErrIOFailure.With(err)
	}
}
