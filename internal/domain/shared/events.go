// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Listeners (the view) subscribe to these.
const (
	// Assignment structure events
	EventHeadingsUpdated EventType = "headings.updated"
	EventNewStudent      EventType = "student.new"
	EventGradeUpdated    EventType = "grade.updated"

	// Usage index events
	EventPhraseAdded        EventType = "phrase.added"
	EventPhraseDeleted      EventType = "phrase.deleted"
	EventPhraseCountUpdated EventType = "phrase.count_updated"

	// Custom phrase events
	EventCustomPhraseAdded     EventType = "custom_phrase.added"
	EventCustomPhraseDeleted   EventType = "custom_phrase.deleted"
	EventCustomPhraseReordered EventType = "custom_phrase.reordered"

	// Persistence events
	EventExported   EventType = "assignment.exported"
	EventSaveWorker EventType = "assignment.save_worker"

	// System events
	EventInfo  EventType = "system.info"
	EventError EventType = "system.error"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Assignment Structure Events
// ═══════════════════════════════════════════════════════════════════════════

// HeadingsUpdatedEvent carries the full heading list after a change.
type HeadingsUpdatedEvent struct {
	BaseEvent
	Headings []string `json:"headings"`
}

// Payload implements Event interface.
func (e HeadingsUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"headings": e.Headings,
	}
}

// NewHeadingsUpdatedEvent creates a new HeadingsUpdatedEvent.
func NewHeadingsUpdatedEvent(aggregateID string, headings []string) HeadingsUpdatedEvent {
	return HeadingsUpdatedEvent{
		BaseEvent: NewBaseEvent(EventHeadingsUpdated, aggregateID),
		Headings:  append([]string(nil), headings...),
	}
}

// NewStudentEvent is emitted when a student is added to the assignment.
type NewStudentEvent struct {
	BaseEvent
	StudentID StudentID `json:"student_id"`
}

// Payload implements Event interface.
func (e NewStudentEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID.String(),
	}
}

// NewNewStudentEvent creates a new NewStudentEvent.
func NewNewStudentEvent(aggregateID string, id StudentID) NewStudentEvent {
	return NewStudentEvent{
		BaseEvent: NewBaseEvent(EventNewStudent, aggregateID),
		StudentID: id,
	}
}

// GradeUpdatedEvent is emitted when a student's grade changes.
type GradeUpdatedEvent struct {
	BaseEvent
	StudentID StudentID `json:"student_id"`
	Grade     float64   `json:"grade"`
}

// Payload implements Event interface.
func (e GradeUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID.String(),
		"grade":      e.Grade,
	}
}

// NewGradeUpdatedEvent creates a new GradeUpdatedEvent.
func NewGradeUpdatedEvent(aggregateID string, id StudentID, grade float64) GradeUpdatedEvent {
	return GradeUpdatedEvent{
		BaseEvent: NewBaseEvent(EventGradeUpdated, aggregateID),
		StudentID: id,
		Grade:     grade,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Phrase Events
// ═══════════════════════════════════════════════════════════════════════════

// PhraseEvent reports a change to one heading's usage index. Count is the
// phrase's usage count after the change (0 for deletions).
type PhraseEvent struct {
	BaseEvent
	Heading string `json:"heading"`
	Phrase  string `json:"phrase"`
	Count   int    `json:"count"`
}

// Payload implements Event interface.
func (e PhraseEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"heading": e.Heading,
		"phrase":  e.Phrase,
		"count":   e.Count,
	}
}

// NewPhraseEvent creates a PhraseEvent of the given type
// (EventPhraseAdded, EventPhraseDeleted or EventPhraseCountUpdated).
func NewPhraseEvent(eventType EventType, aggregateID, heading, phrase string, count int) PhraseEvent {
	return PhraseEvent{
		BaseEvent: NewBaseEvent(eventType, aggregateID),
		Heading:   heading,
		Phrase:    phrase,
		Count:     count,
	}
}

// CustomPhraseEvent reports an addition to or deletion from a custom phrase list.
type CustomPhraseEvent struct {
	BaseEvent
	Heading string `json:"heading"`
	Phrase  string `json:"phrase"`
}

// Payload implements Event interface.
func (e CustomPhraseEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"heading": e.Heading,
		"phrase":  e.Phrase,
	}
}

// NewCustomPhraseEvent creates a CustomPhraseEvent of the given type
// (EventCustomPhraseAdded or EventCustomPhraseDeleted).
func NewCustomPhraseEvent(eventType EventType, aggregateID, heading, phrase string) CustomPhraseEvent {
	return CustomPhraseEvent{
		BaseEvent: NewBaseEvent(eventType, aggregateID),
		Heading:   heading,
		Phrase:    phrase,
	}
}

// CustomPhraseReorderedEvent reports a move within a custom phrase list.
type CustomPhraseReorderedEvent struct {
	BaseEvent
	Heading string `json:"heading"`
	Phrase  string `json:"phrase"`
	OldPos  int    `json:"old_pos"`
	NewPos  int    `json:"new_pos"`
}

// Payload implements Event interface.
func (e CustomPhraseReorderedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"heading": e.Heading,
		"phrase":  e.Phrase,
		"old_pos": e.OldPos,
		"new_pos": e.NewPos,
	}
}

// NewCustomPhraseReorderedEvent creates a new CustomPhraseReorderedEvent.
func NewCustomPhraseReorderedEvent(aggregateID, heading, phrase string, oldPos, newPos int) CustomPhraseReorderedEvent {
	return CustomPhraseReorderedEvent{
		BaseEvent: NewBaseEvent(EventCustomPhraseReordered, aggregateID),
		Heading:   heading,
		Phrase:    phrase,
		OldPos:    oldPos,
		NewPos:    newPos,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Persistence Events
// ═══════════════════════════════════════════════════════════════════════════

// ExportedEvent is emitted after all feedback files were written.
type ExportedEvent struct {
	BaseEvent
	Path string `json:"path"`
}

// Payload implements Event interface.
func (e ExportedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"path": e.Path,
	}
}

// NewExportedEvent creates a new ExportedEvent.
func NewExportedEvent(aggregateID, path string) ExportedEvent {
	return ExportedEvent{
		BaseEvent: NewBaseEvent(EventExported, aggregateID),
		Path:      path,
	}
}

// SaveHandle is the awaitable side of a background save as seen by listeners.
type SaveHandle interface {
	// ID uniquely identifies the save.
	ID() string

	// Done is closed once the save completed or failed.
	Done() <-chan struct{}

	// Err returns the save's outcome; nil until Done is closed.
	Err() error
}

// SaveWorkerEvent is emitted when a background save has been dispatched.
type SaveWorkerEvent struct {
	BaseEvent
	Handle SaveHandle `json:"-"`
}

// Payload implements Event interface.
func (e SaveWorkerEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"save_id": e.Handle.ID(),
	}
}

// NewSaveWorkerEvent creates a new SaveWorkerEvent.
func NewSaveWorkerEvent(aggregateID string, handle SaveHandle) SaveWorkerEvent {
	return SaveWorkerEvent{
		BaseEvent: NewBaseEvent(EventSaveWorker, aggregateID),
		Handle:    handle,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// InfoEvent carries a user-facing informational message.
type InfoEvent struct {
	BaseEvent
	Message string `json:"message"`
}

// Payload implements Event interface.
func (e InfoEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"message": e.Message,
	}
}

// NewInfoEvent creates a new InfoEvent.
func NewInfoEvent(aggregateID, message string) InfoEvent {
	return InfoEvent{
		BaseEvent: NewBaseEvent(EventInfo, aggregateID),
		Message:   message,
	}
}

// ErrorEvent reports a failure that could not be returned to a caller,
// such as a background save.
type ErrorEvent struct {
	BaseEvent
	Description string `json:"description"`
	Cause       error  `json:"-"`
}

// Payload implements Event interface.
func (e ErrorEvent) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"description": e.Description,
	}
	if e.Cause != nil {
		p["cause"] = e.Cause.Error()
	}
	return p
}

// NewErrorEvent creates a new ErrorEvent.
func NewErrorEvent(aggregateID, description string, cause error) ErrorEvent {
	return ErrorEvent{
		BaseEvent:   NewBaseEvent(EventError, aggregateID),
		Description: description,
		Cause:       cause,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID          string          `json:"id"`
	Type        EventType       `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Version     int             `json:"version"`
	Payload     json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// SubscriptionID identifies a registered handler so it can be removed again.
type SubscriptionID string

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) (SubscriptionID, error)

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) (SubscriptionID, error)

	// Unsubscribe removes a handler. Unknown IDs are ignored.
	Unsubscribe(id SubscriptionID)
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
