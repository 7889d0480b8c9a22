package session

import (
	"context"
	"sync"
)

// SaveHandle tracks one background snapshot write. It implements
// shared.SaveHandle so it can travel inside a SaveWorkerEvent.
type SaveHandle struct {
	id   string
	done chan struct{}

	mu   sync.Mutex
	path string
	err  error
}

func newSaveHandle(id string) *SaveHandle {
	return &SaveHandle{id: id, done: make(chan struct{})}
}

// ID returns the save's identifier.
func (h *SaveHandle) ID() string { return h.id }

// Done is closed when the write has finished.
func (h *SaveHandle) Done() <-chan struct{} { return h.done }

// Err returns the outcome of the write, nil while it is still running.
func (h *SaveHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Path returns the snapshot file written to.
func (h *SaveHandle) Path() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.path
}

// Wait blocks until the write finishes or ctx is done.
func (h *SaveHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *SaveHandle) finish(path string, err error) {
	h.mu.Lock()
	h.path = path
	h.err = err
	h.mu.Unlock()
	close(h.done)
}
