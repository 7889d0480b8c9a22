package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alem-hub/feedback-helper/internal/domain/assignment"
	"github.com/alem-hub/feedback-helper/internal/domain/shared"
	"github.com/alem-hub/feedback-helper/pkg/logger"
	"github.com/alem-hub/feedback-helper/pkg/retry"
)

// StoreConfig contains configuration for Store.
type StoreConfig struct {
	// MaxAttempts bounds write attempts per save (default: 3).
	MaxAttempts int

	// InitialDelay is the backoff before the first retry (default: 50ms).
	InitialDelay time.Duration

	// MaxDelay caps the backoff between retries (default: 2s).
	MaxDelay time.Duration

	// Logger for structured logging
	Logger *slog.Logger
}

// DefaultStoreConfig returns sensible defaults.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		MaxAttempts:  3,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	}
}

// Store reads and writes snapshot files. Save is safe for concurrent use;
// writes to the same path are serialised and a snapshot older than the last
// one written is skipped.
type Store struct {
	retrier *retry.Retrier
	logger  *slog.Logger

	mu      sync.Mutex
	written map[string]uint64
}

// NewStore creates a snapshot store.
func NewStore(cfg StoreConfig) *Store {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 50 * time.Millisecond
	}
	log := cfg.Logger.With(logger.Component("snapshot"))
	return &Store{
		retrier: retry.FileWriteRetrier(cfg.MaxAttempts, cfg.InitialDelay,
			retry.WithMaxDelay(cfg.MaxDelay),
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				log.Warn("snapshot write failed, retrying", "attempt", attempt, "delay", delay, "error", err)
			}),
		),
		logger:  log,
		written: make(map[string]uint64),
	}
}

// Save writes the snapshot to its path atomically and returns that path.
// Failures are reported as shared.ErrIOFailure.
func (s *Store) Save(ctx context.Context, snap *Snapshot) (string, error) {
	path := snap.Path()

	data, err := Encode(snap)
	if err != nil {
		return path, shared.ErrIOFailure.With(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Sequence != 0 && snap.Sequence < s.written[path] {
		s.logger.Debug("skipping stale snapshot", "path", path, "sequence", snap.Sequence, "written", s.written[path])
		return path, nil
	}

	start := time.Now()
	err = s.retrier.Do(ctx, func(ctx context.Context) error {
		return writeFileAtomic(path, data)
	})
	if err != nil {
		return path, shared.ErrIOFailure.With(err)
	}
	if snap.Sequence > s.written[path] {
		s.written[path] = snap.Sequence
	}

	s.logger.Debug("snapshot written",
		"path", path,
		"bytes", len(data),
		"documents", len(snap.Documents),
		logger.Latency(time.Since(start)),
	)
	return path, nil
}

// Load reads a snapshot file and rebuilds the assignment with its directory
// set to the file's parent. Failures are reported as shared.ErrLoadFailure.
func (s *Store) Load(ctx context.Context, path string) (*assignment.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, shared.ErrLoadFailure.With(err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, shared.ErrLoadFailure.With(err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, shared.ErrLoadFailure.With(err)
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, shared.ErrLoadFailure.With(fmt.Errorf("%s: %w", abs, err))
	}
	a, err := snap.Restore(filepath.Dir(abs))
	if err != nil {
		return nil, shared.ErrLoadFailure.With(err)
	}
	s.logger.Info("assignment loaded",
		"path", abs,
		"title", a.Title(),
		"students", len(snap.Documents),
		"headings", len(snap.Headings),
	)
	return a, nil
}

// writeFileAtomic writes data next to path and renames it into place so a
// crash never leaves a half-written snapshot.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
