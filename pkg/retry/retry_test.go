package retry

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_RetriesRetryableErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("busy"))
		}
		return nil
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond), WithJitter(0))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	root := errors.New("broken")
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(root)
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	assert.ErrorIs(t, err, root)
	assert.Equal(t, 1, calls)
}

func TestDo_ReturnsLastErrorAfterMaxAttempts(t *testing.T) {
	root := errors.New("still busy")
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Retryable(root)
	}, WithMaxAttempts(2), WithInitialDelay(time.Millisecond))

	assert.Equal(t, root, err)
	assert.Equal(t, 2, calls)
}

func TestIsTransientIOError(t *testing.T) {
	assert.False(t, IsTransientIOError(nil))
	assert.False(t, IsTransientIOError(&fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}))
	assert.False(t, IsTransientIOError(&fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}))
	assert.True(t, IsTransientIOError(&fs.PathError{Op: "rename", Path: "x", Err: errors.New("sharing violation")}))
	assert.True(t, IsTransientIOError(Retryable(errors.New("busy"))))
	assert.False(t, IsTransientIOError(errors.New("plain")))
}

func TestFileWriteRetrier_GivesUpOnMissingDirectory(t *testing.T) {
	calls := 0
	err := FileWriteRetrier(5, time.Millisecond).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &fs.PathError{Op: "open", Path: "/missing/x", Err: fs.ErrNotExist}
	})

	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, 1, calls)
}
