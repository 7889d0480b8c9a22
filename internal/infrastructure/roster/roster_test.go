package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/feedback-helper/internal/domain/shared"
	"github.com/alem-hub/feedback-helper/pkg/logger"
)

func ids(raw ...string) []shared.StudentID {
	out := make([]shared.StudentID, len(raw))
	for i, r := range raw {
		out[i] = shared.MustStudentID(r)
	}
	return out
}

func TestParse(t *testing.T) {
	in := strings.NewReader("# students for P2\nbob, alice\n\ncarol  dave # late join\nalice\nnot valid! ok\ninv@lid\n")
	got, err := Parse(in)
	require.NoError(t, err)
	assert.Equal(t, ids("alice", "bob", "carol", "dave", "not", "ok", "valid!"), got)
}

func TestResolve_PrefersListFile(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "students.txt")
	require.NoError(t, os.WriteFile(list, []byte("e0001\ne0002\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "e0009.txt"), nil, 0o644))

	r := NewResolver(logger.Discard())
	assert.Equal(t, ids("e0001", "e0002"), r.Resolve(list, dir))
}

func TestResolve_FallsBackToDirectoryScan(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"e0002.txt", "e0001.java", ".hidden", "Lab.fht", "bad name.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "e0003"), 0o755))

	r := NewResolver(logger.Discard())
	got := r.Resolve(filepath.Join(dir, "missing.txt"), dir)
	assert.Equal(t, ids("e0001", "e0002", "e0003"), got)
}

func TestResolve_EmptyWhenNothingUsable(t *testing.T) {
	r := NewResolver(logger.Discard())
	missing := filepath.Join(t.TempDir(), "nope")
	assert.Empty(t, r.Resolve("", missing))
	assert.Empty(t, r.Resolve(missing+".txt", missing))
	assert.Empty(t, r.Resolve("", ""))
}
