package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/feedback-helper/internal/domain/assignment"
	"github.com/alem-hub/feedback-helper/internal/domain/shared"
	"github.com/alem-hub/feedback-helper/pkg/logger"
)

func sampleAssignment(t *testing.T, dir string) *assignment.Assignment {
	t.Helper()
	style, err := assignment.NewExportStyle("## ", "-", 2, "* ")
	require.NoError(t, err)

	a, err := assignment.New(assignment.NewParams{
		Title:        "Lab 3",
		HeadingsText: "Code\nOverall",
		Students:     []shared.StudentID{"e0002", "e0001"},
		Directory:    dir,
		Style:        style,
	})
	require.NoError(t, err)
	require.NoError(t, a.UpdateSection("e0001", "Code", "* Tidy\n* Tidy\nfree text"))
	require.NoError(t, a.UpdateSection("e0002", "Code", "* Tidy"))
	require.NoError(t, a.UpdateGrade("e0002", 17.5))
	require.NoError(t, a.AddCustomPhrase("Overall", "Well done."))
	require.NoError(t, a.AddCustomPhrase("Overall", "See me."))
	return a
}

func TestEncodeDecode(t *testing.T) {
	a := sampleAssignment(t, "/somewhere")
	snap := Capture(a)

	data, err := Encode(snap)
	require.NoError(t, err)
	assert.Equal(t, magic, data[:len(magic)])

	again, err := Encode(Capture(a))
	require.NoError(t, err)
	assert.Equal(t, data, again, "encoding is deterministic")

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "Lab 3", decoded.Title)
	assert.Empty(t, decoded.Directory)
	assert.Equal(t, []string{"Code", "Overall"}, decoded.Headings)
	assert.Equal(t, a.Style(), decoded.Style)
	assert.Equal(t, []string{"Well done.", "See me."}, decoded.CustomPhrases["Overall"])

	restored, err := decoded.Restore("/elsewhere")
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere", restored.Directory())
	assert.Equal(t, a.StudentIDs(), restored.StudentIDs())
	assert.Equal(t, 3, restored.PhraseCount("Code", "Tidy"))
	assert.False(t, restored.Dirty())

	doc, err := restored.Document("e0002")
	require.NoError(t, err)
	assert.Equal(t, 17.5, doc.Grade())
	text, err := doc.Section("Code")
	require.NoError(t, err)
	assert.Equal(t, "* Tidy", text)
}

func TestDecode_Corruption(t *testing.T) {
	data, err := Encode(Capture(sampleAssignment(t, "")))
	require.NoError(t, err)

	badMagic := append([]byte(nil), data...)
	badMagic[0] = 'X'
	_, err = Decode(badMagic)
	assert.ErrorIs(t, err, errBadMagic)

	flipped := append([]byte(nil), data...)
	flipped[len(magic)+3] ^= 0xff
	_, err = Decode(flipped)
	assert.ErrorIs(t, err, errChecksumMismatch)

	_, err = Decode(data[:10])
	assert.ErrorIs(t, err, errTruncated)

	_, err = Decode(data[:len(data)-1])
	assert.ErrorIs(t, err, errChecksumMismatch)
}

func TestFileName(t *testing.T) {
	snap := &Snapshot{Title: "Lab 3", Directory: "/data"}
	assert.Equal(t, filepath.Join("/data", "Lab-3.fht"), snap.Path())
}

func newTestStore() *Store {
	cfg := DefaultStoreConfig()
	cfg.MaxAttempts = 1
	cfg.Logger = logger.Discard()
	return NewStore(cfg)
}

func TestStore_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore()
	ctx := context.Background()

	a := sampleAssignment(t, dir)
	path, err := store.Save(ctx, Capture(a))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Lab-3.fht"), path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")

	loaded, err := store.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, dir, loaded.Directory())
	assert.Equal(t, a.Headings(), loaded.Headings())
	assert.Equal(t, a.CustomPhrases("Overall"), loaded.CustomPhrases("Overall"))
	assert.Equal(t, a.Phrases("Code"), loaded.Phrases("Code"))
}

func TestStore_SaveLoad_NonUTF8Text(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore()
	ctx := context.Background()

	a := sampleAssignment(t, dir)
	latin1 := "* caf\xe9 is fine\nna\xefve"
	require.NoError(t, a.UpdateSection("e0001", "Overall", latin1))
	require.NoError(t, a.AddCustomPhrase("Overall", "r\xe9sum\xe9"))

	path, err := store.Save(ctx, Capture(a))
	require.NoError(t, err)

	loaded, err := store.Load(ctx, path)
	require.NoError(t, err)
	doc, err := loaded.Document("e0001")
	require.NoError(t, err)
	text, err := doc.Section("Overall")
	require.NoError(t, err)
	assert.Equal(t, latin1, text)
	assert.Equal(t, 1, loaded.PhraseCount("Overall", "caf\xe9 is fine"))
	assert.Contains(t, loaded.CustomPhrases("Overall"), "r\xe9sum\xe9")
}

func TestStore_SkipsStaleSnapshot(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore()
	ctx := context.Background()
	a := sampleAssignment(t, dir)

	newer := Capture(a)
	newer.Sequence = 2
	require.NoError(t, a.UpdateGrade("e0001", 3))
	older := Capture(a)
	older.Sequence = 1

	path, err := store.Save(ctx, newer)
	require.NoError(t, err)
	_, err = store.Save(ctx, older)
	require.NoError(t, err)

	loaded, err := store.Load(ctx, path)
	require.NoError(t, err)
	doc, err := loaded.Document("e0001")
	require.NoError(t, err)
	assert.Equal(t, 0.0, doc.Grade())
}

func TestStore_LoadFailures(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore()
	ctx := context.Background()

	_, err := store.Load(ctx, filepath.Join(dir, "missing.fht"))
	assert.ErrorIs(t, err, shared.ErrLoadFailure)

	corrupt := filepath.Join(dir, "corrupt.fht")
	require.NoError(t, os.WriteFile(corrupt, []byte("FHT\x01 not really"), 0o644))
	_, err = store.Load(ctx, corrupt)
	assert.ErrorIs(t, err, shared.ErrLoadFailure)
}

func TestStore_SaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	snap := Capture(sampleAssignment(t, filepath.Join(blocker, "sub")))
	_, err := newTestStore().Save(context.Background(), snap)
	assert.ErrorIs(t, err, shared.ErrIOFailure)
}
