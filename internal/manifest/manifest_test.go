package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err, "creating a manager should succeed")
	return m
}

func TestManagerAdd(t *testing.T) {
	t.Parallel()

	t.Run("csv upload", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(t)
		content := "a,b\n1,2\n"

		rec, err := m.Add(strings.NewReader(content), "Sales Report.CSV")
		require.NoError(t, err, "adding a csv should succeed")

		_, err = uuid.Parse(rec.ID)
		assert.NoError(t, err, "record id should be a uuid")
		assert.Equal(t, "Sales Report.CSV", rec.OriginalName, "original name should survive verbatim")
		assert.Equal(t, int64(len(content)), rec.SizeBytes, "size should count the streamed bytes")
		assert.False(t, rec.UploadedAt.IsZero(), "upload time should be recorded")

		require.True(t, strings.HasSuffix(rec.SavedFilename, ".csv"),
			"saved name should keep the canonical format extension")
		_, err = uuid.Parse(strings.TrimSuffix(rec.SavedFilename, ".csv"))
		assert.NoError(t, err, "saved name should be uuid-based")
		assert.NotEqual(t, rec.ID, strings.TrimSuffix(rec.SavedFilename, ".csv"),
			"record id and saved name are independent")

		data, err := os.ReadFile(m.FilePath(rec))
		require.NoError(t, err, "saved file should exist")
		assert.Equal(t, content, string(data), "saved file should hold the streamed bytes")

		_, err = os.Stat(m.path)
		assert.NoError(t, err, "manifest file should be written")
	})

	t.Run("compressed upload keeps the chain", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(t)

		rec, err := m.Add(strings.NewReader("x"), "events.tsv.gz")
		require.NoError(t, err, "adding a compressed tsv should succeed")
		assert.True(t, strings.HasSuffix(rec.SavedFilename, ".tsv.gz"),
			"saved name should keep format and compression extensions")
	})

	t.Run("unsupported type", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(t)

		_, err := m.Add(strings.NewReader("x"), "notes.txt")
		assert.ErrorIs(t, err, ErrUnsupportedFile, "unknown formats should be rejected")
	})

	t.Run("path components stripped", func(t *testing.T) {
		t.Parallel()
		m := newTestManager(t)

		_, err := m.Add(strings.NewReader("x"), "../../etc/passwd")
		assert.ErrorIs(t, err, ErrUnsupportedFile, "only the base name is considered")

		rec, err := m.Add(strings.NewReader("x"), "/tmp/evil/data.csv")
		require.NoError(t, err, "a supported base name should be accepted")
		assert.Equal(t, "data.csv", rec.OriginalName, "directories should be stripped")
	})
}

func TestManagerListNewestFirst(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	clock := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	first, err := m.Add(strings.NewReader("1"), "first.csv")
	require.NoError(t, err, "add should succeed")
	second, err := m.Add(strings.NewReader("2"), "second.csv")
	require.NoError(t, err, "add should succeed")
	third, err := m.Add(strings.NewReader("3"), "third.csv")
	require.NoError(t, err, "add should succeed")

	records := m.List()
	require.Len(t, records, 3, "all uploads should be listed")
	assert.Equal(t, third.ID, records[0].ID, "the latest upload comes first")
	assert.Equal(t, second.ID, records[1].ID, "uploads stay in reverse arrival order")
	assert.Equal(t, first.ID, records[2].ID, "the oldest upload comes last")
}

func TestManagerPersistence(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "uploads")

	m, err := NewManager(dir)
	require.NoError(t, err, "creating a manager should succeed")
	m.now = func() time.Time { return time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC) }

	rec, err := m.Add(strings.NewReader("a,b\n"), "budget.csv")
	require.NoError(t, err, "add should succeed")

	reopened, err := NewManager(dir)
	require.NoError(t, err, "reopening should succeed")
	records := reopened.List()
	require.Len(t, records, 1, "the record should survive a restart")
	assert.Equal(t, *rec, records[0], "the record should round trip through the manifest file")
}

func TestManagerCorruptManifest(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "uploads")
	require.NoError(t, os.MkdirAll(dir, 0o750), "creating the dir should succeed")
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifestName), []byte("not json{{"), 0o600),
		"writing garbage should succeed")

	m, err := NewManager(dir)
	require.NoError(t, err, "a corrupt manifest should not block startup")
	assert.Empty(t, m.List(), "a corrupt manifest starts empty")
}

func TestManagerGet(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	rec, err := m.Add(strings.NewReader("x"), "data.csv")
	require.NoError(t, err, "add should succeed")

	got, err := m.Get(rec.ID)
	require.NoError(t, err, "lookup by id should succeed")
	assert.Equal(t, rec, got, "lookup should return the stored record")

	_, err = m.Get("no-such-id")
	assert.ErrorIs(t, err, ErrUploadNotFound, "unknown ids should be rejected")
}

func TestManagerRemove(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	rec, err := m.Add(strings.NewReader("x"), "data.csv")
	require.NoError(t, err, "add should succeed")
	path := m.FilePath(rec)

	require.NoError(t, m.Remove(rec.ID), "remove should succeed")
	assert.NoFileExists(t, path, "the saved file should be deleted")
	assert.Empty(t, m.List(), "the record should be gone")

	reopened, err := NewManager(m.dir)
	require.NoError(t, err, "reopening should succeed")
	assert.Empty(t, reopened.List(), "the removal should be persisted")

	assert.ErrorIs(t, m.Remove(rec.ID), ErrUploadNotFound, "removing twice should fail")
}

func TestManagerRemoveMissingFile(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)

	rec, err := m.Add(strings.NewReader("x"), "data.csv")
	require.NoError(t, err, "add should succeed")
	require.NoError(t, os.Remove(m.FilePath(rec)), "deleting the file out of band should succeed")

	assert.NoError(t, m.Remove(rec.ID), "a missing saved file is tolerated")
	assert.Empty(t, m.List(), "the record should still be removed")
}
