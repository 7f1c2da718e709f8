package corpus

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autofix-api/internal/pricing"
)

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	table, err := pricing.Load()
	require.NoError(t, err)
	return NewStore(dir, table, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStoreSeedsBaselineSummary(t *testing.T) {
	store := newTestStore(t, t.TempDir())
	assert.Equal(t, 1, store.Len())

	docs := store.TopK("how much does a bumper cost", 3)
	require.NotEmpty(t, docs)
	assert.Equal(t, "baseline-summary", docs[0].ID)
}

func TestReindexPicksUpReports(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore(t, dir)

	content := "Vehicle: 2018 Honda Civic\nDetected damaged parts: bumper, headlight\nTotal estimated cost: 14500"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report-abc.txt"), []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))

	require.NoError(t, store.Reindex())
	assert.Equal(t, 2, store.Len())

	docs := store.TopK("honda civic headlight", 2)
	require.NotEmpty(t, docs)
	assert.Equal(t, "report-abc", docs[0].ID)

	// reindexing again must not duplicate anything
	require.NoError(t, store.Reindex())
	assert.Equal(t, 2, store.Len())
}

func TestReindexMissingDirectoryIsNotAnError(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "does-not-exist"))
	assert.NoError(t, store.Reindex())
}

func TestTopKOrdersByScoreAndHonorsLimit(t *testing.T) {
	store := newTestStore(t, t.TempDir())
	store.Upsert(Document{ID: "one", Source: "one.txt", Text: "bumper repair in mumbai"})
	store.Upsert(Document{ID: "two", Source: "two.txt", Text: "bumper and headlight repair costs in mumbai"})

	docs := store.TopK("bumper headlight repair mumbai", 2)
	require.Len(t, docs, 2)
	assert.Equal(t, "two", docs[0].ID)
	assert.Greater(t, docs[0].Score, docs[1].Score)
}

func TestTopKEmptyQuestion(t *testing.T) {
	store := newTestStore(t, t.TempDir())
	assert.Nil(t, store.TopK("", 3))
	assert.Nil(t, store.TopK("!!!", 3))
}
