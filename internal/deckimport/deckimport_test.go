package deckimport

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/lexideck/internal/domain"
	"github.com/conorfennell/lexideck/internal/parser"
	"github.com/conorfennell/lexideck/internal/storage"
)

func newTestImporter(t *testing.T) (*Importer, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "lexideck.db"),
		storage.WithClock(func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }),
		storage.WithLocation(time.UTC),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	im, err := New(db.Cards(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return im, db
}

func TestImporter_ImportFile(t *testing.T) {
	im, db := newTestImporter(t)
	ctx := context.Background()

	_, err := db.Cards().Create(ctx, "existing", domain.Enrichment{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "words.txt")
	content := `D: jmdict-1358280
E: 毎朝パンを食べる。
T: I eat bread every morning.
---
D: existing
---
D:
E: entry without an id
---
D: two words
---
D: jmdict-1358280
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	report, err := im.ImportFile(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 2, report.Skipped, "ids already in the deck, including repeats in the file")
	require.Len(t, report.Errors, 2)
	assert.Contains(t, report.Errors[0].Error(), "line 7")
	assert.Contains(t, report.Errors[0].Error(), "DictionaryID is a required field")
	assert.Contains(t, report.Errors[1].Error(), "line 10: DictionaryID must not contain whitespace")

	card, err := db.Cards().GetByDictionaryID(ctx, "jmdict-1358280")
	require.NoError(t, err)
	assert.Equal(t, "毎朝パンを食べる。", card.Enrichment.ExampleText)
	assert.Equal(t, "I eat bread every morning.", card.Enrichment.TranslatedText)

	all, err := db.Cards().FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestImporter_ImportFileMissing(t *testing.T) {
	im, _ := newTestImporter(t)
	_, err := im.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorContains(t, err, "failed to parse")
}

func TestImporter_ImportStopsOnCancel(t *testing.T) {
	im, db := newTestImporter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := im.Import(ctx, []parser.Entry{{DictionaryID: "a", Line: 1}, {DictionaryID: "b", Line: 2}})
	assert.Zero(t, report.Created)
	require.Len(t, report.Errors, 1)
	assert.ErrorIs(t, report.Errors[0], context.Canceled)

	all, err := db.Cards().FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestImporter_RejectsLongIDs(t *testing.T) {
	im, _ := newTestImporter(t)
	report := im.Import(context.Background(), []parser.Entry{{DictionaryID: strings.Repeat("x", 129), Line: 3}})
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Error(), "line 3")
}
