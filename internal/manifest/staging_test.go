package manifest

import (
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytarr/ytarr/internal/models"
)

func testDocument(t *testing.T) *Document {
	t.Helper()
	catalog := &models.ExtractResult{Duration: 10, Formats: []models.FormatDescriptor{videoFormat()}}
	doc, err := NewSynthesizer().Build("vid123", catalog)
	require.NoError(t, err)
	return doc
}

func TestStore_Stage(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := NewStore(fs, "/tmp/manifests")
	require.NoError(t, err)

	doc := testDocument(t)
	path, err := store.Stage(doc)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/manifests", filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "yt-"))
	assert.True(t, strings.HasSuffix(path, ".mpd"))

	content, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, Render(doc), string(content))
}

func TestStore_StageUniquePaths(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := NewStore(fs, "/tmp/manifests")
	require.NoError(t, err)

	doc := testDocument(t)
	first, err := store.Stage(doc)
	require.NoError(t, err)
	second, err := store.Stage(doc)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestStore_Open(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := NewStore(fs, "/tmp/manifests")
	require.NoError(t, err)

	doc := testDocument(t)
	path, err := store.Stage(doc)
	require.NoError(t, err)

	f, err := store.Open(filepath.Base(path))
	require.NoError(t, err)
	defer f.Close()

	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, Render(doc), string(content))
}

func TestStore_OpenRejectsTraversalAndForeignNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := NewStore(fs, "/tmp/manifests")
	require.NoError(t, err)

	_, err = store.Open("../secrets.mpd")
	assert.Error(t, err)

	_, err = store.Open("notes.txt")
	assert.Error(t, err)
}

func TestStore_Prune(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := NewStore(fs, "/tmp/manifests")
	require.NoError(t, err)

	doc := testDocument(t)
	stale, err := store.Stage(doc)
	require.NoError(t, err)
	require.NoError(t, fs.Chtimes(stale, time.Now(), time.Now().Add(-2*time.Hour)))

	fresh, err := store.Stage(doc)
	require.NoError(t, err)

	removed, err := store.Prune(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = fs.Stat(stale)
	assert.Error(t, err)
	_, err = fs.Stat(fresh)
	assert.NoError(t, err)
}
