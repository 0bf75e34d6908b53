package manifest

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Store stages rendered manifests on a filesystem for the host player to
// fetch. Each document gets a unique file name, so overlapping resolve
// requests never race on a shared path. Files are written in one shot only
// after the full document is assembled, so an abandoned request can never
// leave a partial manifest behind.
type Store struct {
	fs  afero.Fs
	dir string
}

// NewStore creates a Store rooted at dir on the given filesystem.
func NewStore(fs afero.Fs, dir string) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating manifest directory: %w", err)
	}
	return &Store{fs: fs, dir: dir}, nil
}

// Stage renders the document and writes it as UTF-8 text under a fresh
// name, returning the staged file's path.
func (s *Store) Stage(doc *Document) (string, error) {
	name := fmt.Sprintf("yt-%s.mpd", uuid.New().String())
	path := filepath.Join(s.dir, name)

	if err := afero.WriteFile(s.fs, path, []byte(Render(doc)), 0o644); err != nil {
		return "", fmt.Errorf("staging manifest: %w", err)
	}
	return path, nil
}

// Open returns a reader for a previously staged manifest by file name.
// Name must be a bare file name; path traversal is rejected.
func (s *Store) Open(name string) (afero.File, error) {
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".mpd") {
		return nil, fmt.Errorf("invalid manifest name %q", name)
	}
	f, err := s.fs.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("opening manifest %s: %w", name, err)
	}
	return f, nil
}

// Prune removes staged manifests older than maxAge. Returns the number of
// files removed.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return 0, fmt.Errorf("listing manifest directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".mpd") {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := s.fs.Remove(filepath.Join(s.dir, info.Name())); err != nil {
				return removed, fmt.Errorf("removing stale manifest %s: %w", info.Name(), err)
			}
			removed++
		}
	}
	return removed, nil
}
