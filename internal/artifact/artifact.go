// Package artifact persists normalized tables between the preview and
// confirm steps of an import. Each artifact is one zstd-compressed
// Parquet file named by a generated UUID; the arrow schema carries the
// table name and the semantic column types so a restored table matches
// the ingested one exactly.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lakshminarasimha6802/sheetsql/domain/model"
)

// ErrArtifactNotFound is returned when an artifact id is malformed,
// the file is missing, or its content cannot be decoded. Callers treat
// all three the same way: the preview is gone and the upload must be
// redone.
var ErrArtifactNotFound = errors.New("artifact: artifact not found")

const (
	artifactExt = ".parquet"
	tmpSuffix   = ".tmp"
)

// Store is a directory of artifact files.
type Store struct {
	dir string
}

// NewStore opens an artifact store rooted at dir, creating the
// directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Put writes the table as a new artifact and returns its id.
func (s *Store) Put(t *model.NormalizedTable) (string, error) {
	id := uuid.NewString()
	final := filepath.Join(s.dir, id+artifactExt)
	tmp := final + tmpSuffix

	if err := writeParquet(tmp, t); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write artifact %s: %w", id, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("store artifact %s: %w", id, err)
	}
	return id, nil
}

// Get restores the table stored under id.
func (s *Store) Get(ctx context.Context, id string) (*model.NormalizedTable, error) {
	path, err := s.artifactPath(id)
	if err != nil {
		return nil, err
	}
	t, err := readParquet(ctx, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, id)
		}
		// Undecodable artifacts are as unusable as missing ones.
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactNotFound, id, err)
	}
	return t, nil
}

// Delete removes the artifact stored under id. Deleting an artifact
// that is already gone is not an error.
func (s *Store) Delete(id string) error {
	path, err := s.artifactPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete artifact %s: %w", id, err)
	}
	return nil
}

// Sweep removes artifacts (and abandoned write temporaries) whose
// files are older than the retention window. It returns the number of
// files removed.
func (s *Store) Sweep(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read artifact directory: %w", err)
	}
	cutoff := time.Now().Add(-olderThan)

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !sweepable(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

func sweepable(name string) bool {
	return strings.HasSuffix(name, artifactExt) || strings.HasSuffix(name, artifactExt+tmpSuffix)
}

// artifactPath validates the id and maps it to its file path. Only
// parseable UUIDs reach the filesystem.
func (s *Store) artifactPath(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: invalid id %q", ErrArtifactNotFound, id)
	}
	return filepath.Join(s.dir, id+artifactExt), nil
}
