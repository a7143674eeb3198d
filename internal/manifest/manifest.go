// Package manifest tracks uploaded source files. Each upload is
// streamed to disk under a random name and described by a record in
// manifest.json, newest first, so interrupted imports can be resumed
// from the saved file later.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lakshminarasimha6802/sheetsql/domain/model"
)

// Sentinel errors for upload bookkeeping.
var (
	ErrUploadNotFound  = errors.New("manifest: upload not found")
	ErrUnsupportedFile = errors.New("manifest: unsupported file type")
)

const manifestName = "manifest.json"

// Record describes one saved upload.
type Record struct {
	ID            string    `json:"id"`
	SavedFilename string    `json:"saved_filename"`
	OriginalName  string    `json:"original_name"`
	SizeBytes     int64     `json:"size_bytes"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// Manager owns an upload directory and its manifest. All mutations
// rewrite manifest.json through a temp file rename, guarded by a
// mutex.
type Manager struct {
	dir  string
	path string
	now  func() time.Time

	mu      sync.Mutex
	records []Record
}

// NewManager prepares the upload directory and loads the manifest. A
// missing or unreadable manifest starts empty.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	m := &Manager{
		dir:  dir,
		path: filepath.Join(dir, manifestName),
		now:  time.Now,
	}
	m.records = m.load()
	return m, nil
}

// Add streams an upload to disk and records it at the front of the
// manifest. The saved name is a fresh UUID carrying the original's
// format and compression extensions so later reads can detect both.
func (m *Manager) Add(r io.Reader, originalName string) (*Record, error) {
	originalName = filepath.Base(originalName)
	f := model.NewFile(originalName)
	if !f.IsSupported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, originalName)
	}

	saved := uuid.NewString() + f.Type().Extension() + f.Compression().Extension()
	dst := filepath.Join(m.dir, saved)
	size, err := stageFile(dst, r)
	if err != nil {
		return nil, err
	}

	rec := Record{
		ID:            uuid.NewString(),
		SavedFilename: saved,
		OriginalName:  originalName,
		SizeBytes:     size,
		UploadedAt:    m.now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append([]Record{rec}, m.records...)
	if err := m.save(); err != nil {
		m.records = m.records[1:]
		_ = os.Remove(dst)
		return nil, err
	}
	return &rec, nil
}

// List returns the records, newest first.
func (m *Manager) List() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// Get returns the record with the given id.
func (m *Manager) Get(id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			rec := m.records[i]
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUploadNotFound, id)
}

// FilePath returns the on-disk location of a record's saved file.
func (m *Manager) FilePath(r *Record) string {
	return filepath.Join(m.dir, r.SavedFilename)
}

// Remove deletes a record and its saved file. A file already gone is
// not an error.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID != id {
			continue
		}
		saved := m.records[i].SavedFilename
		m.records = append(m.records[:i], m.records[i+1:]...)
		if err := m.save(); err != nil {
			return err
		}
		if err := os.Remove(filepath.Join(m.dir, saved)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove upload file: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUploadNotFound, id)
}

// load reads the manifest. Any failure, including corrupt JSON,
// yields an empty list rather than blocking startup.
func (m *Manager) load() []Record {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}
	return records
}

// save rewrites the manifest atomically. Callers hold the mutex.
func (m *Manager) save() error {
	data, err := json.MarshalIndent(m.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// stageFile streams r to path through a temp file rename and reports
// the bytes written.
func stageFile(path string, r io.Reader) (int64, error) {
	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("stage upload: %w", err)
	}
	size, err := io.Copy(out, r)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("write upload: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("publish upload: %w", err)
	}
	return size, nil
}
