// Package store persists the wsforge metadata document.
//
// The document lives in a single JSON file. Every write goes to a sibling
// ".tmp" path and is renamed over the primary, after a best-effort copy of
// the previous primary to a ".backup" path. Reads that hit a corrupt primary
// restore from the backup, and fall back to an empty default document when
// the backup is unusable too. Writes are serialized by a single-writer lock.
//
// No other package reads or writes the document file directly.
package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/danieljhkim/wsforge/internal/fsops"
	"github.com/danieljhkim/wsforge/internal/model"
)

const (
	backupSuffix = ".backup"
	tmpSuffix    = ".tmp"
)

// MetadataStore provides an interface for loading and persisting the
// metadata document.
type MetadataStore interface {
	// Load returns the current document. It always returns a usable
	// document; the error reports a failure to persist a recovered or
	// bootstrapped document.
	Load() (*model.Document, error)

	// Save persists the entire document.
	Save(doc *model.Document) error

	// Update runs fn on the current document and saves the result while
	// holding the writer lock. An error from fn aborts without writing.
	Update(fn func(doc *model.Document) error) error
}

// FileStore implements MetadataStore on a JSON file.
type FileStore struct {
	fs     fsops.FS
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

// NewFileStore creates a FileStore for the document at path.
func NewFileStore(fs fsops.FS, path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		fs:     fs,
		path:   path,
		logger: logger.Named("store"),
	}
}

// Path returns the primary document path.
func (s *FileStore) Path() string {
	return s.path
}

// BackupPath returns the path mirroring the last known-good write.
func (s *FileStore) BackupPath() string {
	return s.path + backupSuffix
}

func (s *FileStore) tmpPath() string {
	return s.path + tmpSuffix
}

// Load returns the current document, bootstrapping a default one if the
// primary file does not exist.
func (s *FileStore) Load() (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Save persists doc, waiting for any in-flight write to finish first.
func (s *FileStore) Save(doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(doc)
}

// Update performs a read-modify-write cycle under the writer lock.
func (s *FileStore) Update(fn func(doc *model.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.saveLocked(doc)
}

func (s *FileStore) loadLocked() (*model.Document, error) {
	exists, err := s.fs.Exists(s.path)
	if err == nil && !exists {
		doc := model.NewDocument()
		s.logger.Debug("bootstrapping metadata document", zap.String("path", s.path))
		return doc, s.saveLocked(doc)
	}

	doc, readErr := s.readDocument(s.path)
	if readErr == nil {
		return doc, nil
	}

	s.logger.Warn("metadata document unreadable, restoring backup",
		zap.String("path", s.path), zap.Error(readErr))

	backup, err := s.readDocument(s.BackupPath())
	if err == nil {
		return backup, s.saveLocked(backup)
	}
	s.logger.Warn("backup unusable, resetting to default document",
		zap.String("path", s.BackupPath()), zap.Error(err))

	doc = model.NewDocument()
	return doc, s.saveLocked(doc)
}

// readDocument reads and decodes a document file.
func (s *FileStore) readDocument(path string) (*model.Document, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata document: %w", err)
	}
	if doc.Version <= 0 {
		return nil, fmt.Errorf("failed to unmarshal metadata document: missing version")
	}
	doc.Normalize()
	return &doc, nil
}

// saveLocked writes doc via tmp + rename. The caller must hold s.mu.
func (s *FileStore) saveLocked(doc *model.Document) error {
	doc.Normalize()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata document: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// A corrupt primary must never overwrite the backup.
	if _, err := s.readDocument(s.path); err == nil {
		if err := s.fs.CopyFile(s.path, s.BackupPath()); err != nil {
			s.logger.Warn("backup copy failed", zap.Error(err))
		}
	}

	tmp := s.tmpPath()
	if err := s.fs.WriteFile(tmp, data, 0644); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to write metadata document: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to replace metadata document: %w", err)
	}

	return nil
}
