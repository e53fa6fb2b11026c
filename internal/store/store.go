// Package store persists aggregates as individual JSON documents under
// a single data directory. Every read and write in the application
// routes through one Store so the single-writer assumption stays in one
// place.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mzarei/taskboard/internal/models"
)

// Kind selects the document family a key belongs to.
type Kind string

const (
	KindUser       Kind = "user"
	KindMembership Kind = "membership"
	KindProject    Kind = "project"
	KindIndex      Kind = "index"
)

// Store reads and writes JSON documents rooted at a data directory.
type Store struct {
	root   string
	logger *zap.Logger
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %v", models.ErrStorage, err)
	}
	return &Store{root: dir, logger: logger}, nil
}

// Root returns the data directory the store operates on.
func (s *Store) Root() string {
	return s.root
}

// path derives the document location for a kind/key pair. All keys are
// immutable ids; nothing on disk is ever keyed by a mutable username.
func (s *Store) path(kind Kind, key string) (string, error) {
	switch kind {
	case KindUser:
		return filepath.Join(s.root, "users", key, "user.json"), nil
	case KindMembership:
		return filepath.Join(s.root, "users", key, "projects.json"), nil
	case KindProject:
		return filepath.Join(s.root, "projects", key+".json"), nil
	case KindIndex:
		return filepath.Join(s.root, "index.json"), nil
	default:
		return "", fmt.Errorf("%w: unknown document kind %q", models.ErrStorage, kind)
	}
}

// Save serializes v and atomically replaces the document for kind/key.
// The write goes to a temp file in the target directory first and is
// renamed into place, so a reader never observes a partial document.
func (s *Store) Save(kind Kind, key string, v any) error {
	path, err := s.path(kind, key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: marshal %s %q: %v", models.ErrStorage, kind, key, err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", models.ErrStorage, dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: temp file in %s: %v", models.ErrStorage, dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", models.ErrStorage, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", models.ErrStorage, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename into %s: %v", models.ErrStorage, path, err)
	}
	s.logger.Debug("document saved", zap.String("kind", string(kind)), zap.String("key", key))
	return nil
}

// Load reads the document for kind/key into v.
func (s *Store) Load(kind Kind, key string, v any) error {
	path, err := s.path(kind, key)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s %q", models.ErrNotFound, kind, key)
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", models.ErrStorage, path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s %q: %v", models.ErrCorrupt, kind, key, err)
	}
	return nil
}

// Delete removes the document for kind/key.
func (s *Store) Delete(kind Kind, key string) error {
	path, err := s.path(kind, key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s %q", models.ErrNotFound, kind, key)
	}
	if err != nil {
		return fmt.Errorf("%w: remove %s: %v", models.ErrStorage, path, err)
	}
	s.logger.Debug("document deleted", zap.String("kind", string(kind)), zap.String("key", key))
	return nil
}

// Exists reports whether a document is present for kind/key.
func (s *Store) Exists(kind Kind, key string) bool {
	path, err := s.path(kind, key)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
