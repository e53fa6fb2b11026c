package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mzarei/taskboard/internal/models"
)

// SaveUser writes a user's account document.
func (s *Store) SaveUser(u *models.User) error {
	return s.Save(KindUser, u.ID, u)
}

// LoadUser reads the account document for an identity id.
func (s *Store) LoadUser(id string) (*models.User, error) {
	u := &models.User{}
	if err := s.Load(KindUser, id, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser removes a user's account document.
func (s *Store) DeleteUser(id string) error {
	return s.Delete(KindUser, id)
}

// ListUsers loads every account document. Directory entries without a
// readable account document are skipped.
func (s *Store) ListUsers() ([]*models.User, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, "users"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", models.ErrStorage, err)
	}
	var users []*models.User
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		u, err := s.LoadUser(entry.Name())
		if err != nil {
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

// Purge removes every document under the data directory. Only the
// administrative tool calls this.
func (s *Store) Purge() error {
	for _, name := range []string{"users", "projects", "index.json"} {
		if err := os.RemoveAll(filepath.Join(s.root, name)); err != nil {
			return fmt.Errorf("%w: purge %s: %v", models.ErrStorage, name, err)
		}
	}
	return nil
}
