package store

import (
	"errors"

	"github.com/mzarei/taskboard/internal/models"
)

// LoadMembership reads a user's project-membership list. A user with no
// membership document yet gets an empty list, not an error.
func (s *Store) LoadMembership(userID string) (*models.Membership, error) {
	m := &models.Membership{}
	err := s.Load(KindMembership, userID, m)
	if errors.Is(err, models.ErrNotFound) {
		return &models.Membership{Projects: []string{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if m.Projects == nil {
		m.Projects = []string{}
	}
	return m, nil
}

// SaveMembership writes a user's project-membership list.
func (s *Store) SaveMembership(userID string, m *models.Membership) error {
	return s.Save(KindMembership, userID, m)
}

// DeleteMembership removes a user's project-membership document.
func (s *Store) DeleteMembership(userID string) error {
	return s.Delete(KindMembership, userID)
}

// AddProjectToMembership appends a project id to a user's membership
// list if it is not already present.
func (s *Store) AddProjectToMembership(userID, projectID string) error {
	m, err := s.LoadMembership(userID)
	if err != nil {
		return err
	}
	for _, id := range m.Projects {
		if id == projectID {
			return nil
		}
	}
	m.Projects = append(m.Projects, projectID)
	return s.SaveMembership(userID, m)
}

// RemoveProjectFromMembership strips a project id from a user's
// membership list. Removing an id that is not listed is a no-op.
func (s *Store) RemoveProjectFromMembership(userID, projectID string) error {
	m, err := s.LoadMembership(userID)
	if err != nil {
		return err
	}
	kept := m.Projects[:0]
	for _, id := range m.Projects {
		if id != projectID {
			kept = append(kept, id)
		}
	}
	m.Projects = kept
	return s.SaveMembership(userID, m)
}
