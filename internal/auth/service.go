// Package auth handles account lifecycle: registration, login, profile
// edits that cascade into the identity index, and the active flag
// flipped by the administrative tool.
package auth

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mzarei/taskboard/internal/identity"
	"github.com/mzarei/taskboard/internal/models"
	"github.com/mzarei/taskboard/internal/store"
)

// Service performs account operations against the store and the
// identity index.
type Service struct {
	store    *store.Store
	index    *identity.Index
	verifier Verifier
	logger   *zap.Logger
}

// NewService creates an auth service.
func NewService(st *store.Store, ix *identity.Index, verifier Verifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, index: ix, verifier: verifier, logger: logger}
}

// Register creates an account: validates the inputs, hashes the
// password, assigns a stable identity id, and persists the account
// document, an empty membership list, and the identity record.
func (s *Service) Register(email, username, password string) (*models.User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if err := ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	if s.index.UsernameTaken(username) {
		return nil, fmt.Errorf("%w: username %q", models.ErrConflict, username)
	}
	if s.index.EmailTaken(email) {
		return nil, fmt.Errorf("%w: email %q", models.ErrConflict, email)
	}
	hash, err := s.verifier.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	u := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Active:       true,
		ID:           uuid.NewString()[:8],
	}
	if err := s.store.SaveUser(u); err != nil {
		return nil, err
	}
	if err := s.store.SaveMembership(u.ID, &models.Membership{Projects: []string{}}); err != nil {
		return nil, err
	}
	if err := s.index.Register(u.ID, username, email); err != nil {
		// The account and membership documents are orphaned without an
		// identity record; remove both so a retry starts clean.
		if derr := s.store.DeleteUser(u.ID); derr != nil {
			s.logger.Warn("orphaned account cleanup failed", zap.String("id", u.ID), zap.Error(derr))
		}
		if derr := s.store.DeleteMembership(u.ID); derr != nil {
			s.logger.Warn("orphaned membership cleanup failed", zap.String("id", u.ID), zap.Error(derr))
		}
		return nil, err
	}
	s.logger.Info("account registered", zap.String("id", u.ID), zap.String("username", username))
	return u, nil
}

// Login authenticates a username/password pair. Wrong username and
// wrong password both come back as ErrNotFound so a caller cannot
// distinguish which half was wrong; an inactive account is
// ErrForbidden.
func (s *Service) Login(username, password string) (*models.User, error) {
	id, err := s.index.ResolveID(username)
	if err != nil {
		return nil, fmt.Errorf("%w: incorrect username or password", models.ErrNotFound)
	}
	u, err := s.store.LoadUser(id)
	if err != nil {
		return nil, err
	}
	if err := s.verifier.Compare(u.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("%w: incorrect username or password", models.ErrNotFound)
	}
	if !u.Active {
		return nil, fmt.Errorf("%w: account is inactive", models.ErrForbidden)
	}
	s.logger.Info("login", zap.String("id", u.ID))
	return u, nil
}

// ChangeUsername renames the account, cascading through the identity
// index so every stored id keeps resolving to the new name.
func (s *Service) ChangeUsername(u *models.User, newUsername string) error {
	if err := ValidateUsername(newUsername); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	prev := u.Username
	if err := s.index.Rename(u.ID, newUsername); err != nil {
		return err
	}
	u.Username = newUsername
	if err := s.store.SaveUser(u); err != nil {
		u.Username = prev
		if rerr := s.index.Rename(u.ID, prev); rerr != nil {
			s.logger.Error("username rollback failed", zap.String("id", u.ID), zap.Error(rerr))
		}
		return err
	}
	return nil
}

// ChangeEmail swaps the account's email, cascading into the index.
func (s *Service) ChangeEmail(u *models.User, newEmail string) error {
	if err := ValidateEmail(newEmail); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	prev := u.Email
	if err := s.index.UpdateEmail(prev, newEmail); err != nil {
		return err
	}
	u.Email = newEmail
	if err := s.store.SaveUser(u); err != nil {
		u.Email = prev
		if rerr := s.index.UpdateEmail(newEmail, prev); rerr != nil {
			s.logger.Error("email rollback failed", zap.String("id", u.ID), zap.Error(rerr))
		}
		return err
	}
	return nil
}

// ChangePassword replaces the stored hash after verifying the current
// password.
func (s *Service) ChangePassword(u *models.User, current, updated string) error {
	if err := s.verifier.Compare(u.PasswordHash, current); err != nil {
		return fmt.Errorf("%w: current password is incorrect", models.ErrForbidden)
	}
	hash, err := s.verifier.Hash(updated)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	prev := u.PasswordHash
	u.PasswordHash = hash
	if err := s.store.SaveUser(u); err != nil {
		u.PasswordHash = prev
		return err
	}
	return nil
}

// SetActive flips an account's active flag. This is the administrative
// surface; users never toggle their own flag.
func (s *Service) SetActive(username string, active bool) (*models.User, error) {
	id, err := s.index.ResolveID(username)
	if err != nil {
		return nil, err
	}
	u, err := s.store.LoadUser(id)
	if err != nil {
		return nil, err
	}
	if u.Active == active {
		return u, nil
	}
	u.Active = active
	if err := s.store.SaveUser(u); err != nil {
		u.Active = !active
		return nil, err
	}
	s.logger.Info("account active flag changed",
		zap.String("id", u.ID), zap.Bool("active", active))
	return u, nil
}

// InactiveUsers lists every deactivated account.
func (s *Service) InactiveUsers() ([]*models.User, error) {
	users, err := s.store.ListUsers()
	if err != nil {
		return nil, err
	}
	inactive := users[:0]
	for _, u := range users {
		if !u.Active {
			inactive = append(inactive, u)
		}
	}
	return inactive, nil
}
