// Package identity is the single source of truth mapping stable
// identity ids to mutable usernames and emails. Documents everywhere
// else persist ids only; anything user-facing resolves names here.
package identity

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mzarei/taskboard/internal/models"
	"github.com/mzarei/taskboard/internal/store"
)

// document is the on-disk index shape: a flat email set plus the
// id-to-username mapping.
type document struct {
	Emails    []string          `json:"emails"`
	Usernames map[string]string `json:"usernames"`
}

// Index maps identity ids to usernames and tracks which emails are in
// use. Every mutation is written through to the backing store before it
// is acknowledged.
type Index struct {
	store  *store.Store
	logger *zap.Logger

	emails    map[string]struct{}
	usernames map[string]string // id -> username
	ids       map[string]string // username -> id
}

// Open loads the index document, starting empty if none exists yet.
func Open(st *store.Store, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ix := &Index{
		store:     st,
		logger:    logger,
		emails:    make(map[string]struct{}),
		usernames: make(map[string]string),
		ids:       make(map[string]string),
	}
	var doc document
	err := st.Load(store.KindIndex, "", &doc)
	if errors.Is(err, models.ErrNotFound) {
		return ix, nil
	}
	if err != nil {
		return nil, err
	}
	for _, email := range doc.Emails {
		ix.emails[email] = struct{}{}
	}
	for id, username := range doc.Usernames {
		ix.usernames[id] = username
		ix.ids[username] = id
	}
	return ix, nil
}

// ResolveUsername returns the current username for an identity id.
func (ix *Index) ResolveUsername(id string) (string, error) {
	username, ok := ix.usernames[id]
	if !ok {
		return "", fmt.Errorf("%w: identity %q", models.ErrNotFound, id)
	}
	return username, nil
}

// ResolveID returns the identity id behind a username.
func (ix *Index) ResolveID(username string) (string, error) {
	id, ok := ix.ids[username]
	if !ok {
		return "", fmt.Errorf("%w: username %q", models.ErrNotFound, username)
	}
	return id, nil
}

// UsernameTaken reports whether a username is already registered.
func (ix *Index) UsernameTaken(username string) bool {
	_, ok := ix.ids[username]
	return ok
}

// EmailTaken reports whether an email is already registered.
func (ix *Index) EmailTaken(email string) bool {
	_, ok := ix.emails[email]
	return ok
}

// Usernames returns every registered username, sorted.
func (ix *Index) Usernames() []string {
	out := make([]string, 0, len(ix.ids))
	for username := range ix.ids {
		out = append(out, username)
	}
	sort.Strings(out)
	return out
}

// Register inserts a new identity. The index is unchanged if either the
// username or the email is taken, or if the write-through fails.
func (ix *Index) Register(id, username, email string) error {
	if ix.UsernameTaken(username) {
		return fmt.Errorf("%w: username %q", models.ErrConflict, username)
	}
	if ix.EmailTaken(email) {
		return fmt.Errorf("%w: email %q", models.ErrConflict, email)
	}
	ix.emails[email] = struct{}{}
	ix.usernames[id] = username
	ix.ids[username] = id
	if err := ix.save(); err != nil {
		delete(ix.emails, email)
		delete(ix.usernames, id)
		delete(ix.ids, username)
		return err
	}
	ix.logger.Info("identity registered", zap.String("id", id), zap.String("username", username))
	return nil
}

// Rename replaces the username mapped to an identity id.
func (ix *Index) Rename(id, newUsername string) error {
	oldUsername, ok := ix.usernames[id]
	if !ok {
		return fmt.Errorf("%w: identity %q", models.ErrNotFound, id)
	}
	if oldUsername == newUsername {
		return nil
	}
	if ix.UsernameTaken(newUsername) {
		return fmt.Errorf("%w: username %q", models.ErrConflict, newUsername)
	}
	delete(ix.ids, oldUsername)
	ix.ids[newUsername] = id
	ix.usernames[id] = newUsername
	if err := ix.save(); err != nil {
		delete(ix.ids, newUsername)
		ix.ids[oldUsername] = id
		ix.usernames[id] = oldUsername
		return err
	}
	ix.logger.Info("identity renamed", zap.String("id", id), zap.String("username", newUsername))
	return nil
}

// UpdateEmail swaps a registered email for a new one.
func (ix *Index) UpdateEmail(oldEmail, newEmail string) error {
	if _, ok := ix.emails[oldEmail]; !ok {
		return fmt.Errorf("%w: email %q", models.ErrNotFound, oldEmail)
	}
	if oldEmail == newEmail {
		return nil
	}
	if ix.EmailTaken(newEmail) {
		return fmt.Errorf("%w: email %q", models.ErrConflict, newEmail)
	}
	delete(ix.emails, oldEmail)
	ix.emails[newEmail] = struct{}{}
	if err := ix.save(); err != nil {
		delete(ix.emails, newEmail)
		ix.emails[oldEmail] = struct{}{}
		return err
	}
	return nil
}

// save writes the full index document. The document is rebuilt from the
// in-memory state on every write rather than patched incrementally.
func (ix *Index) save() error {
	doc := document{
		Emails:    make([]string, 0, len(ix.emails)),
		Usernames: make(map[string]string, len(ix.usernames)),
	}
	for email := range ix.emails {
		doc.Emails = append(doc.Emails, email)
	}
	sort.Strings(doc.Emails)
	for id, username := range ix.usernames {
		doc.Usernames[id] = username
	}
	return ix.store.Save(store.KindIndex, "", &doc)
}
