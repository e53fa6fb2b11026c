package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mzarei/taskboard/internal/identity"
	"github.com/mzarei/taskboard/internal/models"
	"github.com/mzarei/taskboard/internal/store"
)

// newTestService uses bcrypt's minimum cost so hashing does not dominate
// the test run; the strength rules stay at their production values.
func newTestService(t *testing.T) (*Service, *store.Store, *identity.Index) {
	t.Helper()
	st, err := store.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	ix, err := identity.Open(st, zap.NewNop())
	require.NoError(t, err)
	v := &BcryptVerifier{
		cost:          bcrypt.MinCost,
		minLength:     8,
		requireUpper:  true,
		requireLower:  true,
		requireNumber: true,
	}
	return NewService(st, ix, v, zap.NewNop()), st, ix
}

func TestRegister(t *testing.T) {
	s, st, ix := newTestService(t)

	u, err := s.Register("alice@example.com", "alice", "Secret123")
	require.NoError(t, err)
	assert.True(t, u.Active)
	assert.Len(t, u.ID, 8)
	assert.NotEqual(t, "Secret123", u.PasswordHash)

	id, err := ix.ResolveID("alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	m, err := st.LoadMembership(u.ID)
	require.NoError(t, err)
	assert.Empty(t, m.Projects)
}

func TestRegisterConflicts(t *testing.T) {
	s, _, _ := newTestService(t)
	_, err := s.Register("alice@example.com", "alice", "Secret123")
	require.NoError(t, err)

	_, err = s.Register("other@example.com", "alice", "Secret123")
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = s.Register("alice@example.com", "alicia", "Secret123")
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestRegisterCleansUpWhenIndexSaveFails(t *testing.T) {
	s, st, _ := newTestService(t)

	// Replace index.json with a directory so the identity write-through
	// fails after the account and membership documents are saved.
	require.NoError(t, os.Mkdir(filepath.Join(st.Root(), "index.json"), 0o755))

	_, err := s.Register("alice@example.com", "alice", "Secret123")
	require.ErrorIs(t, err, models.ErrStorage)

	users, err := st.ListUsers()
	require.NoError(t, err)
	assert.Empty(t, users)

	// No orphaned account or membership documents survive the cleanup.
	entries, err := os.ReadDir(filepath.Join(st.Root(), "users"))
	if err != nil {
		require.ErrorIs(t, err, os.ErrNotExist)
	}
	for _, entry := range entries {
		files, err := os.ReadDir(filepath.Join(st.Root(), "users", entry.Name()))
		require.NoError(t, err)
		assert.Empty(t, files)
	}
}

func TestRegisterValidation(t *testing.T) {
	s, _, _ := newTestService(t)

	cases := []struct {
		name     string
		email    string
		username string
		password string
	}{
		{"malformed email", "not-an-email", "alice", "Secret123"},
		{"short username", "a@example.com", "al", "Secret123"},
		{"username with spaces", "a@example.com", "al ice", "Secret123"},
		{"short password", "a@example.com", "alice", "Ab1"},
		{"no uppercase", "a@example.com", "alice", "secret123"},
		{"no lowercase", "a@example.com", "alice", "SECRET123"},
		{"no number", "a@example.com", "alice", "SecretPass"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Register(tc.email, tc.username, tc.password)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
}

func TestLogin(t *testing.T) {
	s, _, _ := newTestService(t)
	reg, err := s.Register("alice@example.com", "alice", "Secret123")
	require.NoError(t, err)

	u, err := s.Login("alice", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, u.ID)

	_, err = s.Login("alice", "wrong-pass")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// An unknown username yields the same error as a wrong password.
	_, err = s.Login("nobody", "Secret123")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLoginInactiveAccount(t *testing.T) {
	s, _, _ := newTestService(t)
	_, err := s.Register("alice@example.com", "alice", "Secret123")
	require.NoError(t, err)

	_, err = s.SetActive("alice", false)
	require.NoError(t, err)

	_, err = s.Login("alice", "Secret123")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestChangeUsername(t *testing.T) {
	s, st, ix := newTestService(t)
	u, err := s.Register("alice@example.com", "alice", "Secret123")
	require.NoError(t, err)

	require.NoError(t, s.ChangeUsername(u, "alice2"))
	assert.Equal(t, "alice2", u.Username)

	// The id keeps resolving to the new name and the old name is freed.
	id, err := ix.ResolveID("alice2")
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
	assert.False(t, ix.UsernameTaken("alice"))

	stored, err := st.LoadUser(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", stored.Username)
}

func TestChangeUsernameConflict(t *testing.T) {
	s, _, _ := newTestService(t)
	u, err := s.Register("alice@example.com", "alice", "Secret123")
	require.NoError(t, err)
	_, err = s.Register("bob@example.com", "bob", "Secret123")
	require.NoError(t, err)

	err = s.ChangeUsername(u, "bob")
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, "alice", u.Username)
}

func TestChangeEmail(t *testing.T) {
	s, _, ix := newTestService(t)
	u, err := s.Register("alice@example.com", "alice", "Secret123")
	require.NoError(t, err)

	require.NoError(t, s.ChangeEmail(u, "new@example.com"))
	assert.True(t, ix.EmailTaken("new@example.com"))
	assert.False(t, ix.EmailTaken("alice@example.com"))

	err = s.ChangeEmail(u, "bad-address")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestChangePassword(t *testing.T) {
	s, _, _ := newTestService(t)
	u, err := s.Register("alice@example.com", "alice", "Secret123")
	require.NoError(t, err)

	err = s.ChangePassword(u, "wrong-pass", "Updated456")
	assert.ErrorIs(t, err, models.ErrForbidden)

	err = s.ChangePassword(u, "Secret123", "weak")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	require.NoError(t, s.ChangePassword(u, "Secret123", "Updated456"))
	_, err = s.Login("alice", "Updated456")
	require.NoError(t, err)
	_, err = s.Login("alice", "Secret123")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSetActive(t *testing.T) {
	s, st, _ := newTestService(t)
	u, err := s.Register("alice@example.com", "alice", "Secret123")
	require.NoError(t, err)

	got, err := s.SetActive("alice", false)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, u.Username, got.Username)

	stored, err := st.LoadUser(u.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	_, err = s.SetActive("nobody", false)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestInactiveUsers(t *testing.T) {
	s, _, _ := newTestService(t)
	_, err := s.Register("alice@example.com", "alice", "Secret123")
	require.NoError(t, err)
	_, err = s.Register("bob@example.com", "bob", "Secret123")
	require.NoError(t, err)
	_, err = s.SetActive("bob", false)
	require.NoError(t, err)

	inactive, err := s.InactiveUsers()
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, "bob", inactive[0].Username)
}
