package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mzarei/taskboard/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return st
}

func TestUserRoundTrip(t *testing.T) {
	st := newTestStore(t)

	u := &models.User{
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: "$2a$12$fake",
		Active:       true,
		ID:           "a1b2c3d4",
	}
	require.NoError(t, st.SaveUser(u))

	got, err := st.LoadUser("a1b2c3d4")
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestLoadMissingIsNotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.LoadUser("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	var m models.Membership
	err = st.Load(KindProject, "nope", &m)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLoadCorruptDocument(t *testing.T) {
	st := newTestStore(t)

	path := filepath.Join(st.Root(), "users", "bad00001", "user.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := st.LoadUser("bad00001")
	assert.ErrorIs(t, err, models.ErrCorrupt)
}

func TestDeleteMissingIsNotFound(t *testing.T) {
	st := newTestStore(t)
	err := st.Delete(KindProject, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSaveOverwritesAtomically(t *testing.T) {
	st := newTestStore(t)

	u := &models.User{Username: "alice", ID: "a1b2c3d4", Active: true}
	require.NoError(t, st.SaveUser(u))
	u.Username = "alice2"
	require.NoError(t, st.SaveUser(u))

	got, err := st.LoadUser("a1b2c3d4")
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Username)

	// No temp files may survive a save.
	dir := filepath.Join(st.Root(), "users", "a1b2c3d4")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "user.json", entries[0].Name())
}

func TestMembershipDefaultsToEmpty(t *testing.T) {
	st := newTestStore(t)

	m, err := st.LoadMembership("nobody01")
	require.NoError(t, err)
	assert.Empty(t, m.Projects)
}

func TestMembershipAddRemove(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.AddProjectToMembership("u1", "p1"))
	require.NoError(t, st.AddProjectToMembership("u1", "p2"))
	// Duplicate add is a no-op.
	require.NoError(t, st.AddProjectToMembership("u1", "p1"))

	m, err := st.LoadMembership("u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, m.Projects)

	require.NoError(t, st.RemoveProjectFromMembership("u1", "p1"))
	m, err = st.LoadMembership("u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, m.Projects)

	// Removing an unknown id is a no-op.
	require.NoError(t, st.RemoveProjectFromMembership("u1", "gone"))
}

func TestListUsers(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.SaveUser(&models.User{Username: "alice", ID: "id-alice", Active: true}))
	require.NoError(t, st.SaveUser(&models.User{Username: "bob", ID: "id-bob", Active: false}))

	users, err := st.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)

	names := []string{users[0].Username, users[1].Username}
	assert.ElementsMatch(t, []string{"alice", "bob"}, names)
}

func TestExists(t *testing.T) {
	st := newTestStore(t)
	assert.False(t, st.Exists(KindUser, "u1"))
	require.NoError(t, st.SaveUser(&models.User{Username: "x", ID: "u1"}))
	assert.True(t, st.Exists(KindUser, "u1"))
}

func TestPurge(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.SaveUser(&models.User{Username: "x", ID: "u1"}))
	require.NoError(t, st.Save(KindIndex, "", map[string]any{"emails": []string{}}))

	require.NoError(t, st.Purge())
	assert.False(t, st.Exists(KindUser, "u1"))
	assert.False(t, st.Exists(KindIndex, ""))
}
