package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mzarei/taskboard/internal/models"
	"github.com/mzarei/taskboard/internal/store"
)

func newTestIndex(t *testing.T) (*Index, *store.Store) {
	t.Helper()
	st, err := store.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	ix, err := Open(st, zap.NewNop())
	require.NoError(t, err)
	return ix, st
}

func TestRegisterAndResolve(t *testing.T) {
	ix, _ := newTestIndex(t)

	require.NoError(t, ix.Register("id-1", "alice", "a@x.com"))

	name, err := ix.ResolveUsername("id-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	id, err := ix.ResolveID("alice")
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
}

func TestResolveUnknown(t *testing.T) {
	ix, _ := newTestIndex(t)

	_, err := ix.ResolveUsername("ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = ix.ResolveID("ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRegisterConflictLeavesIndexUnchanged(t *testing.T) {
	ix, _ := newTestIndex(t)
	require.NoError(t, ix.Register("id-1", "alice", "a@x.com"))

	err := ix.Register("id-2", "alice", "b@x.com")
	require.ErrorIs(t, err, models.ErrConflict)

	// No partial insert: id-2 is absent and its email stayed free.
	_, err = ix.ResolveUsername("id-2")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.False(t, ix.EmailTaken("b@x.com"))

	id, err := ix.ResolveID("alice")
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)

	err = ix.Register("id-3", "carol", "a@x.com")
	require.ErrorIs(t, err, models.ErrConflict)
	assert.False(t, ix.UsernameTaken("carol"))
}

func TestRename(t *testing.T) {
	ix, _ := newTestIndex(t)
	require.NoError(t, ix.Register("id-1", "alice", "a@x.com"))

	require.NoError(t, ix.Rename("id-1", "alicia"))

	name, err := ix.ResolveUsername("id-1")
	require.NoError(t, err)
	assert.Equal(t, "alicia", name)

	id, err := ix.ResolveID("alicia")
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)

	// The old name is released.
	_, err = ix.ResolveID("alice")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRenameConflict(t *testing.T) {
	ix, _ := newTestIndex(t)
	require.NoError(t, ix.Register("id-1", "alice", "a@x.com"))
	require.NoError(t, ix.Register("id-2", "bob", "b@x.com"))

	err := ix.Rename("id-2", "alice")
	require.ErrorIs(t, err, models.ErrConflict)

	name, err := ix.ResolveUsername("id-2")
	require.NoError(t, err)
	assert.Equal(t, "bob", name)
}

func TestRenameUnknownID(t *testing.T) {
	ix, _ := newTestIndex(t)
	err := ix.Rename("ghost", "anything")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateEmail(t *testing.T) {
	ix, _ := newTestIndex(t)
	require.NoError(t, ix.Register("id-1", "alice", "a@x.com"))
	require.NoError(t, ix.Register("id-2", "bob", "b@x.com"))

	require.NoError(t, ix.UpdateEmail("a@x.com", "new@x.com"))
	assert.True(t, ix.EmailTaken("new@x.com"))
	assert.False(t, ix.EmailTaken("a@x.com"))

	err := ix.UpdateEmail("new@x.com", "b@x.com")
	require.ErrorIs(t, err, models.ErrConflict)

	err = ix.UpdateEmail("ghost@x.com", "c@x.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// breakIndexDocument replaces index.json with a directory so the
// write-through rename cannot land.
func breakIndexDocument(t *testing.T, st *store.Store) {
	t.Helper()
	path := filepath.Join(st.Root(), "index.json")
	if err := os.Remove(path); err != nil {
		require.ErrorIs(t, err, os.ErrNotExist)
	}
	require.NoError(t, os.Mkdir(path, 0o755))
}

func TestRegisterRollsBackWhenSaveFails(t *testing.T) {
	ix, st := newTestIndex(t)
	require.NoError(t, ix.Register("id-1", "alice", "a@x.com"))
	breakIndexDocument(t, st)

	err := ix.Register("id-2", "bob", "b@x.com")
	require.ErrorIs(t, err, models.ErrStorage)

	// The failed insert left no trace in memory.
	assert.False(t, ix.UsernameTaken("bob"))
	assert.False(t, ix.EmailTaken("b@x.com"))
	_, err = ix.ResolveUsername("id-2")
	assert.ErrorIs(t, err, models.ErrNotFound)

	id, err := ix.ResolveID("alice")
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
}

func TestRenameRollsBackWhenSaveFails(t *testing.T) {
	ix, st := newTestIndex(t)
	require.NoError(t, ix.Register("id-1", "alice", "a@x.com"))
	breakIndexDocument(t, st)

	err := ix.Rename("id-1", "alicia")
	require.ErrorIs(t, err, models.ErrStorage)

	name, err := ix.ResolveUsername("id-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	id, err := ix.ResolveID("alice")
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
	assert.False(t, ix.UsernameTaken("alicia"))
}

func TestWriteThroughSurvivesReopen(t *testing.T) {
	ix, st := newTestIndex(t)
	require.NoError(t, ix.Register("id-1", "alice", "a@x.com"))
	require.NoError(t, ix.Rename("id-1", "alicia"))

	reopened, err := Open(st, zap.NewNop())
	require.NoError(t, err)

	name, err := reopened.ResolveUsername("id-1")
	require.NoError(t, err)
	assert.Equal(t, "alicia", name)
	assert.True(t, reopened.EmailTaken("a@x.com"))
}

func TestUsernamesSorted(t *testing.T) {
	ix, _ := newTestIndex(t)
	require.NoError(t, ix.Register("id-1", "carol", "c@x.com"))
	require.NoError(t, ix.Register("id-2", "alice", "a@x.com"))
	require.NoError(t, ix.Register("id-3", "bob", "b@x.com"))

	assert.Equal(t, []string{"alice", "bob", "carol"}, ix.Usernames())
}
