package board

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mzarei/taskboard/internal/history"
	"github.com/mzarei/taskboard/internal/identity"
	"github.com/mzarei/taskboard/internal/models"
	"github.com/mzarei/taskboard/internal/store"
)

type testEnv struct {
	store   *store.Store
	index   *identity.Index
	service *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	ix, err := identity.Open(st, zap.NewNop())
	require.NoError(t, err)

	s := NewService(st, ix, zap.NewNop())
	s.now = func() time.Time {
		return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	}
	return &testEnv{store: st, index: ix, service: s}
}

func (e *testEnv) registerUser(t *testing.T, id, username string) {
	t.Helper()
	require.NoError(t, e.index.Register(id, username, username+"@example.com"))
}

// newProjectWithMember builds the standard fixture: owner O, member M,
// one task owned by the project.
func (e *testEnv) newProjectWithMember(t *testing.T) (*Project, *Task) {
	t.Helper()
	e.registerUser(t, "owner-01", "olivia")
	e.registerUser(t, "membr-01", "marcus")

	p, err := e.service.CreateProject("owner-01", "Website")
	require.NoError(t, err)
	require.NoError(t, e.service.AddCollaborator("owner-01", p, "membr-01"))

	task, err := e.service.CreateTask("owner-01", p, "Design landing page", "hero section first")
	require.NoError(t, err)
	return p, task
}

func TestCreateProject(t *testing.T) {
	e := newTestEnv(t)
	e.registerUser(t, "owner-01", "olivia")

	p, err := e.service.CreateProject("owner-01", "Website")
	require.NoError(t, err)
	assert.Equal(t, "owner-01", p.Owner)
	assert.Equal(t, []string{"owner-01"}, p.Collaborators, "owner must always be a collaborator")

	m, err := e.store.LoadMembership("owner-01")
	require.NoError(t, err)
	assert.Contains(t, m.Projects, p.ID)
}

func TestCreateProjectValidation(t *testing.T) {
	e := newTestEnv(t)
	e.registerUser(t, "owner-01", "olivia")

	_, err := e.service.CreateProject("owner-01", "   ")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = e.service.CreateProject("ghost-99", "Website")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateTaskDefaults(t *testing.T) {
	e := newTestEnv(t)
	_, task := e.newProjectWithMember(t)

	assert.Equal(t, models.StatusBacklog, task.Status)
	assert.Equal(t, models.PriorityLow, task.Priority)
	assert.Equal(t, "2024-03-01 10:00:00", task.StartTime.String())
	assert.Equal(t, "2024-03-02 10:00:00", task.EndTime.String())
	assert.Empty(t, task.Assignees)
	assert.Equal(t, 0, task.History.Len())
}

func TestCreateTaskPermissions(t *testing.T) {
	e := newTestEnv(t)
	p, _ := e.newProjectWithMember(t)

	_, err := e.service.CreateTask("membr-01", p, "Sneaky", "")
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = e.service.CreateTask("owner-01", p, "", "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestMemberMayEditFieldsButNotMembership(t *testing.T) {
	e := newTestEnv(t)
	p, task := e.newProjectWithMember(t)

	// A member may edit task fields without being assigned.
	require.NoError(t, e.service.SetTitle("membr-01", p, task.ID, "new"))
	assert.Equal(t, "new", task.Title)

	// But membership management stays owner-only, even for oneself.
	err := e.service.RemoveCollaborator("membr-01", p, "membr-01")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestOutsiderMayNotEdit(t *testing.T) {
	e := newTestEnv(t)
	p, task := e.newProjectWithMember(t)
	e.registerUser(t, "outsd-01", "oscar")

	err := e.service.SetStatus("outsd-01", p, task.ID, models.StatusDone)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestStatusMutationRecordsHistoryAndPersists(t *testing.T) {
	e := newTestEnv(t)
	p, task := e.newProjectWithMember(t)

	require.NoError(t, e.service.SetStatus("owner-01", p, task.ID, models.StatusDoing))

	reloaded, err := e.service.Project(p.ID)
	require.NoError(t, err)
	got := reloaded.Task(task.ID)
	require.NotNil(t, got)
	assert.Equal(t, models.StatusDoing, got.Status)

	entries := got.History.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "owner-01", entries[0].Actor)
	assert.Equal(t, history.ActionChangeStatus, entries[0].Payload.Action())
	assert.Equal(t, "DOING", entries[0].Summary())
}

func TestStatusIsFreePicklist(t *testing.T) {
	e := newTestEnv(t)
	p, task := e.newProjectWithMember(t)

	// Jump straight from BACKLOG to ARCHIVED and back; no ordering rule.
	require.NoError(t, e.service.SetStatus("owner-01", p, task.ID, models.StatusArchived))
	require.NoError(t, e.service.SetStatus("owner-01", p, task.ID, models.StatusTodo))

	err := e.service.SetStatus("owner-01", p, task.ID, models.Status("LIMBO"))
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestTimeWindowValidation(t *testing.T) {
	e := newTestEnv(t)
	p, task := e.newProjectWithMember(t)

	late, err := models.ParseTimestamp("2024-03-05 10:00:00")
	require.NoError(t, err)
	early, err := models.ParseTimestamp("2024-02-01 10:00:00")
	require.NoError(t, err)

	// Start after the current end is rejected.
	assert.ErrorIs(t, e.service.SetStartTime("owner-01", p, task.ID, late), models.ErrInvalidInput)
	// End before the current start is rejected.
	assert.ErrorIs(t, e.service.SetEndTime("owner-01", p, task.ID, early), models.ErrInvalidInput)

	require.NoError(t, e.service.SetEndTime("owner-01", p, task.ID, late))
	require.NoError(t, e.service.SetStartTime("owner-01", p, task.ID, early))
	assert.Equal(t, 2, task.History.Len())
}

func TestAssignment(t *testing.T) {
	e := newTestEnv(t)
	p, task := e.newProjectWithMember(t)
	e.registerUser(t, "outsd-01", "oscar")

	err := e.service.AssignTask("membr-01", p, task.ID, "membr-01")
	assert.ErrorIs(t, err, models.ErrForbidden)

	err = e.service.AssignTask("owner-01", p, task.ID, "outsd-01")
	assert.ErrorIs(t, err, models.ErrNotAMember)

	require.NoError(t, e.service.AssignTask("owner-01", p, task.ID, "membr-01"))
	assert.True(t, task.IsAssignee("membr-01"))

	err = e.service.AssignTask("owner-01", p, task.ID, "membr-01")
	assert.ErrorIs(t, err, models.ErrAlreadyAssigned)

	require.NoError(t, e.service.UnassignTask("owner-01", p, task.ID, "membr-01"))
	assert.False(t, task.IsAssignee("membr-01"))

	err = e.service.UnassignTask("owner-01", p, task.ID, "membr-01")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRemoveCollaboratorCascadesToAssignments(t *testing.T) {
	e := newTestEnv(t)
	p, task := e.newProjectWithMember(t)
	require.NoError(t, e.service.AssignTask("owner-01", p, task.ID, "membr-01"))
	before := task.History.Len()

	require.NoError(t, e.service.RemoveCollaborator("owner-01", p, "membr-01"))

	assert.False(t, p.IsCollaborator("membr-01"))
	assert.False(t, task.IsAssignee("membr-01"))

	entries := task.History.Entries()
	require.Len(t, entries, before+1)
	last := entries[len(entries)-1]
	assert.Equal(t, history.ActionRemoveAssignee, last.Payload.Action())
	assert.Equal(t, "owner-01", last.Actor, "the remover is the recorded actor")
	assert.Equal(t, "membr-01", last.Summary())

	m, err := e.store.LoadMembership("membr-01")
	require.NoError(t, err)
	assert.NotContains(t, m.Projects, p.ID)
}

// breakProjectDocument replaces the project document with a directory
// so the store's atomic rename cannot land.
func (e *testEnv) breakProjectDocument(t *testing.T, projectID string) {
	t.Helper()
	path := filepath.Join(e.store.Root(), "projects", projectID+".json")
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))
}

func TestFieldMutationRollsBackWhenSaveFails(t *testing.T) {
	e := newTestEnv(t)
	p, task := e.newProjectWithMember(t)
	e.breakProjectDocument(t, p.ID)

	err := e.service.SetStatus("owner-01", p, task.ID, models.StatusDoing)
	require.ErrorIs(t, err, models.ErrStorage)

	// Memory stays in step with disk: the field and the appended
	// history entry are both reverted.
	assert.Equal(t, models.StatusBacklog, task.Status)
	assert.Equal(t, 0, task.History.Len())

	err = e.service.SetTitle("membr-01", p, task.ID, "renamed")
	require.ErrorIs(t, err, models.ErrStorage)
	assert.Equal(t, "Design landing page", task.Title)
	assert.Equal(t, 0, task.History.Len())
}

func TestRemoveCollaboratorRollsBackWhenSaveFails(t *testing.T) {
	e := newTestEnv(t)
	p, task := e.newProjectWithMember(t)
	require.NoError(t, e.service.AssignTask("owner-01", p, task.ID, "membr-01"))
	before := task.History.Len()
	e.breakProjectDocument(t, p.ID)

	err := e.service.RemoveCollaborator("owner-01", p, "membr-01")
	require.ErrorIs(t, err, models.ErrStorage)

	// The whole cascade is undone: membership, assignment, and the
	// per-task history entries.
	assert.True(t, p.IsCollaborator("membr-01"))
	assert.True(t, task.IsAssignee("membr-01"))
	assert.Equal(t, before, task.History.Len())

	m, err := e.store.LoadMembership("membr-01")
	require.NoError(t, err)
	assert.Contains(t, m.Projects, p.ID)
}

func TestRemoveCollaboratorGuards(t *testing.T) {
	e := newTestEnv(t)
	p, _ := e.newProjectWithMember(t)

	assert.ErrorIs(t, e.service.RemoveCollaborator("owner-01", p, "owner-01"), models.ErrForbidden)
	assert.ErrorIs(t, e.service.RemoveCollaborator("owner-01", p, "ghost-99"), models.ErrNotAMember)
}

func TestComments(t *testing.T) {
	e := newTestEnv(t)
	p, task := e.newProjectWithMember(t)

	require.NoError(t, e.service.AddComment("owner-01", p, task.ID, "ship it"))
	require.NoError(t, e.service.AddComment("membr-01", p, task.ID, "hold on"))
	require.Len(t, task.Comments, 2)
	assert.Equal(t, models.RoleOwner, task.Comments[0].Role)
	assert.Equal(t, models.RoleAssignee, task.Comments[1].Role)

	// Only the author may edit or delete.
	err := e.service.EditComment("owner-01", p, task.ID, 1, "rewritten")
	assert.ErrorIs(t, err, models.ErrForbidden)

	require.NoError(t, e.service.EditComment("membr-01", p, task.ID, 1, "hold on please"))
	assert.Equal(t, "hold on please", task.Comments[1].Comment)

	err = e.service.DeleteComment("membr-01", p, task.ID, 0)
	assert.ErrorIs(t, err, models.ErrForbidden)
	require.NoError(t, e.service.DeleteComment("owner-01", p, task.ID, 0))
	require.Len(t, task.Comments, 1)

	err = e.service.DeleteComment("owner-01", p, task.ID, 5)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// add, add, edit, remove = four history entries.
	assert.Equal(t, 4, task.History.Len())
}

func TestDeleteTask(t *testing.T) {
	e := newTestEnv(t)
	p, task := e.newProjectWithMember(t)

	assert.ErrorIs(t, e.service.DeleteTask("membr-01", p, task.ID), models.ErrForbidden)
	require.NoError(t, e.service.DeleteTask("owner-01", p, task.ID))
	assert.Nil(t, p.Task(task.ID))

	reloaded, err := e.service.Project(p.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Tasks)
}

func TestDeleteProjectCleansMemberships(t *testing.T) {
	e := newTestEnv(t)
	p, _ := e.newProjectWithMember(t)

	assert.ErrorIs(t, e.service.DeleteProject("membr-01", p), models.ErrForbidden)

	require.NoError(t, e.service.DeleteProject("owner-01", p))
	assert.False(t, e.store.Exists(store.KindProject, p.ID))

	for _, member := range []string{"owner-01", "membr-01"} {
		m, err := e.store.LoadMembership(member)
		require.NoError(t, err)
		assert.NotContains(t, m.Projects, p.ID)
	}
}

func TestProjectsForSkipsBrokenMembershipEntries(t *testing.T) {
	e := newTestEnv(t)
	p, _ := e.newProjectWithMember(t)
	require.NoError(t, e.store.AddProjectToMembership("owner-01", "missing1"))

	projects, err := e.service.ProjectsFor("owner-01")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, p.ID, projects[0].ID)
}

func TestEndToEndFlow(t *testing.T) {
	e := newTestEnv(t)
	e.registerUser(t, "alice-01", "alice")

	p, err := e.service.CreateProject("alice-01", "P")
	require.NoError(t, err)
	task, err := e.service.CreateTask("alice-01", p, "t1", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusBacklog, task.Status)
	assert.Equal(t, models.PriorityLow, task.Priority)

	require.NoError(t, e.service.SetStatus("alice-01", p, task.ID, models.StatusDoing))

	reloaded, err := e.service.Project(p.ID)
	require.NoError(t, err)
	got := reloaded.Task(task.ID)
	require.NotNil(t, got)
	assert.Equal(t, models.StatusDoing, got.Status)

	entries := got.History.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, history.ActionChangeStatus, entries[0].Payload.Action())
	assert.Equal(t, "DOING", entries[0].Summary())
	assert.Equal(t, "alice-01", entries[0].Actor)
}
