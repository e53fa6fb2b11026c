package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mzarei/taskboard/internal/history"
	"github.com/mzarei/taskboard/internal/identity"
	"github.com/mzarei/taskboard/internal/models"
	"github.com/mzarei/taskboard/internal/store"
)

// Service runs every project and task operation: it checks the actor's
// permission, applies the mutation, records it in the task's history,
// and re-persists the project document. If the persist fails, the
// in-memory mutation is rolled back so memory and disk stay in step.
//
// Operations that touch more than one document (membership lists plus
// the project document) are not atomic across files; a crash between
// writes can leave a stale membership entry. Known limitation.
type Service struct {
	store  *store.Store
	index  *identity.Index
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a board service.
func NewService(st *store.Store, ix *identity.Index, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, index: ix, logger: logger, now: time.Now}
}

// newID mints an 8-character id, the same shape every stored entity
// uses.
func newID() string {
	return uuid.NewString()[:8]
}

func (s *Service) timestamp() models.Timestamp {
	return models.At(s.now())
}

// CreateProject creates a project owned by the actor and records it in
// the actor's membership list.
func (s *Service) CreateProject(actorID, title string) (*Project, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: project title is empty", models.ErrInvalidInput)
	}
	if _, err := s.index.ResolveUsername(actorID); err != nil {
		return nil, err
	}
	p := &Project{
		Title:         title,
		Owner:         actorID,
		Tasks:         map[string]*Task{},
		Collaborators: []string{actorID},
		ID:            newID(),
	}
	if err := s.save(p); err != nil {
		return nil, err
	}
	if err := s.store.AddProjectToMembership(actorID, p.ID); err != nil {
		return nil, err
	}
	s.logger.Info("project created",
		zap.String("project", p.ID), zap.String("owner", actorID))
	return p, nil
}

// Project loads a project aggregate by id.
func (s *Service) Project(id string) (*Project, error) {
	p := &Project{}
	if err := s.store.Load(store.KindProject, id, p); err != nil {
		return nil, err
	}
	if p.Tasks == nil {
		p.Tasks = map[string]*Task{}
	}
	return p, nil
}

// ProjectsFor loads every project on a user's membership list. A
// membership entry pointing at a missing document is skipped rather
// than failing the whole listing.
func (s *Service) ProjectsFor(userID string) ([]*Project, error) {
	m, err := s.store.LoadMembership(userID)
	if err != nil {
		return nil, err
	}
	projects := make([]*Project, 0, len(m.Projects))
	for _, id := range m.Projects {
		p, err := s.Project(id)
		if err != nil {
			s.logger.Warn("membership points at unloadable project",
				zap.String("user", userID), zap.String("project", id), zap.Error(err))
			continue
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// DeleteProject removes the project document and strips the project
// from every collaborator's membership list. Owner only.
func (s *Service) DeleteProject(actorID string, p *Project) error {
	if !p.IsOwner(actorID) {
		return fmt.Errorf("%w: only the owner may delete the project", models.ErrForbidden)
	}
	if err := s.store.Delete(store.KindProject, p.ID); err != nil {
		return err
	}
	for _, member := range p.Collaborators {
		if err := s.store.RemoveProjectFromMembership(member, p.ID); err != nil {
			s.logger.Warn("membership cleanup failed",
				zap.String("user", member), zap.String("project", p.ID), zap.Error(err))
		}
	}
	s.logger.Info("project deleted",
		zap.String("project", p.ID), zap.String("actor", actorID))
	return nil
}

// AddCollaborator grants a user membership in the project. Owner only;
// the member must exist in the identity index.
func (s *Service) AddCollaborator(actorID string, p *Project, memberID string) error {
	if !p.IsOwner(actorID) {
		return fmt.Errorf("%w: only the owner may add members", models.ErrForbidden)
	}
	if _, err := s.index.ResolveUsername(memberID); err != nil {
		return err
	}
	if p.IsCollaborator(memberID) {
		return fmt.Errorf("%w: already a member", models.ErrConflict)
	}
	p.Collaborators = append(p.Collaborators, memberID)
	if err := s.save(p); err != nil {
		p.Collaborators = p.Collaborators[:len(p.Collaborators)-1]
		return err
	}
	if err := s.store.AddProjectToMembership(memberID, p.ID); err != nil {
		return err
	}
	s.logger.Info("collaborator added",
		zap.String("project", p.ID), zap.String("member", memberID))
	return nil
}

// RemoveCollaborator revokes a user's membership. Owner only; the owner
// cannot be removed. Any task assignment the member held is dropped and
// recorded in that task's history with the remover as actor.
func (s *Service) RemoveCollaborator(actorID string, p *Project, memberID string) error {
	if !p.IsOwner(actorID) {
		return fmt.Errorf("%w: only the owner may remove members", models.ErrForbidden)
	}
	if memberID == p.Owner {
		return fmt.Errorf("%w: the owner cannot be removed", models.ErrForbidden)
	}
	if !p.IsCollaborator(memberID) {
		return fmt.Errorf("%w: %q", models.ErrNotAMember, memberID)
	}

	var undo []func()

	kept := make([]string, 0, len(p.Collaborators)-1)
	for _, c := range p.Collaborators {
		if c != memberID {
			kept = append(kept, c)
		}
	}
	prevCollaborators := p.Collaborators
	p.Collaborators = kept
	undo = append(undo, func() { p.Collaborators = prevCollaborators })

	at := s.timestamp()
	for _, t := range p.Tasks {
		if !t.IsAssignee(memberID) {
			continue
		}
		t := t
		prevAssignees := t.Assignees
		remaining := make([]string, 0, len(t.Assignees)-1)
		for _, a := range t.Assignees {
			if a != memberID {
				remaining = append(remaining, a)
			}
		}
		t.Assignees = remaining
		entry := t.History.RecordAt(actorID, at, history.AssigneeRemoved{Assignee: memberID})
		undo = append(undo, func() {
			t.Assignees = prevAssignees
			t.History.Rollback(entry)
		})
	}

	if err := s.save(p); err != nil {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		return err
	}
	if err := s.store.RemoveProjectFromMembership(memberID, p.ID); err != nil {
		return err
	}
	s.logger.Info("collaborator removed",
		zap.String("project", p.ID), zap.String("member", memberID))
	return nil
}

// save re-serializes the full project document.
func (s *Service) save(p *Project) error {
	return s.store.Save(store.KindProject, p.ID, p)
}
