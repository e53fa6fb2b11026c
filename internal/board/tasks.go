package board

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mzarei/taskboard/internal/history"
	"github.com/mzarei/taskboard/internal/models"
)

// CreateTask adds a task to the project with default state: BACKLOG,
// LOW priority, a time window from now to now+24h, no assignees. Owner
// only.
func (s *Service) CreateTask(actorID string, p *Project, title, description string) (*Task, error) {
	if !p.IsOwner(actorID) {
		return nil, fmt.Errorf("%w: only the owner may create tasks", models.ErrForbidden)
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: task title is empty", models.ErrInvalidInput)
	}
	now := s.timestamp()
	t := &Task{
		Title:       title,
		Description: description,
		Priority:    models.PriorityLow,
		Status:      models.StatusBacklog,
		ID:          newID(),
		StartTime:   now,
		EndTime:     models.At(now.Add(24 * time.Hour)),
		Assignees:   []string{},
		Comments:    []models.Comment{},
	}
	p.Tasks[t.ID] = t
	if err := s.save(p); err != nil {
		delete(p.Tasks, t.ID)
		return nil, err
	}
	s.logger.Info("task created",
		zap.String("project", p.ID), zap.String("task", t.ID), zap.String("actor", actorID))
	return t, nil
}

// DeleteTask irreversibly removes a task and its entire history from
// the project. Owner only.
func (s *Service) DeleteTask(actorID string, p *Project, taskID string) error {
	if !p.IsOwner(actorID) {
		return fmt.Errorf("%w: only the owner may delete tasks", models.ErrForbidden)
	}
	t, ok := p.Tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: task %q", models.ErrNotFound, taskID)
	}
	delete(p.Tasks, taskID)
	if err := s.save(p); err != nil {
		p.Tasks[taskID] = t
		return err
	}
	s.logger.Info("task deleted",
		zap.String("project", p.ID), zap.String("task", taskID), zap.String("actor", actorID))
	return nil
}

// editableTask fetches a task and checks the field-mutation permission
// (owner or collaborator).
func (s *Service) editableTask(actorID string, p *Project, taskID string) (*Task, error) {
	t, ok := p.Tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: task %q", models.ErrNotFound, taskID)
	}
	if !p.canEditTask(actorID, t) {
		return nil, fmt.Errorf("%w: only project members may edit the task", models.ErrForbidden)
	}
	return t, nil
}

// recordAndSave appends a history entry for an already-applied field
// mutation and persists the project. On a storage failure both the
// entry and the mutation are undone, keeping memory consistent with
// disk.
func (s *Service) recordAndSave(p *Project, t *Task, actorID string, payload history.Payload, revert func()) error {
	entry := t.History.RecordAt(actorID, s.timestamp(), payload)
	if err := s.save(p); err != nil {
		t.History.Rollback(entry)
		revert()
		return err
	}
	s.logger.Debug("task mutated",
		zap.String("project", p.ID),
		zap.String("task", t.ID),
		zap.String("actor", actorID),
		zap.String("action", string(payload.Action())))
	return nil
}

// SetStatus sets the task's status. No transition ordering is enforced;
// any of the five statuses may be set directly.
func (s *Service) SetStatus(actorID string, p *Project, taskID string, status models.Status) error {
	t, err := s.editableTask(actorID, p, taskID)
	if err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("%w: status %q", models.ErrInvalidInput, status)
	}
	prev := t.Status
	t.Status = status
	return s.recordAndSave(p, t, actorID, history.StatusChange{Status: status}, func() {
		t.Status = prev
	})
}

// SetPriority sets the task's priority.
func (s *Service) SetPriority(actorID string, p *Project, taskID string, priority models.Priority) error {
	t, err := s.editableTask(actorID, p, taskID)
	if err != nil {
		return err
	}
	if !priority.Valid() {
		return fmt.Errorf("%w: priority %q", models.ErrInvalidInput, priority)
	}
	prev := t.Priority
	t.Priority = priority
	return s.recordAndSave(p, t, actorID, history.PriorityChange{Priority: priority}, func() {
		t.Priority = prev
	})
}

// SetStartTime moves the start of the task's time window. The window
// must stay ordered: start ≤ end.
func (s *Service) SetStartTime(actorID string, p *Project, taskID string, start models.Timestamp) error {
	t, err := s.editableTask(actorID, p, taskID)
	if err != nil {
		return err
	}
	if start.After(t.EndTime.Time) {
		return fmt.Errorf("%w: start time after end time", models.ErrInvalidInput)
	}
	prev := t.StartTime
	t.StartTime = start
	return s.recordAndSave(p, t, actorID, history.StartTimeChange{Time: start}, func() {
		t.StartTime = prev
	})
}

// SetEndTime moves the end of the task's time window.
func (s *Service) SetEndTime(actorID string, p *Project, taskID string, end models.Timestamp) error {
	t, err := s.editableTask(actorID, p, taskID)
	if err != nil {
		return err
	}
	if end.Before(t.StartTime.Time) {
		return fmt.Errorf("%w: end time before start time", models.ErrInvalidInput)
	}
	prev := t.EndTime
	t.EndTime = end
	return s.recordAndSave(p, t, actorID, history.EndTimeChange{Time: end}, func() {
		t.EndTime = prev
	})
}

// SetTitle renames the task.
func (s *Service) SetTitle(actorID string, p *Project, taskID, title string) error {
	t, err := s.editableTask(actorID, p, taskID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: task title is empty", models.ErrInvalidInput)
	}
	prev := t.Title
	t.Title = title
	return s.recordAndSave(p, t, actorID, history.TitleChange{Title: title}, func() {
		t.Title = prev
	})
}

// SetDescription replaces the task's description. An empty description
// is allowed.
func (s *Service) SetDescription(actorID string, p *Project, taskID, description string) error {
	t, err := s.editableTask(actorID, p, taskID)
	if err != nil {
		return err
	}
	prev := t.Description
	t.Description = description
	return s.recordAndSave(p, t, actorID, history.DescriptionChange{Description: description}, func() {
		t.Description = prev
	})
}

// AssignTask assigns a project collaborator to the task. Owner only.
func (s *Service) AssignTask(actorID string, p *Project, taskID, memberID string) error {
	if !p.IsOwner(actorID) {
		return fmt.Errorf("%w: only the owner may assign members", models.ErrForbidden)
	}
	t, ok := p.Tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: task %q", models.ErrNotFound, taskID)
	}
	if !p.IsCollaborator(memberID) {
		return fmt.Errorf("%w: %q", models.ErrNotAMember, memberID)
	}
	if t.IsAssignee(memberID) {
		return fmt.Errorf("%w: %q", models.ErrAlreadyAssigned, memberID)
	}
	t.Assignees = append(t.Assignees, memberID)
	return s.recordAndSave(p, t, actorID, history.AssigneeAdded{Assignee: memberID}, func() {
		t.Assignees = t.Assignees[:len(t.Assignees)-1]
	})
}

// UnassignTask removes a member from the task's assignees. Owner only.
func (s *Service) UnassignTask(actorID string, p *Project, taskID, memberID string) error {
	if !p.IsOwner(actorID) {
		return fmt.Errorf("%w: only the owner may unassign members", models.ErrForbidden)
	}
	t, ok := p.Tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: task %q", models.ErrNotFound, taskID)
	}
	if !t.IsAssignee(memberID) {
		return fmt.Errorf("%w: %q is not assigned", models.ErrNotFound, memberID)
	}
	prev := t.Assignees
	remaining := make([]string, 0, len(t.Assignees)-1)
	for _, a := range t.Assignees {
		if a != memberID {
			remaining = append(remaining, a)
		}
	}
	t.Assignees = remaining
	return s.recordAndSave(p, t, actorID, history.AssigneeRemoved{Assignee: memberID}, func() {
		t.Assignees = prev
	})
}
