package board

import (
	"fmt"
	"strings"

	"github.com/mzarei/taskboard/internal/history"
	"github.com/mzarei/taskboard/internal/models"
)

// AddComment appends a comment by the actor. Any project member may
// comment; the recorded role says whether the actor owns the project.
func (s *Service) AddComment(actorID string, p *Project, taskID, text string) error {
	t, err := s.editableTask(actorID, p, taskID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: comment is empty", models.ErrInvalidInput)
	}
	role := models.RoleAssignee
	if p.IsOwner(actorID) {
		role = models.RoleOwner
	}
	t.Comments = append(t.Comments, models.Comment{
		User:      actorID,
		Comment:   text,
		Role:      role,
		Timestamp: s.timestamp(),
	})
	return s.recordAndSave(p, t, actorID, history.CommentAdded{Comment: text}, func() {
		t.Comments = t.Comments[:len(t.Comments)-1]
	})
}

// commentAt fetches a comment by position and enforces the author-only
// rule for edit and delete.
func (s *Service) commentAt(actorID string, t *Task, index int) (*models.Comment, error) {
	if index < 0 || index >= len(t.Comments) {
		return nil, fmt.Errorf("%w: comment %d", models.ErrNotFound, index)
	}
	c := &t.Comments[index]
	if c.User != actorID {
		return nil, fmt.Errorf("%w: only the author may change a comment", models.ErrForbidden)
	}
	return c, nil
}

// EditComment replaces the text of the actor's own comment. The
// original timestamp is kept; the edit itself is the history record.
func (s *Service) EditComment(actorID string, p *Project, taskID string, index int, text string) error {
	t, ok := p.Tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: task %q", models.ErrNotFound, taskID)
	}
	c, err := s.commentAt(actorID, t, index)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: comment is empty", models.ErrInvalidInput)
	}
	prev := c.Comment
	c.Comment = text
	return s.recordAndSave(p, t, actorID, history.CommentEdited{Comment: text}, func() {
		c.Comment = prev
	})
}

// DeleteComment removes the actor's own comment.
func (s *Service) DeleteComment(actorID string, p *Project, taskID string, index int) error {
	t, ok := p.Tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: task %q", models.ErrNotFound, taskID)
	}
	c, err := s.commentAt(actorID, t, index)
	if err != nil {
		return err
	}
	removed := *c
	prev := make([]models.Comment, len(t.Comments))
	copy(prev, t.Comments)
	t.Comments = append(t.Comments[:index], t.Comments[index+1:]...)
	return s.recordAndSave(p, t, actorID, history.CommentRemoved{Comment: removed.Comment}, func() {
		t.Comments = prev
	})
}
