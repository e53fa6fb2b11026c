// Package board holds the project aggregate: a project owns its tasks,
// its collaborator list, and the authority over who may mutate what.
// Every mutation is recorded in the task's history and followed by a
// full re-serialization of the owning project document.
package board

import (
	"github.com/mzarei/taskboard/internal/history"
	"github.com/mzarei/taskboard/internal/models"
)

// Task is a unit of work owned by exactly one project. It has no
// persistence of its own; it is serialized as part of its project.
type Task struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Priority    models.Priority  `json:"priority"`
	Status      models.Status    `json:"status"`
	ID          string           `json:"id"`
	StartTime   models.Timestamp `json:"start_time"`
	EndTime     models.Timestamp `json:"end_time"`
	Assignees   []string         `json:"assignees"`
	Comments    []models.Comment `json:"comments"`
	History     history.Log      `json:"history"`
}

// IsAssignee reports whether the identity id is assigned to the task.
func (t *Task) IsAssignee(id string) bool {
	for _, a := range t.Assignees {
		if a == id {
			return true
		}
	}
	return false
}

// Project is an aggregate root. Owner and collaborators are identity
// ids; the owner is always a collaborator.
type Project struct {
	Title         string           `json:"title"`
	Owner         string           `json:"owner"`
	Tasks         map[string]*Task `json:"tasks"`
	Collaborators []string         `json:"collaborators"`
	ID            string           `json:"id"`
}

// IsOwner reports whether the identity id owns the project.
func (p *Project) IsOwner(id string) bool {
	return p.Owner == id
}

// IsCollaborator reports whether the identity id is a project member.
func (p *Project) IsCollaborator(id string) bool {
	for _, c := range p.Collaborators {
		if c == id {
			return true
		}
	}
	return false
}

// Task returns the owned task with the given id, or nil.
func (p *Project) Task(id string) *Task {
	return p.Tasks[id]
}

// canEditTask is the field-mutation rule: the owner or any project
// member may change status, priority, times, title, and description.
// Membership, assignment, and deletion stay owner-only. An assignee who
// was removed from the project loses edit access with the membership.
func (p *Project) canEditTask(actor string, t *Task) bool {
	return p.IsOwner(actor) || p.IsCollaborator(actor)
}
