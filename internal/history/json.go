package history

import (
	"encoding/json"
	"fmt"

	"github.com/mzarei/taskboard/internal/models"
)

// entryRecord is an entry's on-disk shape. Exactly one payload field is
// set per action tag; the fields are pointers so that empty strings and
// zero values still round-trip instead of being dropped.
type entryRecord struct {
	Actor       string            `json:"actor"`
	Action      Action            `json:"action"`
	Timestamp   models.Timestamp  `json:"timestamp"`
	Status      *models.Status    `json:"status,omitempty"`
	Priority    *models.Priority  `json:"priority,omitempty"`
	Time        *models.Timestamp `json:"time,omitempty"`
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Comment     *string           `json:"comment,omitempty"`
	Assignee    *string           `json:"assignee,omitempty"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	rec := entryRecord{
		Actor:     e.Actor,
		Action:    e.Payload.Action(),
		Timestamp: e.At,
	}
	switch p := e.Payload.(type) {
	case StatusChange:
		rec.Status = &p.Status
	case PriorityChange:
		rec.Priority = &p.Priority
	case StartTimeChange:
		rec.Time = &p.Time
	case EndTimeChange:
		rec.Time = &p.Time
	case TitleChange:
		rec.Title = &p.Title
	case DescriptionChange:
		rec.Description = &p.Description
	case CommentAdded:
		rec.Comment = &p.Comment
	case CommentEdited:
		rec.Comment = &p.Comment
	case CommentRemoved:
		rec.Comment = &p.Comment
	case AssigneeAdded:
		rec.Assignee = &p.Assignee
	case AssigneeRemoved:
		rec.Assignee = &p.Assignee
	default:
		return nil, fmt.Errorf("history: unknown payload type %T", e.Payload)
	}
	return json.Marshal(rec)
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var rec entryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	payload, err := rec.payload()
	if err != nil {
		return err
	}
	e.Actor = rec.Actor
	e.At = rec.Timestamp
	e.Payload = payload
	return nil
}

func (r entryRecord) payload() (Payload, error) {
	missing := func(field string) error {
		return fmt.Errorf("history: action %q missing %s field", r.Action, field)
	}
	switch r.Action {
	case ActionChangeStatus:
		if r.Status == nil {
			return nil, missing("status")
		}
		return StatusChange{Status: *r.Status}, nil
	case ActionChangePriority:
		if r.Priority == nil {
			return nil, missing("priority")
		}
		return PriorityChange{Priority: *r.Priority}, nil
	case ActionChangeStartTime:
		if r.Time == nil {
			return nil, missing("time")
		}
		return StartTimeChange{Time: *r.Time}, nil
	case ActionChangeEndTime:
		if r.Time == nil {
			return nil, missing("time")
		}
		return EndTimeChange{Time: *r.Time}, nil
	case ActionChangeTitle:
		if r.Title == nil {
			return nil, missing("title")
		}
		return TitleChange{Title: *r.Title}, nil
	case ActionChangeDescription:
		if r.Description == nil {
			return nil, missing("description")
		}
		return DescriptionChange{Description: *r.Description}, nil
	case ActionAddComment:
		if r.Comment == nil {
			return nil, missing("comment")
		}
		return CommentAdded{Comment: *r.Comment}, nil
	case ActionEditComment:
		if r.Comment == nil {
			return nil, missing("comment")
		}
		return CommentEdited{Comment: *r.Comment}, nil
	case ActionRemoveComment:
		if r.Comment == nil {
			return nil, missing("comment")
		}
		return CommentRemoved{Comment: *r.Comment}, nil
	case ActionAddAssignee:
		if r.Assignee == nil {
			return nil, missing("assignee")
		}
		return AssigneeAdded{Assignee: *r.Assignee}, nil
	case ActionRemoveAssignee:
		if r.Assignee == nil {
			return nil, missing("assignee")
		}
		return AssigneeRemoved{Assignee: *r.Assignee}, nil
	default:
		return nil, fmt.Errorf("history: unknown action %q", r.Action)
	}
}

func (l Log) MarshalJSON() ([]byte, error) {
	if l.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.entries)
}

func (l *Log) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	l.entries = entries
	return nil
}
