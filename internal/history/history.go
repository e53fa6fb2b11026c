// Package history keeps the append-only audit trail of task mutations.
// Entries are tagged variants: each action carries exactly one payload
// value, so rendering never has to guess which field is meaningful.
package history

import (
	"github.com/mzarei/taskboard/internal/models"
)

// Action tags one kind of task mutation.
type Action string

const (
	ActionChangeStatus      Action = "change_status"
	ActionChangePriority    Action = "change_priority"
	ActionChangeStartTime   Action = "change_start_time"
	ActionChangeEndTime     Action = "change_end_time"
	ActionChangeTitle       Action = "change_title"
	ActionChangeDescription Action = "change_description"
	ActionAddComment        Action = "add_comment"
	ActionEditComment       Action = "edit_comment"
	ActionRemoveComment     Action = "remove_comment"
	ActionAddAssignee       Action = "add_assignee"
	ActionRemoveAssignee    Action = "remove_assignee"
)

// Payload is the action-specific value of a history entry. One concrete
// type exists per action tag.
type Payload interface {
	Action() Action
	// Summary renders the single meaningful value for display. It is
	// valid even when the value is empty or zero.
	Summary() string
}

type StatusChange struct {
	Status models.Status
}

func (c StatusChange) Action() Action  { return ActionChangeStatus }
func (c StatusChange) Summary() string { return string(c.Status) }

type PriorityChange struct {
	Priority models.Priority
}

func (c PriorityChange) Action() Action  { return ActionChangePriority }
func (c PriorityChange) Summary() string { return string(c.Priority) }

type StartTimeChange struct {
	Time models.Timestamp
}

func (c StartTimeChange) Action() Action  { return ActionChangeStartTime }
func (c StartTimeChange) Summary() string { return c.Time.String() }

type EndTimeChange struct {
	Time models.Timestamp
}

func (c EndTimeChange) Action() Action  { return ActionChangeEndTime }
func (c EndTimeChange) Summary() string { return c.Time.String() }

type TitleChange struct {
	Title string
}

func (c TitleChange) Action() Action  { return ActionChangeTitle }
func (c TitleChange) Summary() string { return c.Title }

type DescriptionChange struct {
	Description string
}

func (c DescriptionChange) Action() Action  { return ActionChangeDescription }
func (c DescriptionChange) Summary() string { return c.Description }

type CommentAdded struct {
	Comment string
}

func (c CommentAdded) Action() Action  { return ActionAddComment }
func (c CommentAdded) Summary() string { return excerpt(c.Comment) }

type CommentEdited struct {
	Comment string
}

func (c CommentEdited) Action() Action  { return ActionEditComment }
func (c CommentEdited) Summary() string { return excerpt(c.Comment) }

type CommentRemoved struct {
	Comment string
}

func (c CommentRemoved) Action() Action  { return ActionRemoveComment }
func (c CommentRemoved) Summary() string { return excerpt(c.Comment) }

type AssigneeAdded struct {
	Assignee string
}

func (c AssigneeAdded) Action() Action  { return ActionAddAssignee }
func (c AssigneeAdded) Summary() string { return c.Assignee }

type AssigneeRemoved struct {
	Assignee string
}

func (c AssigneeRemoved) Action() Action  { return ActionRemoveAssignee }
func (c AssigneeRemoved) Summary() string { return c.Assignee }

const excerptLen = 40

func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= excerptLen {
		return s
	}
	return string(runes[:excerptLen]) + "…"
}

// Entry is one immutable audit record.
type Entry struct {
	Actor   string
	At      models.Timestamp
	Payload Payload
}

// Summary renders the entry's payload value.
func (e Entry) Summary() string {
	return e.Payload.Summary()
}

// Log is an append-only, insertion-ordered sequence of entries. The
// zero value is an empty log ready for use. The entry slice is kept
// unexported so no caller can remove or reorder what was recorded.
type Log struct {
	entries []Entry
}

// Record appends an entry stamped with the current time. It never
// fails; persistence is the owning aggregate's concern.
func (l *Log) Record(actor string, p Payload) Entry {
	return l.RecordAt(actor, models.Now(), p)
}

// RecordAt appends an entry with an explicit timestamp.
func (l *Log) RecordAt(actor string, at models.Timestamp, p Payload) Entry {
	e := Entry{Actor: actor, At: at, Payload: p}
	l.entries = append(l.entries, e)
	return e
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns the recorded entries in insertion order. The slice
// is a copy; mutating it does not touch the log.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// dropLast undoes the most recent append. Only the board service may
// call it, and only to roll back an entry whose mutation failed to
// persist; a persisted entry is never removed.
func (l *Log) dropLast() {
	if n := len(l.entries); n > 0 {
		l.entries = l.entries[:n-1]
	}
}

// Rollback removes the given entry if and only if it is the most
// recently recorded one. It exists for the persist-or-rollback path in
// the project aggregate and refuses anything else.
func (l *Log) Rollback(e Entry) bool {
	n := len(l.entries)
	if n == 0 {
		return false
	}
	last := l.entries[n-1]
	if last.Actor != e.Actor || last.At != e.At || last.Payload != e.Payload {
		return false
	}
	l.dropLast()
	return true
}
