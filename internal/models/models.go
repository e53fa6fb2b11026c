package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is a task's workflow state. No transition graph is enforced;
// any permitted actor may set any status directly.
type Status string

const (
	StatusBacklog  Status = "BACKLOG"
	StatusTodo     Status = "TODO"
	StatusDoing    Status = "DOING"
	StatusDone     Status = "DONE"
	StatusArchived Status = "ARCHIVED"
)

// Statuses lists every status in picklist order.
var Statuses = []Status{StatusBacklog, StatusTodo, StatusDoing, StatusDone, StatusArchived}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Priority is a task's urgency level.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Priorities lists every priority in picklist order.
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// TimeLayout is the wire format for every persisted timestamp.
const TimeLayout = "2006-01-02 15:04:05"

// Timestamp wraps time.Time so it marshals in the on-disk document format.
type Timestamp struct {
	time.Time
}

// Now returns the current time truncated to wire precision.
func Now() Timestamp {
	return Timestamp{time.Now().Truncate(time.Second)}
}

// At wraps t, truncated to wire precision.
func At(t time.Time) Timestamp {
	return Timestamp{t.Truncate(time.Second)}
}

// ParseTimestamp parses a wire-format timestamp string.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return Timestamp{t}, nil
}

func (t Timestamp) String() string {
	return t.Format(TimeLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(TimeLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(TimeLayout, s)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// CommentRole records the commenting user's relationship to the task.
type CommentRole string

const (
	RoleOwner    CommentRole = "owner"
	RoleAssignee CommentRole = "assignee"
)

// User is a registered account. The ID is the stable identity token;
// everything else may change over the account's lifetime.
type User struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Active       bool   `json:"active"`
	ID           string `json:"id"`
}

// Comment is one remark on a task. The User field holds the author's
// identity id, never a username.
type Comment struct {
	User      string      `json:"user"`
	Comment   string      `json:"comment"`
	Role      CommentRole `json:"role"`
	Timestamp Timestamp   `json:"timestamp"`
}

// Membership is a user's personal list of project ids.
type Membership struct {
	Projects []string `json:"projects"`
}
