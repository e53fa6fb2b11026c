package views

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mzarei/taskboard/internal/board"
	"github.com/mzarei/taskboard/internal/identity"
	"github.com/mzarei/taskboard/internal/models"
	"github.com/mzarei/taskboard/internal/ui/keys"
	"github.com/mzarei/taskboard/internal/ui/styles"
)

func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// BackToProjects is emitted when the user leaves the task board.
type BackToProjects struct{}

type boardMode int

const (
	modeList boardMode = iota
	modeNewTask
	modeViewTask
	modeEditTask
	modeEditTimes
	modeStatusPick
	modePriorityPick
	modeComment
	modeAssign
	modeUnassign
	modeHistory
	modeMembers
	modeAddMember
	modeConfirmDeleteTask
)

// TaskBoardView manages the tasks of one project.
type TaskBoardView struct {
	boards *board.Service
	index  *identity.Index
	user   *models.User
	proj   *board.Project

	styles *styles.Styles
	keys   keys.KeyMap
	width  int
	height int

	mode    boardMode
	cursor  int // selection within the task list
	pick    int // selection within pickers / member lists
	task    *board.Task
	errText string
	notice  string

	newTitle textinput.Model
	newDesc  textinput.Model
	editFoc  int
	start    textinput.Model
	end      textinput.Model
	comment  textinput.Model
	member   textinput.Model
}

// NewTaskBoardView creates the board for a project.
func NewTaskBoardView(boards *board.Service, index *identity.Index, user *models.User, proj *board.Project) *TaskBoardView {
	newTitle := textinput.New()
	newTitle.Placeholder = "Task title"
	newTitle.CharLimit = 100

	newDesc := textinput.New()
	newDesc.Placeholder = "Description (optional)"
	newDesc.CharLimit = 500

	start := textinput.New()
	start.Placeholder = models.TimeLayout
	start.CharLimit = len(models.TimeLayout)

	end := textinput.New()
	end.Placeholder = models.TimeLayout
	end.CharLimit = len(models.TimeLayout)

	comment := textinput.New()
	comment.Placeholder = "Comment"
	comment.CharLimit = 500

	member := textinput.New()
	member.Placeholder = "Username"
	member.CharLimit = 50

	return &TaskBoardView{
		boards:   boards,
		index:    index,
		user:     user,
		proj:     proj,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		newTitle: newTitle,
		newDesc:  newDesc,
		start:    start,
		end:      end,
		comment:  comment,
		member:   member,
	}
}

func (v *TaskBoardView) Init() tea.Cmd {
	return nil
}

// tasks returns the project's tasks in a stable display order.
func (v *TaskBoardView) tasks() []*board.Task {
	out := make([]*board.Task, 0, len(v.proj.Tasks))
	for _, t := range v.proj.Tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime.Time) {
			return out[i].StartTime.Before(out[j].StartTime.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (v *TaskBoardView) selectedTask() *board.Task {
	tasks := v.tasks()
	if len(tasks) == 0 {
		return nil
	}
	v.cursor = clamp(v.cursor, 0, len(tasks)-1)
	return tasks[v.cursor]
}

// username resolves an identity id for display.
func (v *TaskBoardView) username(id string) string {
	name, err := v.index.ResolveUsername(id)
	if err != nil {
		return id
	}
	return name
}

func (v *TaskBoardView) fail(err error) {
	v.errText = err.Error()
	v.notice = ""
}

func (v *TaskBoardView) ok(msg string) {
	v.notice = msg
	v.errText = ""
}

func (v *TaskBoardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return v, tea.Quit
		}
		switch v.mode {
		case modeList:
			return v.updateList(msg)
		case modeNewTask, modeEditTask:
			return v.updateTaskForm(msg)
		case modeEditTimes:
			return v.updateTimesForm(msg)
		case modeViewTask:
			return v.updateViewTask(msg)
		case modeStatusPick, modePriorityPick:
			return v.updatePicker(msg)
		case modeComment:
			return v.updateComment(msg)
		case modeAssign, modeUnassign:
			return v.updateAssignment(msg)
		case modeHistory:
			return v.updateHistory(msg)
		case modeMembers:
			return v.updateMembers(msg)
		case modeAddMember:
			return v.updateAddMember(msg)
		case modeConfirmDeleteTask:
			return v.updateConfirmDeleteTask(msg)
		}
	}
	return v, nil
}

func (v *TaskBoardView) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToProjects{} }
	case key.Matches(msg, v.keys.Up):
		v.cursor--
		v.selectedTask()
	case key.Matches(msg, v.keys.Down):
		v.cursor++
		v.selectedTask()
	case key.Matches(msg, v.keys.New):
		if !v.proj.IsOwner(v.user.ID) {
			v.fail(models.ErrForbidden)
			return v, nil
		}
		v.mode = modeNewTask
		v.editFoc = 0
		v.newTitle.Reset()
		v.newDesc.Reset()
		v.newTitle.Focus()
		v.newDesc.Blur()
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Enter):
		if t := v.selectedTask(); t != nil {
			v.task = t
			v.mode = modeViewTask
			v.errText = ""
			v.notice = ""
		}
	case key.Matches(msg, v.keys.Delete):
		if t := v.selectedTask(); t != nil {
			if !v.proj.IsOwner(v.user.ID) {
				v.fail(models.ErrForbidden)
				return v, nil
			}
			v.task = t
			v.mode = modeConfirmDeleteTask
		}
	case msg.String() == "m":
		v.mode = modeMembers
		v.pick = 0
		v.errText = ""
		v.notice = ""
	}
	return v, nil
}

func (v *TaskBoardView) updateTaskForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		if v.mode == modeEditTask {
			v.mode = modeViewTask
		} else {
			v.mode = modeList
		}
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.editFoc = (v.editFoc + 1) % 2
		if v.editFoc == 0 {
			v.newTitle.Focus()
			v.newDesc.Blur()
		} else {
			v.newTitle.Blur()
			v.newDesc.Focus()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		title := strings.TrimSpace(v.newTitle.Value())
		desc := strings.TrimSpace(v.newDesc.Value())
		if v.mode == modeNewTask {
			t, err := v.boards.CreateTask(v.user.ID, v.proj, title, desc)
			if err != nil {
				v.fail(err)
				return v, nil
			}
			v.mode = modeList
			v.ok(fmt.Sprintf("Task %q created.", t.Title))
			return v, nil
		}
		// Edit mode: apply title and description separately so each
		// change lands in the history on its own.
		if title != v.task.Title {
			if err := v.boards.SetTitle(v.user.ID, v.proj, v.task.ID, title); err != nil {
				v.fail(err)
				return v, nil
			}
		}
		if desc != v.task.Description {
			if err := v.boards.SetDescription(v.user.ID, v.proj, v.task.ID, desc); err != nil {
				v.fail(err)
				return v, nil
			}
		}
		v.mode = modeViewTask
		v.ok("Task updated.")
		return v, nil
	}

	var cmd tea.Cmd
	if v.editFoc == 0 {
		v.newTitle, cmd = v.newTitle.Update(msg)
	} else {
		v.newDesc, cmd = v.newDesc.Update(msg)
	}
	return v, cmd
}

func (v *TaskBoardView) updateTimesForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = modeViewTask
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.editFoc = (v.editFoc + 1) % 2
		if v.editFoc == 0 {
			v.start.Focus()
			v.end.Blur()
		} else {
			v.start.Blur()
			v.end.Focus()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if err := v.applyTimes(); err != nil {
			v.fail(err)
			return v, nil
		}
		v.mode = modeViewTask
		v.ok("Time window updated.")
		return v, nil
	}

	var cmd tea.Cmd
	if v.editFoc == 0 {
		v.start, cmd = v.start.Update(msg)
	} else {
		v.end, cmd = v.end.Update(msg)
	}
	return v, cmd
}

func (v *TaskBoardView) applyTimes() error {
	startText := strings.TrimSpace(v.start.Value())
	endText := strings.TrimSpace(v.end.Value())

	if startText != v.task.StartTime.String() {
		start, err := models.ParseTimestamp(startText)
		if err != nil {
			return fmt.Errorf("%w: use the format %s", models.ErrInvalidInput, models.TimeLayout)
		}
		if err := v.boards.SetStartTime(v.user.ID, v.proj, v.task.ID, start); err != nil {
			return err
		}
	}
	if endText != v.task.EndTime.String() {
		end, err := models.ParseTimestamp(endText)
		if err != nil {
			return fmt.Errorf("%w: use the format %s", models.ErrInvalidInput, models.TimeLayout)
		}
		if err := v.boards.SetEndTime(v.user.ID, v.proj, v.task.ID, end); err != nil {
			return err
		}
	}
	return nil
}

func (v *TaskBoardView) updateViewTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		v.mode = modeList
		return v, nil
	case "s":
		v.mode = modeStatusPick
		v.pick = 0
		return v, nil
	case "p":
		v.mode = modePriorityPick
		v.pick = 0
		return v, nil
	case "e":
		v.mode = modeEditTask
		v.editFoc = 0
		v.newTitle.SetValue(v.task.Title)
		v.newDesc.SetValue(v.task.Description)
		v.newTitle.Focus()
		v.newDesc.Blur()
		return v, textinput.Blink
	case "t":
		v.mode = modeEditTimes
		v.editFoc = 0
		v.start.SetValue(v.task.StartTime.String())
		v.end.SetValue(v.task.EndTime.String())
		v.start.Focus()
		v.end.Blur()
		return v, textinput.Blink
	case "c":
		v.mode = modeComment
		v.comment.Reset()
		v.comment.Focus()
		return v, textinput.Blink
	case "a":
		v.mode = modeAssign
		v.pick = 0
		return v, nil
	case "u":
		v.mode = modeUnassign
		v.pick = 0
		return v, nil
	case "h":
		v.mode = modeHistory
		v.pick = 0
		return v, nil
	}
	return v, nil
}

func (v *TaskBoardView) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(models.Statuses)
	if v.mode == modePriorityPick {
		count = len(models.Priorities)
	}
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = modeViewTask
	case key.Matches(msg, v.keys.Up):
		v.pick = clamp(v.pick-1, 0, count-1)
	case key.Matches(msg, v.keys.Down):
		v.pick = clamp(v.pick+1, 0, count-1)
	case key.Matches(msg, v.keys.Enter):
		var err error
		if v.mode == modeStatusPick {
			err = v.boards.SetStatus(v.user.ID, v.proj, v.task.ID, models.Statuses[v.pick])
		} else {
			err = v.boards.SetPriority(v.user.ID, v.proj, v.task.ID, models.Priorities[v.pick])
		}
		if err != nil {
			v.fail(err)
		} else {
			v.ok("Task updated.")
		}
		v.mode = modeViewTask
	}
	return v, nil
}

func (v *TaskBoardView) updateComment(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = modeViewTask
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		if err := v.boards.AddComment(v.user.ID, v.proj, v.task.ID, v.comment.Value()); err != nil {
			v.fail(err)
			return v, nil
		}
		v.mode = modeViewTask
		v.ok("Comment added.")
		return v, nil
	}
	var cmd tea.Cmd
	v.comment, cmd = v.comment.Update(msg)
	return v, cmd
}

// assignCandidates lists collaborators not yet assigned to the task.
func (v *TaskBoardView) assignCandidates() []string {
	var out []string
	for _, c := range v.proj.Collaborators {
		if !v.task.IsAssignee(c) {
			out = append(out, c)
		}
	}
	return out
}

func (v *TaskBoardView) updateAssignment(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	candidates := v.assignCandidates()
	if v.mode == modeUnassign {
		candidates = v.task.Assignees
	}
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = modeViewTask
	case key.Matches(msg, v.keys.Up):
		v.pick = clamp(v.pick-1, 0, max(len(candidates)-1, 0))
	case key.Matches(msg, v.keys.Down):
		v.pick = clamp(v.pick+1, 0, max(len(candidates)-1, 0))
	case key.Matches(msg, v.keys.Enter):
		if len(candidates) == 0 {
			v.mode = modeViewTask
			return v, nil
		}
		v.pick = clamp(v.pick, 0, len(candidates)-1)
		memberID := candidates[v.pick]
		var err error
		if v.mode == modeAssign {
			err = v.boards.AssignTask(v.user.ID, v.proj, v.task.ID, memberID)
		} else {
			err = v.boards.UnassignTask(v.user.ID, v.proj, v.task.ID, memberID)
		}
		if err != nil {
			v.fail(err)
		} else {
			v.ok("Assignees updated.")
		}
		v.mode = modeViewTask
	}
	return v, nil
}

func (v *TaskBoardView) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := v.task.History.Entries()
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = modeViewTask
	case key.Matches(msg, v.keys.Up):
		v.pick = clamp(v.pick-1, 0, max(len(entries)-1, 0))
	case key.Matches(msg, v.keys.Down):
		v.pick = clamp(v.pick+1, 0, max(len(entries)-1, 0))
	}
	return v, nil
}

func (v *TaskBoardView) updateMembers(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = modeList
	case key.Matches(msg, v.keys.Up):
		v.pick = clamp(v.pick-1, 0, len(v.proj.Collaborators)-1)
	case key.Matches(msg, v.keys.Down):
		v.pick = clamp(v.pick+1, 0, len(v.proj.Collaborators)-1)
	case msg.String() == "a":
		v.mode = modeAddMember
		v.member.Reset()
		v.member.Focus()
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Delete):
		v.pick = clamp(v.pick, 0, len(v.proj.Collaborators)-1)
		memberID := v.proj.Collaborators[v.pick]
		if err := v.boards.RemoveCollaborator(v.user.ID, v.proj, memberID); err != nil {
			v.fail(err)
			return v, nil
		}
		v.ok("Member removed.")
	}
	return v, nil
}

func (v *TaskBoardView) updateAddMember(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = modeMembers
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		username := strings.TrimSpace(v.member.Value())
		memberID, err := v.index.ResolveID(username)
		if err != nil {
			v.fail(err)
			return v, nil
		}
		if err := v.boards.AddCollaborator(v.user.ID, v.proj, memberID); err != nil {
			v.fail(err)
			return v, nil
		}
		v.mode = modeMembers
		v.ok(fmt.Sprintf("%s added.", username))
		return v, nil
	}
	var cmd tea.Cmd
	v.member, cmd = v.member.Update(msg)
	return v, cmd
}

func (v *TaskBoardView) updateConfirmDeleteTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.mode = modeList
		if err := v.boards.DeleteTask(v.user.ID, v.proj, v.task.ID); err != nil {
			v.fail(err)
			return v, nil
		}
		v.ok("Task deleted.")
		v.task = nil
	case "n", "N", "esc":
		v.mode = modeList
	}
	return v, nil
}
