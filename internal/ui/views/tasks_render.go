package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mzarei/taskboard/internal/history"
	"github.com/mzarei/taskboard/internal/models"
	"github.com/mzarei/taskboard/internal/ui/styles"
)

func (v *TaskBoardView) View() string {
	switch v.mode {
	case modeNewTask, modeEditTask:
		return v.renderTaskForm()
	case modeEditTimes:
		return v.renderTimesForm()
	case modeViewTask:
		return v.renderTaskDetail()
	case modeStatusPick, modePriorityPick:
		return v.renderPicker()
	case modeComment:
		return v.renderCommentForm()
	case modeAssign, modeUnassign:
		return v.renderAssignment()
	case modeHistory:
		return v.renderHistory()
	case modeMembers:
		return v.renderMembers()
	case modeAddMember:
		return v.renderAddMember()
	case modeConfirmDeleteTask:
		return v.renderDeleteConfirm()
	}
	return v.renderList()
}

func (v *TaskBoardView) badge(text string, color lipgloss.Color) string {
	return v.styles.Badge.Foreground(color).Render(text)
}

func (v *TaskBoardView) statusLine() string {
	if v.errText != "" {
		return v.styles.ErrorMsg.Render(v.errText)
	}
	if v.notice != "" {
		return v.styles.Notice.Render(v.notice)
	}
	return ""
}

func (v *TaskBoardView) center(content string) string {
	contentWidth := styles.ContentWidth(v.width)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskBoardView) renderList() string {
	s := v.styles
	tasks := v.tasks()

	rows := []string{
		s.Title.Render(fmt.Sprintf("Project: %s", v.proj.Title)),
		s.TitleMuted.Render(fmt.Sprintf("owner %s • %d members", v.username(v.proj.Owner), len(v.proj.Collaborators))),
		"",
	}

	if len(tasks) == 0 {
		rows = append(rows, s.TitleMuted.Render("No tasks. Press 'n' to create one."))
	}
	for i, t := range tasks {
		line := fmt.Sprintf("%s %s %s",
			v.badge(string(t.Status), styles.StatusColor(t.Status)),
			v.badge(string(t.Priority), styles.PriorityColor(t.Priority)),
			t.Title,
		)
		if i == v.cursor {
			rows = append(rows, s.ListSelected.Render(line))
		} else {
			rows = append(rows, s.ListItem.Render(line))
		}
	}

	rows = append(rows, "", v.statusLine(), v.renderListHelp())
	content := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return styles.CenterView(content, v.width, v.height)
}

func (v *TaskBoardView) renderListHelp() string {
	s := v.styles
	return s.Help.Render(
		fmt.Sprintf("%s open • %s new • %s del • %s members • %s back",
			s.HelpKey.Render("↵"),
			s.HelpKey.Render("n"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("m"),
			s.HelpKey.Render("esc"),
		),
	)
}

func (v *TaskBoardView) renderTaskDetail() string {
	s := v.styles
	t := v.task

	assignees := make([]string, 0, len(t.Assignees))
	for _, id := range t.Assignees {
		assignees = append(assignees, v.username(id))
	}
	assigneeText := "nobody"
	if len(assignees) > 0 {
		assigneeText = strings.Join(assignees, ", ")
	}

	rows := []string{
		s.Title.Render(t.Title),
		s.TitleMuted.Render(t.Description),
		"",
		fmt.Sprintf("%s %s", v.badge(string(t.Status), styles.StatusColor(t.Status)),
			v.badge(string(t.Priority), styles.PriorityColor(t.Priority))),
		"",
		fmt.Sprintf("Window:    %s → %s", t.StartTime, t.EndTime),
		fmt.Sprintf("Assignees: %s", assigneeText),
		"",
	}

	if len(t.Comments) > 0 {
		rows = append(rows, s.TitleMuted.Render("Comments:"))
		for _, c := range t.Comments {
			rows = append(rows, fmt.Sprintf("  %s (%s) %s: %s",
				c.Timestamp, c.Role, v.username(c.User), c.Comment))
		}
		rows = append(rows, "")
	}

	rows = append(rows, v.statusLine(),
		s.Help.Render(fmt.Sprintf("%s status • %s priority • %s edit • %s times • %s comment • %s assign • %s unassign • %s history • %s back",
			s.HelpKey.Render("s"), s.HelpKey.Render("p"), s.HelpKey.Render("e"),
			s.HelpKey.Render("t"), s.HelpKey.Render("c"), s.HelpKey.Render("a"),
			s.HelpKey.Render("u"), s.HelpKey.Render("h"), s.HelpKey.Render("esc"))),
	)

	content := s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return styles.CenterView(content, v.width, v.height)
}

func (v *TaskBoardView) renderPicker() string {
	s := v.styles
	title := "Set Status"
	options := make([]string, 0, len(models.Statuses))
	if v.mode == modeStatusPick {
		for _, st := range models.Statuses {
			options = append(options, string(st))
		}
	} else {
		title = "Set Priority"
		for _, p := range models.Priorities {
			options = append(options, string(p))
		}
	}

	rows := []string{s.Title.Render(title), ""}
	for i, opt := range options {
		if i == v.pick {
			rows = append(rows, s.ListSelected.Render(opt))
		} else {
			rows = append(rows, s.ListItem.Render(opt))
		}
	}
	rows = append(rows, "", s.TitleMuted.Render("↵: apply • Esc: cancel"))
	return v.center(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (v *TaskBoardView) renderTaskForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	title := "New Task"
	if v.mode == modeEditTask {
		title = "Edit Task"
	}

	titleStyle, descStyle := s.InputFocused, s.Input
	if v.editFoc == 1 {
		titleStyle, descStyle = s.Input, s.InputFocused
	}

	rows := []string{
		s.Title.Render(title),
		"",
		"Title:",
		titleStyle.Width(inputWidth).Render(v.newTitle.View()),
		"",
		"Description:",
		descStyle.Width(inputWidth).Render(v.newDesc.View()),
		"",
	}
	if v.errText != "" {
		rows = append(rows, s.ErrorMsg.Render(v.errText), "")
	}
	rows = append(rows, s.TitleMuted.Render("Tab: next • ↵: save • Esc: cancel"))
	return v.center(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (v *TaskBoardView) renderTimesForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	startStyle, endStyle := s.InputFocused, s.Input
	if v.editFoc == 1 {
		startStyle, endStyle = s.Input, s.InputFocused
	}

	rows := []string{
		s.Title.Render("Time Window"),
		"",
		"Start:",
		startStyle.Width(inputWidth).Render(v.start.View()),
		"",
		"End:",
		endStyle.Width(inputWidth).Render(v.end.View()),
		"",
	}
	if v.errText != "" {
		rows = append(rows, s.ErrorMsg.Render(v.errText), "")
	}
	rows = append(rows, s.TitleMuted.Render("Tab: next • ↵: save • Esc: cancel"))
	return v.center(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (v *TaskBoardView) renderCommentForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 60)

	rows := []string{
		s.Title.Render("Add Comment"),
		"",
		s.InputFocused.Width(inputWidth).Render(v.comment.View()),
		"",
	}
	if v.errText != "" {
		rows = append(rows, s.ErrorMsg.Render(v.errText), "")
	}
	rows = append(rows, s.TitleMuted.Render("↵: save • Esc: cancel"))
	return v.center(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (v *TaskBoardView) renderAssignment() string {
	s := v.styles
	title := "Assign Member"
	candidates := v.assignCandidates()
	if v.mode == modeUnassign {
		title = "Unassign Member"
		candidates = v.task.Assignees
	}

	rows := []string{s.Title.Render(title), ""}
	if len(candidates) == 0 {
		rows = append(rows, s.TitleMuted.Render("Nobody available."))
	}
	for i, id := range candidates {
		name := v.username(id)
		if i == v.pick {
			rows = append(rows, s.ListSelected.Render(name))
		} else {
			rows = append(rows, s.ListItem.Render(name))
		}
	}
	rows = append(rows, "", s.TitleMuted.Render("↵: apply • Esc: cancel"))
	return v.center(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// actionLabel renders a history action tag for humans.
func actionLabel(a history.Action) string {
	switch a {
	case history.ActionChangeStatus:
		return "set status"
	case history.ActionChangePriority:
		return "set priority"
	case history.ActionChangeStartTime:
		return "moved start"
	case history.ActionChangeEndTime:
		return "moved end"
	case history.ActionChangeTitle:
		return "renamed"
	case history.ActionChangeDescription:
		return "edited description"
	case history.ActionAddComment:
		return "commented"
	case history.ActionEditComment:
		return "edited comment"
	case history.ActionRemoveComment:
		return "removed comment"
	case history.ActionAddAssignee:
		return "assigned"
	case history.ActionRemoveAssignee:
		return "unassigned"
	}
	return string(a)
}

func (v *TaskBoardView) renderHistory() string {
	s := v.styles
	entries := v.task.History.Entries()

	rows := []string{s.Title.Render(fmt.Sprintf("History: %s", v.task.Title)), ""}
	if len(entries) == 0 {
		rows = append(rows, s.TitleMuted.Render("No changes recorded yet."))
	}
	for i, e := range entries {
		summary := e.Summary()
		// Assignee entries store ids; show the name.
		switch e.Payload.Action() {
		case history.ActionAddAssignee, history.ActionRemoveAssignee:
			summary = v.username(summary)
		}
		line := fmt.Sprintf("%s  %s %s → %s",
			e.At, v.username(e.Actor), actionLabel(e.Payload.Action()), summary)
		if i == v.pick {
			rows = append(rows, s.ListSelected.Render(line))
		} else {
			rows = append(rows, s.ListItem.Render(line))
		}
	}
	rows = append(rows, "", s.TitleMuted.Render("Esc: back"))
	content := s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return styles.CenterView(content, v.width, v.height)
}

func (v *TaskBoardView) renderMembers() string {
	s := v.styles
	rows := []string{s.Title.Render("Project Members"), ""}
	for i, id := range v.proj.Collaborators {
		name := v.username(id)
		if id == v.proj.Owner {
			name += " (owner)"
		}
		if i == v.pick {
			rows = append(rows, s.ListSelected.Render(name))
		} else {
			rows = append(rows, s.ListItem.Render(name))
		}
	}
	rows = append(rows, "", v.statusLine(),
		s.Help.Render(fmt.Sprintf("%s add • %s remove • %s back",
			s.HelpKey.Render("a"), s.HelpKey.Render("d"), s.HelpKey.Render("esc"))))
	return v.center(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (v *TaskBoardView) renderAddMember() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	available := make([]string, 0)
	for _, name := range v.index.Usernames() {
		id, err := v.index.ResolveID(name)
		if err == nil && !v.proj.IsCollaborator(id) {
			available = append(available, name)
		}
	}

	rows := []string{
		s.Title.Render("Add Member"),
		"",
		s.TitleMuted.Render("Available: " + strings.Join(available, ", ")),
		"",
		s.InputFocused.Width(inputWidth).Render(v.member.View()),
		"",
	}
	if v.errText != "" {
		rows = append(rows, s.ErrorMsg.Render(v.errText), "")
	}
	rows = append(rows, s.TitleMuted.Render("↵: add • Esc: cancel"))
	return v.center(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (v *TaskBoardView) renderDeleteConfirm() string {
	s := v.styles
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("\"%s\" and its history will be removed.", v.task.Title)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	return v.center(content)
}
