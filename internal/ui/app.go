package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mzarei/taskboard/internal/auth"
	"github.com/mzarei/taskboard/internal/board"
	"github.com/mzarei/taskboard/internal/identity"
	"github.com/mzarei/taskboard/internal/models"
	"github.com/mzarei/taskboard/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewAuth View = iota
	ViewProjects
	ViewTasks
)

type App struct {
	auth   *auth.Service
	boards *board.Service
	index  *identity.Index

	currentView View
	user        *models.User
	login       *views.LoginView
	projectList *views.ProjectListView
	taskBoard   *views.TaskBoardView
	width       int
	height      int
}

// NewApp creates the application model, starting at the auth screen.
func NewApp(authService *auth.Service, boards *board.Service, index *identity.Index) *App {
	return &App{
		auth:        authService,
		boards:      boards,
		index:       index,
		currentView: ViewAuth,
		login:       views.NewLoginView(authService),
	}
}

func (a *App) Init() tea.Cmd {
	return a.login.Init()
}

func (a *App) resize() tea.Cmd {
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: a.width, Height: a.height}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case views.LoggedIn:
		a.user = msg.User
		a.currentView = ViewProjects
		a.projectList = views.NewProjectListView(a.boards, a.index, a.user)
		return a, tea.Batch(a.projectList.Init(), a.resize())

	case views.LoggedOut:
		a.user = nil
		a.currentView = ViewAuth
		a.login = views.NewLoginView(a.auth)
		return a, tea.Batch(a.login.Init(), a.resize())

	case views.SelectedProject:
		a.currentView = ViewTasks
		a.taskBoard = views.NewTaskBoardView(a.boards, a.index, a.user, msg.Project)
		return a, tea.Batch(a.taskBoard.Init(), a.resize())

	case views.BackToProjects:
		a.currentView = ViewProjects
		return a, tea.Batch(a.projectList.Init(), a.resize())
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewAuth:
		_, cmd = a.login.Update(msg)
	case ViewProjects:
		_, cmd = a.projectList.Update(msg)
	case ViewTasks:
		_, cmd = a.taskBoard.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	switch a.currentView {
	case ViewProjects:
		if a.projectList != nil {
			return a.projectList.View()
		}
	case ViewTasks:
		if a.taskBoard != nil {
			return a.taskBoard.View()
		}
	}
	return a.login.View()
}
