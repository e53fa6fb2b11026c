package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mzarei/taskboard/internal/auth"
	"github.com/mzarei/taskboard/internal/models"
	"github.com/mzarei/taskboard/internal/ui/keys"
	"github.com/mzarei/taskboard/internal/ui/styles"
)

// LoggedIn is emitted when authentication succeeds.
type LoggedIn struct {
	User *models.User
}

type authMode int

const (
	modeLogin authMode = iota
	modeRegister
)

// LoginView is the entry screen: login and registration forms.
type LoginView struct {
	auth   *auth.Service
	styles *styles.Styles
	keys   keys.KeyMap

	mode     authMode
	email    textinput.Model
	username textinput.Model
	password textinput.Model
	focusIdx int
	errText  string
	notice   string
	width    int
	height   int
}

// NewLoginView creates the auth screen.
func NewLoginView(authService *auth.Service) *LoginView {
	email := textinput.New()
	email.Placeholder = "Email"
	email.CharLimit = 255

	username := textinput.New()
	username.Placeholder = "Username"
	username.CharLimit = 50
	username.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 100
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &LoginView{
		auth:     authService,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		mode:     modeLogin,
		email:    email,
		username: username,
		password: password,
	}
}

func (v *LoginView) Init() tea.Cmd {
	return textinput.Blink
}

// fields returns the inputs active in the current mode, in focus order.
func (v *LoginView) fields() []*textinput.Model {
	if v.mode == modeRegister {
		return []*textinput.Model{&v.email, &v.username, &v.password}
	}
	return []*textinput.Model{&v.username, &v.password}
}

func (v *LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case tea.KeyMsg:
		switch {
		case msg.String() == "ctrl+c":
			return v, tea.Quit

		case msg.String() == "ctrl+t":
			// Toggle between login and registration.
			if v.mode == modeLogin {
				v.mode = modeRegister
			} else {
				v.mode = modeLogin
			}
			v.errText = ""
			v.focusIdx = 0
			v.updateFocus()
			return v, nil

		case msg.String() == "shift+tab":
			n := len(v.fields())
			v.focusIdx = (v.focusIdx + n - 1) % n
			v.updateFocus()
			return v, nil

		case key.Matches(msg, v.keys.Tab):
			v.focusIdx = (v.focusIdx + 1) % len(v.fields())
			v.updateFocus()
			return v, nil

		case key.Matches(msg, v.keys.Enter):
			if v.focusIdx < len(v.fields())-1 {
				v.focusIdx++
				v.updateFocus()
				return v, nil
			}
			return v, v.submit()
		}
	}

	var cmd tea.Cmd
	field := v.fields()[v.focusIdx]
	*field, cmd = field.Update(msg)
	return v, cmd
}

func (v *LoginView) updateFocus() {
	for i, f := range v.fields() {
		if i == v.focusIdx {
			f.Focus()
		} else {
			f.Blur()
		}
	}
}

func (v *LoginView) submit() tea.Cmd {
	username := strings.TrimSpace(v.username.Value())
	password := v.password.Value()

	if v.mode == modeRegister {
		email := strings.TrimSpace(v.email.Value())
		_, err := v.auth.Register(email, username, password)
		if err != nil {
			v.errText = err.Error()
			return nil
		}
		v.mode = modeLogin
		v.notice = "Account created. Log in to continue."
		v.errText = ""
		v.password.Reset()
		v.focusIdx = 0
		v.updateFocus()
		return nil
	}

	user, err := v.auth.Login(username, password)
	if err != nil {
		v.errText = err.Error()
		v.password.Reset()
		return nil
	}
	return func() tea.Msg {
		return LoggedIn{User: user}
	}
}

func (v *LoginView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	title := "Login"
	hint := "Ctrl+T: register instead"
	if v.mode == modeRegister {
		title = "Register"
		hint = "Ctrl+T: login instead"
	}

	rows := []string{s.Title.Render("Taskboard"), "", s.TitleMuted.Render(title), ""}
	labels := []string{"Username:", "Password:"}
	if v.mode == modeRegister {
		labels = []string{"Email:", "Username:", "Password:"}
	}
	for i, f := range v.fields() {
		style := s.Input
		if i == v.focusIdx {
			style = s.InputFocused
		}
		rows = append(rows, labels[i], style.Width(inputWidth).Render(f.View()))
	}
	rows = append(rows, "")
	if v.errText != "" {
		rows = append(rows, s.ErrorMsg.Render(v.errText))
	} else if v.notice != "" {
		rows = append(rows, s.Notice.Render(v.notice))
	}
	rows = append(rows, "", s.TitleMuted.Render("Tab: next • ↵: submit • "+hint))

	form := lipgloss.JoinVertical(lipgloss.Left, rows...)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}
