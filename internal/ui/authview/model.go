package authview

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/hashan1998-it/unichat-tui/internal/api"
	"github.com/hashan1998-it/unichat-tui/internal/model"
	"github.com/hashan1998-it/unichat-tui/internal/session"
	"github.com/hashan1998-it/unichat-tui/internal/theme"
)

// AuthenticatedMsg is dispatched when login (or register-then-login)
// succeeds and a session is in place.
type AuthenticatedMsg struct{}

// authFailedMsg carries a failed auth attempt back into the view.
type authFailedMsg struct {
	err error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	universityID string
	password     string
	username     string
	email        string
	role         model.Role
	register     bool
}

// Model is the login / registration view shown before a session exists.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	session *session.Manager
	errText string
	busy    bool
	width   int
	height  int
}

// New creates the auth view in login mode.
func New(s *session.Manager, width, height int) Model {
	m := Model{
		fb:      &formBindings{role: model.RoleStudent},
		session: s,
		width:   width,
		height:  height,
	}
	m.form = m.buildLoginForm()
	return m
}

// Init returns the initial command for the auth view.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the auth view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case authFailedMsg:
		m.busy = false
		m.errText = api.UserMessage(msg.err)
		// Rebuild so the user can retry with the previous values intact.
		if m.fb.register {
			m.form = m.buildRegisterForm()
		} else {
			m.form = m.buildLoginForm()
		}
		return m, m.form.Init()

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		// Tab between login and registration while no field is mid-edit.
		if msg.String() == "ctrl+r" {
			m.fb.register = !m.fb.register
			m.errText = ""
			if m.fb.register {
				m.form = m.buildRegisterForm()
			} else {
				m.form = m.buildLoginForm()
			}
			return m, m.form.Init()
		}
	}

	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.busy = true
		m.errText = ""
		return m, m.submit()
	}
	if m.form.State == huh.StateAborted {
		return m, tea.Quit
	}

	return m, cmd
}

// View renders the auth view.
func (m Model) View() string {
	titleText := "UniChat — Sign In"
	if m.fb.register {
		titleText = "UniChat — Create Account"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var parts []string
	parts = append(parts, titleStyle.Render(titleText))
	if m.errText != "" {
		errStyle := lipgloss.NewStyle().Foreground(theme.ColorRed)
		parts = append(parts, errStyle.Render(m.errText))
	}
	if m.busy {
		parts = append(parts, theme.HelpStyle.Render("Signing in..."))
	} else {
		parts = append(parts, m.form.View())
		parts = append(parts, theme.HelpStyle.Render(
			"ctrl+r: switch between sign in and registration",
		))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(theme.BorderStyle.Padding(1, 3).Render(content))
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildLoginForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("University ID").
				Placeholder("e.g. CS2021001").
				Value(&m.fb.universityID).
				Validate(validateRequired("University ID")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
		),
	).WithWidth(48)
}

func (m *Model) buildRegisterForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&m.fb.username).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Email").
				Value(&m.fb.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("University ID").
				Placeholder("e.g. CS2021001").
				Value(&m.fb.universityID).
				Validate(validateRequired("University ID")),
			huh.NewSelect[model.Role]().
				Title("Role").
				Options(
					huh.NewOption("Student", model.RoleStudent),
					huh.NewOption("Professor", model.RoleProfessor),
				).
				Value(&m.fb.role),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validatePassword),
		),
	).WithWidth(48)
}

// submit runs the auth round trip off the UI loop.
func (m Model) submit() tea.Cmd {
	s := m.session
	fb := *m.fb
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		if fb.register {
			err = s.Register(ctx, api.RegisterRequest{
				Username:     fb.username,
				Email:        fb.email,
				UniversityID: fb.universityID,
				Role:         fb.role,
				Password:     fb.password,
			})
		} else {
			err = s.Login(ctx, fb.universityID, fb.password)
		}
		if err != nil {
			return authFailedMsg{err: err}
		}
		return AuthenticatedMsg{}
	}
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("Email is required")
	}
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return fmt.Errorf("not a valid email address")
	}
	return nil
}

func validatePassword(s string) error {
	if len(s) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}
