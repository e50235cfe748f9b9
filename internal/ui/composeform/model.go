package composeform

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/hashan1998-it/unichat-tui/internal/model"
	"github.com/hashan1998-it/unichat-tui/internal/theme"
)

// API is the subset of the server client the compose form needs.
type API interface {
	CreatePost(ctx context.Context, content, postType, imagePath string) (*model.Post, error)
}

// PostCreatedMsg is dispatched when the server accepted the new post.
type PostCreatedMsg struct {
	Post *model.Post
}

// PostFailedMsg is dispatched when publishing failed.
type PostFailedMsg struct {
	Err error
}

// CancelMsg is dispatched when the user abandons the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	content   string
	postType  string
	imagePath string
}

// Model is the new-post compose form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	client API
	busy   bool
	width  int
	height int
}

// New creates a compose form model.
func New(client API, width, height int) Model {
	return Model{
		fb:     &formBindings{postType: model.PostTypeGeneral},
		client: client,
		width:  width,
		height: height,
	}
}

// Start resets the form for a fresh post.
func (m *Model) Start() tea.Cmd {
	m.fb.content = ""
	m.fb.postType = model.PostTypeGeneral
	m.fb.imagePath = ""
	m.busy = false
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the compose form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.busy = true
		return m, m.submit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the compose form.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	body := "Publishing..."
	if !m.busy && m.form != nil {
		body = m.form.View()
	}

	content := titleStyle.Render("New Post") + "\n" + body

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("What's on your mind?").
				CharLimit(2000).
				Value(&m.fb.content).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("post content is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Type").
				Options(
					huh.NewOption("General", model.PostTypeGeneral),
					huh.NewOption("Academic", model.PostTypeAcademic),
					huh.NewOption("Event", model.PostTypeEvent),
				).
				Value(&m.fb.postType),
			huh.NewInput().
				Title("Image").
				Placeholder("path to an image file (optional)").
				Value(&m.fb.imagePath).
				Validate(validateOptionalFile),
		),
	).WithWidth(m.formWidth())
}

func (m *Model) formWidth() int {
	w := m.width - 8
	if w > 72 {
		w = 72
	}
	if w < 30 {
		w = 30
	}
	return w
}

// submit publishes the post off the UI loop.
func (m Model) submit() tea.Cmd {
	client := m.client
	fb := *m.fb
	return func() tea.Msg {
		post, err := client.CreatePost(
			context.Background(),
			strings.TrimSpace(fb.content),
			fb.postType,
			strings.TrimSpace(fb.imagePath),
		)
		if err != nil {
			return PostFailedMsg{Err: err}
		}
		return PostCreatedMsg{Post: post}
	}
}

func validateOptionalFile(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := os.Stat(s); err != nil {
		return fmt.Errorf("file not found: %s", s)
	}
	return nil
}
