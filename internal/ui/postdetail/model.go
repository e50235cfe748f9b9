package postdetail

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hashan1998-it/unichat-tui/internal/feed"
	"github.com/hashan1998-it/unichat-tui/internal/keys"
	"github.com/hashan1998-it/unichat-tui/internal/model"
	"github.com/hashan1998-it/unichat-tui/internal/theme"
)

// API is the subset of the server client the detail view needs.
type API interface {
	LikePost(ctx context.Context, postID string) (*model.Post, error)
	CommentPost(ctx context.Context, postID, content string) (*model.Post, error)
}

// BackMsg signals the parent to navigate back to the feed.
type BackMsg struct{}

// PostMutatedMsg carries the server's updated post after a like or comment.
type PostMutatedMsg struct {
	Post *model.Post
	Err  error
}

// Model is the post detail view: full content, comment thread, and an
// inline comment composer.
type Model struct {
	postID       string
	posts        *feed.List
	client       API
	keys         *keys.KeyMap
	viewport     viewport.Model
	commentInput textinput.Model
	commentMode  bool
	selfID       string
	width        int
	height       int
}

// New creates a detail view for the given post, reading it from the
// shared post list so live updates show up on refresh.
func New(client API, posts *feed.List, k *keys.KeyMap, postID, selfID string, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	ci := textinput.New()
	ci.Placeholder = "write a comment..."
	ci.Prompt = "> "
	ci.CharLimit = 500
	ci.Width = width - 4

	m := Model{
		postID:       postID,
		posts:        posts,
		client:       client,
		keys:         k,
		viewport:     vp,
		commentInput: ci,
		selfID:       selfID,
		width:        width,
		height:       height,
	}
	m.viewport.SetContent(m.renderContent())
	return m
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PostMutatedMsg:
		if msg.Err == nil && msg.Post != nil {
			m.posts.ApplyPostUpdate(*msg.Post)
		}
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case tea.KeyMsg:
		if m.commentMode {
			return m.handleCommentKeys(msg)
		}
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleCommentKeys processes key input while the comment composer is open.
func (m Model) handleCommentKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		content := strings.TrimSpace(m.commentInput.Value())
		m.commentMode = false
		m.commentInput.Reset()
		if content == "" {
			return m, nil
		}
		client := m.client
		postID := m.postID
		return m, func() tea.Msg {
			post, err := client.CommentPost(context.Background(), postID, content)
			return PostMutatedMsg{Post: post, Err: err}
		}

	case "esc":
		m.commentMode = false
		m.commentInput.Reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.commentInput, cmd = m.commentInput.Update(msg)
	return m, cmd
}

// handleKeys processes key input in normal mode.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg {
			return BackMsg{}
		}

	case key.Matches(msg, m.keys.Comment):
		m.commentMode = true
		return m, m.commentInput.Focus()

	case key.Matches(msg, m.keys.Like):
		client := m.client
		postID := m.postID
		return m, func() tea.Msg {
			post, err := client.LikePost(context.Background(), postID)
			return PostMutatedMsg{Post: post, Err: err}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if _, ok := m.posts.Get(m.postID); !ok {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("Post not found")
	}

	if m.commentMode {
		inputBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.commentInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), inputBar)
	}

	return m.viewport.View()
}

// Commenting reports whether the comment composer currently has focus.
func (m Model) Commenting() bool {
	return m.commentMode
}

// Refresh re-renders the post from the shared list. The root model calls
// this after a live update lands.
func (m *Model) Refresh() {
	m.viewport.SetContent(m.renderContent())
}

// renderContent builds the full post content string for the viewport.
func (m Model) renderContent() string {
	post, ok := m.posts.Get(m.postID)
	if !ok {
		return ""
	}

	var sections []string

	authorStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	role := string(post.Author.Role)
	roleBadge := theme.RoleBadgeStyle(role).Render(role)
	typeBadge := theme.PostTypeStyle(post.PostType).Render(post.PostType)

	headerLine := lipgloss.JoinHorizontal(
		lipgloss.Top,
		authorStyle.Render(post.Author.Username), "  ", roleBadge, "  ", typeBadge,
	)
	sections = append(sections, headerLine)

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	if !post.CreatedAt.IsZero() {
		sections = append(sections,
			metaStyle.Render(post.CreatedAt.Format("2006-01-02 15:04")))
	}
	sections = append(sections, "")
	sections = append(sections, post.Content)
	if post.Image != "" {
		sections = append(sections, "")
		sections = append(sections, metaStyle.Render("image: "+post.Image))
	}

	likeMark := "♡"
	if post.LikedBy(m.selfID) {
		likeMark = "♥"
	}
	sections = append(sections, "")
	sections = append(sections, metaStyle.Render(fmt.Sprintf(
		"%s %d likes   %d comments", likeMark, len(post.Likes), len(post.Comments),
	)))

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	if len(post.Comments) == 0 {
		sections = append(sections, metaStyle.Render("No comments yet. Press c to add one."))
	}
	for _, comment := range post.Comments {
		nameStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
		line := fmt.Sprintf(
			"%s  %s",
			nameStyle.Render(comment.User.Username),
			metaStyle.Render(comment.CreatedAt.Format("Jan 02 15:04")),
		)
		sections = append(sections, line)
		sections = append(sections, comment.Content)
		sections = append(sections, "")
	}

	return theme.DetailPanelStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.commentInput.Width = width - 4
	m.viewport.SetContent(m.renderContent())
}
