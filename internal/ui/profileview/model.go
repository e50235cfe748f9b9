package profileview

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hashan1998-it/unichat-tui/internal/connection"
	"github.com/hashan1998-it/unichat-tui/internal/keys"
	"github.com/hashan1998-it/unichat-tui/internal/model"
	"github.com/hashan1998-it/unichat-tui/internal/theme"
)

// API is the subset of the server client the profile view needs.
// *api.Client satisfies it.
type API interface {
	connection.API
	UpdateProfile(ctx context.Context, bio string) error
}

// BackMsg signals the parent to navigate back.
type BackMsg struct{}

// ProfileLoadedMsg carries a fetched profile and, for another user's
// page, the derived connection state.
type ProfileLoadedMsg struct {
	User  *model.User
	State connection.State
	Err   error
}

// BioSavedMsg reports the bio update round trip.
type BioSavedMsg struct {
	Bio string
	Err error
}

// ConnSettledMsg reports a connection action round trip.
type ConnSettledMsg struct {
	State connection.State
	Err   error
}

// Model is the profile page for the signed-in user or a peer.
type Model struct {
	client      API
	connections *connection.Registry
	keys        *keys.KeyMap
	userID      string
	selfID      string
	user        *model.User
	connState   connection.State
	viewport    viewport.Model
	bioInput    textinput.Model
	editMode    bool
	loading     bool
	width       int
	height      int
}

// New creates a profile view for the given user id.
func New(client API, reg *connection.Registry, k *keys.KeyMap, userID, selfID string, width, height int) Model {
	vp := viewport.New(width, height-2)

	bi := textinput.New()
	bi.Placeholder = "tell people about yourself..."
	bi.Prompt = "> "
	bi.CharLimit = 300
	bi.Width = width - 4

	return Model{
		client:      client,
		connections: reg,
		keys:        k,
		userID:      userID,
		selfID:      selfID,
		connState:   connection.StateNone,
		viewport:    vp,
		bioInput:    bi,
		loading:     true,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the profile.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Update handles messages for the profile view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ProfileLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m, nil
		}
		m.user = msg.User
		m.connState = msg.State
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case BioSavedMsg:
		if msg.Err == nil && m.user != nil {
			m.user.Bio = msg.Bio
		}
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case ConnSettledMsg:
		// An empty state means the action never ran, e.g. a duplicate
		// press rejected while the first was in flight.
		if msg.State != "" {
			m.connState = msg.State
		}
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case tea.KeyMsg:
		if m.editMode {
			return m.handleEditKeys(msg)
		}
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleEditKeys processes key input while the bio editor is open.
func (m Model) handleEditKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		bio := strings.TrimSpace(m.bioInput.Value())
		m.editMode = false
		client := m.client
		return m, func() tea.Msg {
			err := client.UpdateProfile(context.Background(), bio)
			return BioSavedMsg{Bio: bio, Err: err}
		}

	case "esc":
		m.editMode = false
		m.bioInput.Reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.bioInput, cmd = m.bioInput.Update(msg)
	return m, cmd
}

// handleKeys processes key input in normal mode.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	isSelf := m.userID == m.selfID

	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg {
			return BackMsg{}
		}

	case key.Matches(msg, m.keys.EditBio):
		if !isSelf || m.user == nil {
			return m, nil
		}
		m.editMode = true
		m.bioInput.SetValue(m.user.Bio)
		return m, m.bioInput.Focus()

	case key.Matches(msg, m.keys.Connect):
		if isSelf {
			return m, nil
		}
		switch m.connState {
		case connection.StateNone:
			return m, m.connAction((*connection.Tracker).Send)
		case connection.StatePending:
			return m, m.connAction((*connection.Tracker).Cancel)
		}
		return m, nil

	case key.Matches(msg, m.keys.Accept):
		if isSelf || m.connState != connection.StateReceived {
			return m, nil
		}
		return m, m.connAction((*connection.Tracker).Accept)

	case key.Matches(msg, m.keys.Reject):
		if isSelf || m.connState != connection.StateReceived {
			return m, nil
		}
		return m, m.connAction((*connection.Tracker).Reject)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.load()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the profile view.
func (m Model) View() string {
	if m.loading {
		style := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return style.Render("Loading profile...")
	}

	if m.user == nil {
		style := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return style.Render("Profile unavailable.")
	}

	if m.editMode {
		inputBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.bioInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), inputBar)
	}

	return m.viewport.View()
}

// renderContent builds the profile content string for the viewport.
func (m Model) renderContent() string {
	u := m.user
	if u == nil {
		return ""
	}

	var sections []string

	nameStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	role := string(u.Role)
	roleBadge := theme.RoleBadgeStyle(role).Render(role)

	sections = append(sections, lipgloss.JoinHorizontal(
		lipgloss.Top, nameStyle.Render(u.Username), "  ", roleBadge,
	))

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	sections = append(sections, fmt.Sprintf(
		"%s  %s",
		metaStyle.Render("University ID:"),
		valStyle.Render(u.UniversityID),
	))
	sections = append(sections, fmt.Sprintf(
		"%s          %s",
		metaStyle.Render("Email:"),
		valStyle.Render(u.Email),
	))
	sections = append(sections, fmt.Sprintf(
		"%s    %d",
		metaStyle.Render("Connections:"),
		len(u.Connections),
	))

	if m.userID != m.selfID {
		stateLabel := string(m.connState)
		stateBadge := theme.ConnectionStateStyle(stateLabel).Render(stateLabel)
		sections = append(sections, fmt.Sprintf(
			"%s         %s",
			metaStyle.Render("Status:"),
			stateBadge,
		))
	}

	sections = append(sections, "")
	if u.Bio != "" {
		sections = append(sections, u.Bio)
	} else if m.userID == m.selfID {
		sections = append(sections, metaStyle.Render("No bio yet. Press e to add one."))
	} else {
		sections = append(sections, metaStyle.Render("No bio."))
	}

	return theme.DetailPanelStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

// load fetches the profile and, for a peer, derives the connection state.
func (m Model) load() tea.Cmd {
	client := m.client
	userID := m.userID
	selfID := m.selfID
	reg := m.connections
	return func() tea.Msg {
		ctx := context.Background()
		u, err := client.Profile(ctx, userID)
		if err != nil {
			return ProfileLoadedMsg{Err: err}
		}
		state := connection.StateNone
		if userID != selfID {
			// When the refresh fails the tracker keeps its last
			// settled state, which is still the best answer.
			tracker := reg.Tracker(userID)
			_ = tracker.Load(ctx)
			state = tracker.State()
		}
		return ProfileLoadedMsg{User: u, State: state}
	}
}

// connAction runs a workflow transition against the viewed peer through
// the shared tracker; a transition already in flight rejects the
// duplicate instead of firing the mutation twice.
func (m Model) connAction(
	action func(*connection.Tracker, context.Context) error,
) tea.Cmd {
	tracker := m.connections.Tracker(m.userID)
	return func() tea.Msg {
		ctx := context.Background()
		if err := tracker.Load(ctx); err != nil {
			return ConnSettledMsg{Err: err}
		}
		err := action(tracker, ctx)
		return ConnSettledMsg{State: tracker.State(), Err: err}
	}
}

// Editing reports whether the bio editor currently has focus.
func (m Model) Editing() bool {
	return m.editMode
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.bioInput.Width = width - 4
	m.viewport.SetContent(m.renderContent())
}
