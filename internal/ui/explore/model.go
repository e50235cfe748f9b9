package explore

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hashan1998-it/unichat-tui/internal/connection"
	"github.com/hashan1998-it/unichat-tui/internal/keys"
	"github.com/hashan1998-it/unichat-tui/internal/model"
	"github.com/hashan1998-it/unichat-tui/internal/theme"
)

// API is the subset of the server client the explore view needs.
// *api.Client satisfies it.
type API interface {
	connection.API
	SearchUsers(ctx context.Context, query string) ([]model.User, error)
}

// UsersFoundMsg carries the results of a user search along with the
// pending requests needed to derive each result's connection state.
type UsersFoundMsg struct {
	Users   []model.User
	Pending []model.ConnectionRequest
	Err     error
}

// ConnActionMsg reports the settled outcome of a connection action.
type ConnActionMsg struct {
	UserID string
	State  connection.State
	Err    error
}

// ViewProfileMsg is sent when the user opens a search result's profile.
type ViewProfileMsg struct {
	UserID string
}

// Model is the explore view: a search box over the member directory
// with connection actions on each result.
type Model struct {
	list        list.Model
	client      API
	connections *connection.Registry
	keys        *keys.KeyMap
	selfID      string
	searchMode  bool
	searchInput textinput.Model
	searched    bool
	width       int
	height      int
}

// New creates a new explore view model.
func New(client API, reg *connection.Registry, k *keys.KeyMap, selfID string, width, height int) Model {
	delegate := UserDelegate{}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Explore"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search people..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		client:      client,
		connections: reg,
		keys:        k,
		selfID:      selfID,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns the initial command for the explore view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the explore view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case UsersFoundMsg:
		m.searched = true
		if msg.Err != nil {
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.Users))
		for _, u := range msg.Users {
			if u.ID == m.selfID {
				continue
			}
			items = append(items, UserItem{
				User:  u,
				State: deriveState(m.selfID, u, msg.Pending),
			})
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case ConnActionMsg:
		// An empty state means the action never ran (e.g. a duplicate
		// press rejected while the first was in flight); keep the item
		// as is. A settled state corrects the item even on error.
		if msg.State == "" {
			return m, nil
		}
		items := m.list.Items()
		for i, it := range items {
			ui, ok := it.(UserItem)
			if !ok || ui.User.ID != msg.UserID {
				continue
			}
			ui.State = msg.State
			return m, m.list.SetItem(i, ui)
		}
		return m, nil

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while the search box is focused.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		query := m.searchInput.Value()
		if query == "" {
			return m, nil
		}
		return m, m.search(query)

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(UserItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return ViewProfileMsg{UserID: item.User.ID}
		}

	case key.Matches(msg, m.keys.Connect):
		item, ok := m.list.SelectedItem().(UserItem)
		if !ok {
			return m, nil
		}
		switch item.State {
		case connection.StateNone:
			return m, m.connAction(item.User.ID, (*connection.Tracker).Send)
		case connection.StatePending:
			return m, m.connAction(item.User.ID, (*connection.Tracker).Cancel)
		}
		return m, nil

	case key.Matches(msg, m.keys.Accept):
		item, ok := m.list.SelectedItem().(UserItem)
		if !ok || item.State != connection.StateReceived {
			return m, nil
		}
		return m, m.connAction(item.User.ID, (*connection.Tracker).Accept)

	case key.Matches(msg, m.keys.Reject):
		item, ok := m.list.SelectedItem().(UserItem)
		if !ok || item.State != connection.StateReceived {
			return m, nil
		}
		return m, m.connAction(item.User.ID, (*connection.Tracker).Reject)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the explore view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text before and after searches.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.searched {
		return style.Render("No one matched that search.")
	}
	return style.Render("Press / to search for students and professors.")
}

// search queries the directory and the pending request list together so
// each result can be labeled with its connection state.
func (m Model) search(query string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx := context.Background()
		users, err := client.SearchUsers(ctx, query)
		if err != nil {
			return UsersFoundMsg{Err: err}
		}
		pending, err := client.PendingConnections(ctx)
		if err != nil {
			return UsersFoundMsg{Err: err}
		}
		return UsersFoundMsg{Users: users, Pending: pending}
	}
}

// connAction runs a workflow transition for the selected peer through
// the shared tracker, so a transition already in flight rejects the
// duplicate instead of firing the mutation twice.
func (m Model) connAction(
	peerID string,
	action func(*connection.Tracker, context.Context) error,
) tea.Cmd {
	tracker := m.connections.Tracker(peerID)
	return func() tea.Msg {
		ctx := context.Background()
		if err := tracker.Load(ctx); err != nil {
			return ConnActionMsg{UserID: peerID, Err: err}
		}
		err := action(tracker, ctx)
		return ConnActionMsg{UserID: peerID, State: tracker.State(), Err: err}
	}
}

// deriveState computes a result's connection state from the result's
// own connections array and the signed-in user's pending requests.
func deriveState(selfID string, u model.User, pending []model.ConnectionRequest) connection.State {
	if u.IsConnectedTo(selfID) {
		return connection.StateConnected
	}
	for i := range pending {
		req := &pending[i]
		if req.Status != model.RequestStatusPending || !req.Involves(selfID, u.ID) {
			continue
		}
		if req.Sender.ID == selfID {
			return connection.StatePending
		}
		return connection.StateReceived
	}
	return connection.StateNone
}

// Searching reports whether the search box currently has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
