package requests

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hashan1998-it/unichat-tui/internal/connection"
	"github.com/hashan1998-it/unichat-tui/internal/keys"
	"github.com/hashan1998-it/unichat-tui/internal/model"
	"github.com/hashan1998-it/unichat-tui/internal/theme"
)

// RequestsLoadedMsg carries the user's outstanding connection requests.
type RequestsLoadedMsg struct {
	Requests []model.ConnectionRequest
	Err      error
}

// RequestSettledMsg reports an accept, reject, or cancel round trip.
type RequestSettledMsg struct {
	Err error
}

// RequestItem wraps a pending request for the bubbles list.
type RequestItem struct {
	Request  model.ConnectionRequest
	Incoming bool
}

// FilterValue returns the string used for fuzzy filtering.
func (i RequestItem) FilterValue() string { return i.peer().Username }

// Title returns the peer's username.
func (i RequestItem) Title() string { return i.peer().Username }

// Description returns the request direction and age.
func (i RequestItem) Description() string {
	dir := "sent by you"
	if i.Incoming {
		dir = "wants to connect"
	}
	return fmt.Sprintf("%s | %s", dir, i.Request.CreatedAt.Format("Jan 02"))
}

// peer returns the other party of the request.
func (i RequestItem) peer() model.User {
	if i.Incoming {
		return i.Request.Sender
	}
	return i.Request.Receiver
}

// requestDelegate renders pending requests with direction markers.
type requestDelegate struct{}

func (d requestDelegate) Height() int  { return 1 }
func (d requestDelegate) Spacing() int { return 0 }

func (d requestDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d requestDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ri, ok := item.(RequestItem)
	if !ok {
		return
	}

	isSelected := index == m.Index()
	peer := ri.peer()

	arrow := "→"
	hint := "a accept / x reject"
	if !ri.Incoming {
		arrow = "←"
		hint = "s cancel"
	}

	role := string(peer.Role)
	roleBadge := theme.RoleBadgeStyle(role).Render(role)

	age := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(ageOf(ri.Request.CreatedAt))

	hintStr := theme.HelpStyle.Render(hint)

	line := fmt.Sprintf(
		"%s %s %s %s  %s",
		arrow, peer.Username, roleBadge, age, hintStr,
	)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// ageOf formats how long ago a request was created.
func ageOf(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// Model is the pending connection requests view.
type Model struct {
	list        list.Model
	client      connection.API
	connections *connection.Registry
	keys        *keys.KeyMap
	selfID      string
	width       int
	height      int
}

// New creates a new requests view model.
func New(client connection.API, reg *connection.Registry, k *keys.KeyMap, selfID string, width, height int) Model {
	l := list.New([]list.Item{}, requestDelegate{}, width, height-2)
	l.Title = "Connection Requests"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:        l,
		client:      client,
		connections: reg,
		keys:        k,
		selfID:      selfID,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the outstanding requests.
func (m Model) Init() tea.Cmd {
	return m.LoadRequests()
}

// Update handles messages for the requests view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RequestsLoadedMsg:
		if msg.Err != nil {
			return m, nil
		}
		items := make([]list.Item, 0, len(msg.Requests))
		for _, req := range msg.Requests {
			if req.Status != model.RequestStatusPending {
				continue
			}
			items = append(items, RequestItem{
				Request:  req,
				Incoming: req.Receiver.ID == m.selfID,
			})
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case RequestSettledMsg:
		// Whatever the outcome, re-derive the view from the server.
		return m, m.LoadRequests()

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKeys processes key input for the requests view.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Accept):
		item, ok := m.list.SelectedItem().(RequestItem)
		if !ok || !item.Incoming {
			return m, nil
		}
		return m, m.settle(item, (*connection.Tracker).Accept)

	case key.Matches(msg, m.keys.Reject):
		item, ok := m.list.SelectedItem().(RequestItem)
		if !ok || !item.Incoming {
			return m, nil
		}
		return m, m.settle(item, (*connection.Tracker).Reject)

	case key.Matches(msg, m.keys.Connect):
		item, ok := m.list.SelectedItem().(RequestItem)
		if !ok || item.Incoming {
			return m, nil
		}
		return m, m.settle(item, (*connection.Tracker).Cancel)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.LoadRequests()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the requests view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		style := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return style.Render("No pending connection requests.")
	}
	return m.list.View()
}

// LoadRequests returns a tea.Cmd that fetches outstanding requests.
func (m Model) LoadRequests() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		reqs, err := client.PendingConnections(context.Background())
		return RequestsLoadedMsg{Requests: reqs, Err: err}
	}
}

// settle runs a workflow transition for the request's peer through the
// shared tracker; a transition already in flight rejects the duplicate.
func (m Model) settle(
	item RequestItem,
	action func(*connection.Tracker, context.Context) error,
) tea.Cmd {
	tracker := m.connections.Tracker(item.peer().ID)
	return func() tea.Msg {
		ctx := context.Background()
		if err := tracker.Load(ctx); err != nil {
			return RequestSettledMsg{Err: err}
		}
		return RequestSettledMsg{Err: action(tracker, ctx)}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
