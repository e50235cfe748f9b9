package notifview

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hashan1998-it/unichat-tui/internal/keys"
	"github.com/hashan1998-it/unichat-tui/internal/model"
	"github.com/hashan1998-it/unichat-tui/internal/notify"
	"github.com/hashan1998-it/unichat-tui/internal/theme"
)

// LoadedMsg signals that the notification snapshot has been fetched.
type LoadedMsg struct {
	Err error
}

// MarkedMsg reports a mark-read or mark-all round trip.
type MarkedMsg struct {
	Err error
}

// OpenLinkMsg asks the parent to navigate to a notification's target.
type OpenLinkMsg struct {
	Link string
}

// NotificationItem wraps a notification for the bubbles list.
type NotificationItem struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i NotificationItem) FilterValue() string { return i.Notification.Content }

// Title returns the notification text.
func (i NotificationItem) Title() string { return i.Notification.Content }

// Description returns the notification kind and age.
func (i NotificationItem) Description() string {
	return fmt.Sprintf(
		"%s | %s",
		i.Notification.Type,
		i.Notification.CreatedAt.Format("Jan 02 15:04"),
	)
}

// notificationDelegate renders one notification per line, unread
// entries emphasized.
type notificationDelegate struct{}

func (d notificationDelegate) Height() int  { return 1 }
func (d notificationDelegate) Spacing() int { return 0 }

func (d notificationDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d notificationDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ni, ok := item.(NotificationItem)
	if !ok {
		return
	}

	n := ni.Notification
	isSelected := index == m.Index()

	marker := " "
	if !n.Read {
		marker = "●"
	}

	age := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(ageOf(n.CreatedAt))

	text := theme.NotificationStyle(n.Read).Render(n.Content)

	line := fmt.Sprintf("%s %s  %s", marker, text, age)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// ageOf formats how long ago a notification arrived.
func ageOf(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// Model is the notification center view backed by the shared store.
type Model struct {
	list   list.Model
	store  *notify.Store
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new notification view model.
func New(store *notify.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, notificationDelegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		store:  store,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns a command that loads the notification snapshot.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Update handles messages for the notification view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg, MarkedMsg:
		return m, m.syncItems()

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKeys processes key input for the notification view.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.MarkRead):
		item, ok := m.list.SelectedItem().(NotificationItem)
		if !ok {
			return m, nil
		}
		store := m.store
		n := item.Notification
		return m, func() tea.Msg {
			err := store.MarkRead(context.Background(), n.ID)
			if err == nil && n.Link != "" {
				return OpenLinkMsg{Link: n.Link}
			}
			return MarkedMsg{Err: err}
		}

	case key.Matches(msg, m.keys.MarkAllRead):
		store := m.store
		return m, func() tea.Msg {
			return MarkedMsg{Err: store.MarkAllRead(context.Background())}
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the notification view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		style := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return style.Render("No notifications.")
	}
	return m.list.View()
}

// Load returns a tea.Cmd that fetches the snapshot into the store.
func (m Model) Load() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return LoadedMsg{Err: store.Load(context.Background())}
	}
}

// Refresh rebuilds the visible items from the shared store. The root
// model calls this when a live notification lands.
func (m *Model) Refresh() tea.Cmd {
	return m.syncItems()
}

// syncItems mirrors the store's snapshot into the bubbles list.
func (m *Model) syncItems() tea.Cmd {
	notifications := m.store.Notifications()
	items := make([]list.Item, len(notifications))
	for i, n := range notifications {
		items[i] = NotificationItem{Notification: n}
	}
	return m.list.SetItems(items)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
