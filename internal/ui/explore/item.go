package explore

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hashan1998-it/unichat-tui/internal/connection"
	"github.com/hashan1998-it/unichat-tui/internal/model"
	"github.com/hashan1998-it/unichat-tui/internal/theme"
)

// UserItem wraps a search result together with its connection state
// relative to the signed-in user.
type UserItem struct {
	User  model.User
	State connection.State
}

// FilterValue returns the string used for fuzzy filtering.
func (i UserItem) FilterValue() string { return i.User.Username }

// Title returns the username for the list.
func (i UserItem) Title() string { return i.User.Username }

// Description returns a short summary line for the list.
func (i UserItem) Description() string {
	return fmt.Sprintf("%s | %s", i.User.Role, i.User.UniversityID)
}

// UserDelegate implements list.ItemDelegate for rendering search results.
type UserDelegate struct{}

// Height returns the number of lines each item takes.
func (d UserDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d UserDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d UserDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single search result line.
func (d UserDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ui, ok := item.(UserItem)
	if !ok {
		return
	}

	isSelected := index == m.Index()

	role := string(ui.User.Role)
	roleBadge := theme.RoleBadgeStyle(role).Render(role)

	stateLabel := stateLabel(ui.State)
	stateBadge := theme.ConnectionStateStyle(stateLabel).Render(stateLabel)

	uniID := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(ui.User.UniversityID)

	line := fmt.Sprintf(
		"%s %s %s  %s",
		ui.User.Username, roleBadge, uniID, stateBadge,
	)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// stateLabel maps a connection state to the label shown in the list.
func stateLabel(s connection.State) string {
	switch s {
	case connection.StateConnected:
		return "connected"
	case connection.StatePending:
		return "pending"
	case connection.StateReceived:
		return "received"
	default:
		return ""
	}
}
