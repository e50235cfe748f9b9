package feedview

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hashan1998-it/unichat-tui/internal/model"
	"github.com/hashan1998-it/unichat-tui/internal/theme"
)

// PostItem wraps a model.Post so it can be used in a bubbles/list.
type PostItem struct {
	Post model.Post

	// SelfID is the viewing user's id, used to mark posts the user liked.
	SelfID string
}

// FilterValue returns the string used for fuzzy filtering.
func (i PostItem) FilterValue() string { return i.Post.Content }

// Title returns the author line for the list.
func (i PostItem) Title() string { return i.Post.Author.Username }

// Description returns a short summary line for the list.
func (i PostItem) Description() string {
	parts := []string{
		i.Post.PostType,
		fmt.Sprintf("%d likes", len(i.Post.Likes)),
		relativeTime(i.Post.CreatedAt),
	}
	return strings.Join(parts, " | ")
}

// PostDelegate implements list.ItemDelegate for rendering feed entries.
type PostDelegate struct{}

// Height returns the number of lines each item takes.
func (d PostDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d PostDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d PostDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single feed entry: an author line with badges, then a
// content snippet with like and comment counts.
func (d PostDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	pi, ok := item.(PostItem)
	if !ok {
		return
	}

	post := pi.Post
	isSelected := index == m.Index()

	role := string(post.Author.Role)
	roleBadge := theme.RoleBadgeStyle(role).Render(role)
	typeBadge := theme.PostTypeStyle(post.PostType).Render(post.PostType)

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(post.CreatedAt))

	authorLine := fmt.Sprintf(
		"%s %s %s  %s",
		post.Author.Username, roleBadge, typeBadge, timeStr,
	)

	likeMark := "♡"
	if post.LikedBy(pi.SelfID) {
		likeMark = "♥"
	}

	imageMark := ""
	if post.Image != "" {
		imageMark = " [img]"
	}

	counts := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(fmt.Sprintf(
			"%s %d  💬 %d%s",
			likeMark, len(post.Likes), len(post.Comments), imageMark,
		))

	contentLine := fmt.Sprintf(
		"%s  %s",
		snippet(post.Content, m.Width()-20), counts,
	)

	block := lipgloss.JoinVertical(lipgloss.Left, authorLine, contentLine)

	if isSelected {
		block = theme.SelectedItemStyle.Render(block)
	} else {
		block = theme.ListItemStyle.Render(block)
	}

	fmt.Fprint(w, block)
}

// snippet truncates content to a single display line.
func snippet(s string, max int) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if max < 8 {
		max = 8
	}
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max-1]) + "…"
	}
	return s
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
