package feedview

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hashan1998-it/unichat-tui/internal/feed"
	"github.com/hashan1998-it/unichat-tui/internal/keys"
	"github.com/hashan1998-it/unichat-tui/internal/model"
	"github.com/hashan1998-it/unichat-tui/internal/theme"
)

// API is the subset of the server client the feed view needs.
type API interface {
	Feed(ctx context.Context) ([]model.Post, error)
	LikePost(ctx context.Context, postID string) (*model.Post, error)
	SearchPosts(ctx context.Context, query string) ([]model.Post, error)
}

// SearchResultsMsg carries the posts matching a feed search.
type SearchResultsMsg struct {
	Posts []model.Post
	Err   error
}

// FeedLoadedMsg is sent when the feed snapshot has been fetched.
type FeedLoadedMsg struct {
	Posts []model.Post
	Err   error
}

// LikeResultMsg is sent when a like toggle round trip finishes.
type LikeResultMsg struct {
	Post *model.Post
	Err  error
}

// SelectedPostMsg is sent when the user opens a post's detail view.
type SelectedPostMsg struct {
	PostID string
}

// ComposeRequestedMsg is sent when the user wants to write a new post.
type ComposeRequestedMsg struct{}

// Model is the main feed view component.
type Model struct {
	list        list.Model
	client      API
	posts       *feed.List
	keys        *keys.KeyMap
	selfID      string
	searchMode  bool
	searching   bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new feed view model backed by the shared post list.
func New(client API, posts *feed.List, k *keys.KeyMap, selfID string, width, height int) Model {
	delegate := PostDelegate{}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Feed"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search posts..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		client:      client,
		posts:       posts,
		keys:        k,
		selfID:      selfID,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that fetches the initial feed snapshot.
func (m Model) Init() tea.Cmd {
	return m.LoadFeed()
}

// Update handles messages for the feed view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FeedLoadedMsg:
		if msg.Err != nil {
			return m, nil
		}
		m.posts.Replace(msg.Posts)
		return m, m.syncItems()

	case LikeResultMsg:
		if msg.Err != nil || msg.Post == nil {
			return m, nil
		}
		m.posts.ApplyPostUpdate(*msg.Post)
		return m, m.syncItems()

	case SearchResultsMsg:
		if msg.Err != nil {
			return m, nil
		}
		// Search results replace the visible items only; the shared
		// feed is untouched and restored when the search clears.
		m.searching = true
		items := make([]list.Item, len(msg.Posts))
		for i, p := range msg.Posts {
			items[i] = PostItem{Post: p, SelfID: m.selfID}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleKeys(msg)
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
		client := m.client
		return m, func() tea.Msg {
			posts, err := client.SearchPosts(context.Background(), query)
			return SearchResultsMsg{Posts: posts, Err: err}
		}

	case "esc":
		m.searchMode = false
		m.searching = false
		m.searchInput.Reset()
		return m, m.syncItems()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleKeys processes key input for the feed view.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Back):
		if m.searching {
			m.searching = false
			return m, m.syncItems()
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(PostItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedPostMsg{PostID: item.Post.ID}
		}

	case key.Matches(msg, m.keys.Like):
		item, ok := m.list.SelectedItem().(PostItem)
		if !ok {
			return m, nil
		}
		return m, m.toggleLike(item.Post.ID)

	case key.Matches(msg, m.keys.NewPost):
		return m, func() tea.Msg {
			return ComposeRequestedMsg{}
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, m.LoadFeed()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the feed view.
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

// renderEmptyState shows guidance text when the feed is empty.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	return style.Render(
		"Nothing here yet.\n\n" +
			"Press n to write a post, or 2 to find people to connect with.",
	)
}

// LoadFeed returns a tea.Cmd that fetches the feed from the server.
func (m Model) LoadFeed() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		posts, err := client.Feed(context.Background())
		return FeedLoadedMsg{Posts: posts, Err: err}
	}
}

// toggleLike returns a tea.Cmd that toggles the like on a post.
func (m Model) toggleLike(postID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		post, err := client.LikePost(context.Background(), postID)
		return LikeResultMsg{Post: post, Err: err}
	}
}

// Refresh rebuilds the visible items from the shared post list. The root
// model calls this after a live update lands. It is a no-op while search
// results are displayed; clearing the search restores the live feed.
func (m *Model) Refresh() tea.Cmd {
	if m.searching {
		return nil
	}
	return m.syncItems()
}

// Searching reports whether the search box currently has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// syncItems mirrors the shared post list into the bubbles list.
func (m *Model) syncItems() tea.Cmd {
	posts := m.posts.Posts()
	items := make([]list.Item, len(posts))
	for i, p := range posts {
		items[i] = PostItem{Post: p, SelfID: m.selfID}
	}
	return m.list.SetItems(items)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
