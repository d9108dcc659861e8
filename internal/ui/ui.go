package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/notify"
	"github.com/desertthunder/nowplaying/internal/playback"
	"github.com/desertthunder/nowplaying/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SongsView ViewState = iota
	HistoryView
	PlaylistsView
	PlaylistTracksView
)

func (v ViewState) String() string {
	switch v {
	case SongsView:
		return "Songs"
	case HistoryView:
		return "History"
	case PlaylistsView, PlaylistTracksView:
		return "Playlists"
	default:
		return "Unknown"
	}
}

var tabs = []ViewState{SongsView, HistoryView, PlaylistsView}

const (
	seekStep            = 0.05
	defaultTickInterval = 500 * time.Millisecond
	defaultPageSize     = 50
)

// Deps are the collaborators the player screen drives.
type Deps struct {
	Library      *tasks.Library
	Player       *playback.Orchestrator
	UserID       string
	PageSize     int
	TickInterval time.Duration
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	lib      *tasks.Library
	player   *playback.Orchestrator
	userID   string
	pageSize int
	interval time.Duration

	view      ViewState
	lists     [4]list.Model
	playlists *tasks.PlaylistSet
	opened    *models.PlaylistWithTracks

	status      playback.Status
	toast       *notify.Toast
	events      <-chan playback.Event
	unsubscribe func()
	toastSignal chan struct{}

	naming    bool
	nameInput textinput.Model

	width  int
	height int
	err    error
	help   help.Model
	keys   keyMap
}

// NewModel creates the player screen. Call [Model.Close] after the program exits.
func NewModel(ctx context.Context, deps Deps) *Model {
	if deps.PageSize <= 0 {
		deps.PageSize = defaultPageSize
	}
	if deps.TickInterval <= 0 {
		deps.TickInterval = defaultTickInterval
	}

	m := &Model{
		ctx:         ctx,
		lib:         deps.Library,
		player:      deps.Player,
		userID:      deps.UserID,
		pageSize:    deps.PageSize,
		interval:    deps.TickInterval,
		view:        SongsView,
		playlists:   tasks.NewPlaylistSet(nil),
		toastSignal: make(chan struct{}, 1),
		nameInput:   textinput.New(),
		help:        help.New(),
		keys:        newKeyMap(),
	}

	m.lists[SongsView] = newList("Songs")
	m.lists[HistoryView] = newList("Recently played")
	m.lists[PlaylistsView] = newList("Your playlists")
	m.lists[PlaylistTracksView] = newList("Playlist")

	m.nameInput.Placeholder = "Playlist name"
	m.nameInput.CharLimit = 100

	m.events, m.unsubscribe = m.player.Subscribe()
	m.status = m.player.Status()
	m.lib.Notifier().OnChange(func(*notify.Toast) {
		select {
		case m.toastSignal <- struct{}{}:
		default:
		}
	})

	return m
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	l.Title = title
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}

// Close cancels the player subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init loads the home screen and starts listening to the player and notifier.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadHome(), m.loadPlaylists(), m.waitForEvent(), m.waitForToast(), m.tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.lists {
			m.lists[i].SetSize(msg.Width-4, max(msg.Height-10, 5))
		}
		m.nameInput.Width = max(msg.Width-20, 10)
		return m, nil

	case tea.KeyMsg:
		if m.naming {
			return m.handleNameKeys(msg)
		}
		if m.activeList().FilterState() == list.Filtering {
			return m.updateList(msg)
		}
		return m.handleKeys(msg)

	case homeLoadedMsg:
		if msg.err != nil {
			if !tasks.Silent(msg.err) {
				m.err = msg.err
			}
			return m, nil
		}
		m.err = nil
		cmds := []tea.Cmd{m.lists[SongsView].SetItems(trackItems(msg.home.Songs))}
		if msg.home.HistoryErr == nil {
			cmds = append(cmds, m.lists[HistoryView].SetItems(historyItems(msg.home.History)))
		}
		return m, tea.Batch(cmds...)

	case playlistsLoadedMsg:
		if msg.err != nil {
			return m, nil
		}
		m.playlists = tasks.NewPlaylistSet(msg.playlists)
		return m, m.lists[PlaylistsView].SetItems(playlistItems(msg.playlists))

	case playlistOpenedMsg:
		if msg.err != nil {
			return m, nil
		}
		m.opened = msg.playlist
		m.lists[PlaylistTracksView].Title = msg.playlist.Name
		m.lists[PlaylistTracksView].ResetSelected()
		m.view = PlaylistTracksView
		return m, m.lists[PlaylistTracksView].SetItems(trackItems(msg.playlist.Tracks))

	case playlistSavedMsg:
		if msg.err != nil || msg.playlist == nil {
			return m, nil
		}
		m.playlists.Upsert(*msg.playlist)
		return m, m.lists[PlaylistsView].SetItems(playlistItems(m.playlists.Items()))

	case playlistDeletedMsg:
		if msg.set != m.playlists {
			// A reload replaced the set while the delete was in flight.
			return m, nil
		}
		return m, m.lists[PlaylistsView].SetItems(playlistItems(m.playlists.Items()))

	case playerEventMsg:
		if msg.closed {
			return m, nil
		}
		m.status = msg.event.Status
		return m, m.waitForEvent()

	case statusMsg:
		m.status = playback.Status(msg)
		return m, nil

	case tickMsg:
		if m.status.Playing {
			return m, tea.Batch(m.fetchStatus(), m.tick())
		}
		return m, m.tick()

	case toastChangedMsg:
		if t, ok := m.lib.Notifier().Current(); ok {
			m.toast = &t
		} else {
			m.toast = nil
		}
		return m, m.waitForToast()
	}

	return m.updateList(msg)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.tab):
		m.switchTab(msg.String() == "shift+tab")
		return m, nil

	case key.Matches(msg, m.keys.back):
		if m.view == PlaylistTracksView {
			m.view = PlaylistsView
		}
		return m, nil

	case key.Matches(msg, m.keys.enter):
		return m, m.selectCurrent()

	case key.Matches(msg, m.keys.toggle):
		return m, m.togglePlayPause()

	case key.Matches(msg, m.keys.next):
		return m, m.step(1)

	case key.Matches(msg, m.keys.prev):
		return m, m.step(-1)

	case key.Matches(msg, m.keys.forward):
		return m, m.seek(seekStep)

	case key.Matches(msg, m.keys.rewind):
		return m, m.seek(-seekStep)

	case key.Matches(msg, m.keys.save):
		if m.status.Length == 0 {
			m.lib.Notifier().Notify("Queue is empty", notify.Error)
			return m, nil
		}
		m.naming = true
		m.nameInput.SetValue(m.status.ContextLabel)
		m.nameInput.CursorEnd()
		return m, m.nameInput.Focus()

	case key.Matches(msg, m.keys.remove):
		if m.view == PlaylistsView {
			return m, m.deleteSelected()
		}
		return m, nil

	case key.Matches(msg, m.keys.refresh):
		return m, m.refresh()
	}

	return m.updateList(msg)
}

func (m *Model) handleNameKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.naming = false
		m.nameInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.naming = false
		m.nameInput.Blur()
		return m, m.saveQueue(m.nameInput.Value())
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m *Model) switchTab(reverse bool) {
	current := m.view
	if current == PlaylistTracksView {
		current = PlaylistsView
	}

	step := 1
	if reverse {
		step = len(tabs) - 1
	}
	for i, v := range tabs {
		if v == current {
			m.view = tabs[(i+step)%len(tabs)]
			return
		}
	}
}

func (m *Model) activeList() *list.Model {
	return &m.lists[m.view]
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.lists[m.view], cmd = m.lists[m.view].Update(msg)
	return m, cmd
}

// contextLabel describes where tracks in the current view come from.
func (m *Model) contextLabel() string {
	if m.view == PlaylistTracksView && m.opened != nil {
		return "Playlist: " + m.opened.Name
	}
	return m.view.String()
}

func (m *Model) selectCurrent() tea.Cmd {
	l := m.activeList()
	selected := l.SelectedItem()
	if selected == nil {
		return nil
	}

	switch item := selected.(type) {
	case playlistItem:
		return m.openPlaylist(item.playlist.ID)
	case trackItem:
		tracks := tracksOf(l.Items())
		if models.CountOf(tracks, item.track.Identity()) > 1 {
			return m.playAt(tracks, l.Index(), m.contextLabel())
		}
		return m.play(item.track, tracks, m.contextLabel())
	}
	return nil
}

func (m *Model) deleteSelected() tea.Cmd {
	l := &m.lists[PlaylistsView]
	item, ok := l.SelectedItem().(playlistItem)
	if !ok {
		return nil
	}
	l.RemoveItem(l.Index())

	id, set := item.playlist.ID, m.playlists
	return func() tea.Msg {
		return playlistDeletedMsg{id: id, set: set, err: m.lib.DeletePlaylist(m.ctx, set, id)}
	}
}

func (m *Model) refresh() tea.Cmd {
	switch m.view {
	case PlaylistsView:
		return m.loadPlaylists()
	case PlaylistTracksView:
		if m.opened != nil {
			return m.openPlaylist(m.opened.ID)
		}
		return nil
	default:
		return m.loadHome()
	}
}

func (m *Model) loadHome() tea.Cmd {
	return func() tea.Msg {
		home, err := m.lib.LoadHome(m.ctx, m.userID, m.pageSize)
		return homeLoadedMsg{home: home, err: err}
	}
}

func (m *Model) loadPlaylists() tea.Cmd {
	if m.userID == "" {
		return nil
	}
	return func() tea.Msg {
		playlists, err := m.lib.LoadUserPlaylists(m.ctx, m.userID)
		return playlistsLoadedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) openPlaylist(id string) tea.Cmd {
	return func() tea.Msg {
		playlist, err := m.lib.LoadPlaylist(m.ctx, id)
		return playlistOpenedMsg{playlist: playlist, err: err}
	}
}

func (m *Model) saveQueue(name string) tea.Cmd {
	return func() tea.Msg {
		draft := tasks.PlaylistDraft{Name: name, OwnerID: m.userID, Tracks: m.player.Queue()}
		playlist, err := m.lib.SavePlaylist(m.ctx, draft)
		return playlistSavedMsg{playlist: playlist, err: err}
	}
}

func (m *Model) play(track models.Track, contextList []models.Track, label string) tea.Cmd {
	return func() tea.Msg {
		m.player.SetPlaybackContextLabel(label)
		m.player.PlayTrack(m.ctx, track, contextList)
		return nil
	}
}

func (m *Model) playAt(contextList []models.Track, i int, label string) tea.Cmd {
	return func() tea.Msg {
		m.player.SetPlaybackContextLabel(label)
		m.player.PlayAt(m.ctx, contextList, i)
		return nil
	}
}

func (m *Model) togglePlayPause() tea.Cmd {
	return func() tea.Msg {
		m.player.TogglePlayPause(m.ctx)
		return nil
	}
}

func (m *Model) step(direction int) tea.Cmd {
	return func() tea.Msg {
		if direction < 0 {
			m.player.Previous(m.ctx)
		} else {
			m.player.Next(m.ctx)
		}
		return nil
	}
}

func (m *Model) seek(delta float64) tea.Cmd {
	if m.status.Loaded == nil {
		return nil
	}
	target := max(0, min(1, m.status.Progress()+delta))
	return func() tea.Msg {
		m.player.SeekTo(target)
		return statusMsg(m.player.Status())
	}
}

func (m *Model) fetchStatus() tea.Cmd {
	return func() tea.Msg {
		return statusMsg(m.player.Status())
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		event, ok := <-events
		return playerEventMsg{event: event, closed: !ok}
	}
}

func (m *Model) waitForToast() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.toastSignal:
			return toastChangedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.err != nil && m.view != PlaylistsView && m.view != PlaylistTracksView {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n" + styles.help.Render("Press r to retry, q to quit"))
	} else {
		b.WriteString(m.activeList().View())
	}

	b.WriteString("\n")
	b.WriteString(styles.bar.Render(m.renderNowPlaying()))
	b.WriteString("\n")
	b.WriteString(m.renderToast())
	b.WriteString("\n")

	if m.naming {
		b.WriteString("Save queue as: " + m.nameInput.View())
	} else {
		b.WriteString(m.help.ShortHelpView(m.contextKeys()))
	}

	return b.String()
}

func (m *Model) contextKeys() []key.Binding {
	switch m.view {
	case PlaylistsView:
		open := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open"))
		return []key.Binding{open, m.keys.remove, m.keys.toggle, m.keys.tab, m.keys.quit}
	case PlaylistTracksView:
		return []key.Binding{m.keys.enter, m.keys.back, m.keys.toggle, m.keys.save, m.keys.quit}
	default:
		return []key.Binding{m.keys.enter, m.keys.toggle, m.keys.next, m.keys.prev, m.keys.save, m.keys.tab, m.keys.quit}
	}
}

func (m *Model) renderTabs() string {
	current := m.view
	if current == PlaylistTracksView {
		current = PlaylistsView
	}

	parts := make([]string, len(tabs))
	for i, v := range tabs {
		if v == current {
			parts[i] = styles.activeTab.Render(v.String())
		} else {
			parts[i] = styles.tab.Render(v.String())
		}
	}
	return strings.Join(parts, " ")
}

func (m *Model) renderNowPlaying() string {
	s := m.status
	if s.Active == nil {
		return styles.help.Render("Nothing playing")
	}

	icon := "⏸"
	if s.Playing {
		icon = "▶"
	}

	line := fmt.Sprintf("%s %s", icon, s.Active.String())
	if s.ContextLabel != "" {
		line += styles.help.Render(" • " + s.ContextLabel)
	}
	if s.Loaded == nil {
		return line + "\n" + styles.warn.Render("Unavailable")
	}

	timing := clock(s.Position)
	if s.Duration > 0 {
		timing = fmt.Sprintf("%s / %s", timing, clock(s.Duration))
	}
	position := fmt.Sprintf("%d/%d", s.Index+1, s.Length)

	return fmt.Sprintf("%s\n%s %s %s", line, progressBar(s.Progress(), 30), timing, styles.help.Render(position))
}

func (m *Model) renderToast() string {
	if m.toast == nil {
		return ""
	}
	return styles.toastStyle(m.toast.Kind).Render(m.toast.Message)
}

// progressBar draws fraction (0..1) as a bar width cells wide.
func progressBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	fraction = max(0, min(1, fraction))
	filled := int(fraction * float64(width-1))
	return strings.Repeat("━", filled) + "●" + strings.Repeat("─", width-1-filled)
}
