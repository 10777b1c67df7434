package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/comigor/atelier-go/internal/api"
	"github.com/comigor/atelier-go/internal/chat"
	"github.com/comigor/atelier-go/internal/clipboard"
	"github.com/comigor/atelier-go/internal/config"
	"github.com/comigor/atelier-go/internal/logger"
)

const downloadFilename = "generated_image.png"

type focusArea int

const (
	focusSidebar focusArea = iota
	focusChat
)

// RefreshMsg asks the interface to re-read the shared pipeline state. The
// orchestrator fires it from its worker goroutines through program.Send.
type RefreshMsg struct{}

type opDoneMsg struct{}

type spinnerTickMsg struct{}

type noticeExpireMsg struct{ seq int }

type copyDoneMsg struct{ err error }

type downloadDoneMsg struct {
	path string
	err  error
}

type notice struct {
	text    string
	isError bool
}

// Model is the root Bubble Tea model tying the chat pipeline to the screen.
type Model struct {
	cfg       *config.Config
	client    *api.Client
	orch      *chat.Orchestrator
	directory *chat.Directory
	transcript *chat.Transcript

	sidebar *Sidebar
	chat    *Chat
	theme   Theme
	styles  Styles

	focus     focusArea
	width     int
	height    int
	notice    notice
	noticeSeq int
	spinning  bool
}

// New wires the full client pipeline behind a fresh interface.
func New(cfg *config.Config) *Model {
	client := api.NewClient(cfg.API.BaseURL)
	state := chat.NewSessionState()
	transcript := chat.NewTranscript()
	transcript.Reset()
	directory := chat.NewDirectory(client, state, transcript)
	orch := chat.NewOrchestrator(client, state, transcript, directory)

	theme := ThemeFor(cfg.Client.Theme)
	m := &Model{
		cfg:        cfg,
		client:     client,
		orch:       orch,
		directory:  directory,
		transcript: transcript,
		sidebar:    NewSidebar(),
		chat:       NewChat(),
		theme:      theme,
		styles:     NewStyles(theme),
		focus:      focusChat,
	}
	m.chat.SetFocused(true)
	return m
}

// BindProgram registers the running program as the repaint sink. Must be
// called before Run: the orchestrator resolves requests on goroutines and
// only program.Send can wake the event loop from there.
func (m *Model) BindProgram(p *tea.Program) {
	notify := func() { p.Send(RefreshMsg{}) }
	m.orch.SetNotify(notify)
	m.directory.SetNotify(notify)
}

func (m *Model) Init() tea.Cmd {
	return m.dispatch(chat.RefreshDirectoryCommand{})
}

// dispatch runs a pipeline command off the event loop.
func (m *Model) dispatch(cmd chat.Command) tea.Cmd {
	return func() tea.Msg {
		if err := m.orch.Dispatch(context.Background(), cmd); err != nil {
			logger.L.Debug("command finished with error", "error", err)
		}
		return opDoneMsg{}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.syncFromPipeline()

	case RefreshMsg, opDoneMsg:
		m.syncFromPipeline()
		if m.chat.HasLoading() && !m.spinning {
			m.spinning = true
			return m, m.spinnerTick()
		}

	case spinnerTickMsg:
		if m.chat.HasLoading() {
			m.chat.AdvanceSpinner(m.styles)
			return m, m.spinnerTick()
		}
		m.spinning = false

	case noticeExpireMsg:
		if msg.seq == m.noticeSeq && !m.notice.isError {
			m.notice = notice{}
		}

	case copyDoneMsg:
		if msg.err != nil {
			return m, m.flashError(fmt.Sprintf("Copy failed: %v", msg.err))
		}
		return m, m.flashSuccess("Image copied to clipboard")

	case downloadDoneMsg:
		if msg.err != nil {
			return m, m.flashError(fmt.Sprintf("Download failed: %v", msg.err))
		}
		return m, m.flashSuccess("Saved to " + msg.path)

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	return m, m.chat.Update(msg)
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	// An error notice blocks until acknowledged by any key.
	if m.notice.isError {
		m.notice = notice{}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+t":
		return m, m.toggleTheme()
	case "tab":
		m.toggleFocus()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	if m.chat.Browsing() {
		return m.handleBrowseKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m *Model) handleSidebarKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "t":
		return m, m.toggleTheme()
	case "up", "k":
		m.sidebar.MoveUp()
	case "down", "j":
		m.sidebar.MoveDown()
	case "r":
		return m, m.dispatch(chat.RefreshDirectoryCommand{})
	case "enter":
		if session, ok := m.sidebar.SelectedSession(); ok {
			m.toggleFocus()
			return m, m.dispatch(chat.OpenSessionCommand{ID: session.ID})
		}
		m.toggleFocus()
		return m, m.dispatch(chat.NewSessionCommand{})
	}
	return m, nil
}

func (m *Model) handleBrowseKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "t":
		return m, m.toggleTheme()
	case "esc", "i":
		m.chat.ExitBrowse()
		m.syncFromPipeline()
	case "up", "k":
		m.chat.MoveSelection(-1)
		m.syncFromPipeline()
	case "down", "j":
		m.chat.MoveSelection(1)
		m.syncFromPipeline()
	case "l":
		if img, ok := m.chat.SelectedImage(); ok {
			return m, m.dispatch(chat.FeedbackCommand{MessageID: img.ID, Status: api.StatusLike})
		}
	case "d":
		if img, ok := m.chat.SelectedImage(); ok {
			return m, m.dispatch(chat.FeedbackCommand{MessageID: img.ID, Status: api.StatusDislike})
		}
	case "r":
		if img, ok := m.chat.SelectedImage(); ok {
			m.chat.ExitBrowse()
			return m, m.dispatch(chat.RegenerateCommand{MessageID: img.ID})
		}
	case "c":
		if img, ok := m.chat.SelectedImage(); ok {
			return m, m.copyImage(img)
		}
	case "s":
		if img, ok := m.chat.SelectedImage(); ok {
			return m, m.downloadImage(img)
		}
	}
	return m, nil
}

func (m *Model) handleInputKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.chat.EnterBrowse()
		m.syncFromPipeline()
		return m, nil
	case "enter":
		input := m.chat.InputValue()
		if input == "" {
			return m, nil
		}
		m.chat.ResetInput()
		return m, m.dispatch(chat.SubmitCommand{Input: input})
	}
	return m, m.chat.Update(msg)
}

func (m *Model) copyImage(img api.Message) tea.Cmd {
	return func() tea.Msg {
		data, err := m.client.FetchImage(context.Background(), img.ImageURL)
		if err != nil {
			return copyDoneMsg{err: err}
		}
		return copyDoneMsg{err: clipboard.WriteImage(data)}
	}
}

func (m *Model) downloadImage(img api.Message) tea.Cmd {
	dir := m.cfg.Client.DownloadDir
	return func() tea.Msg {
		data, err := m.client.FetchImage(context.Background(), img.ImageURL)
		if err != nil {
			return downloadDoneMsg{err: err}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return downloadDoneMsg{err: err}
		}
		path := filepath.Join(dir, downloadFilename)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return downloadDoneMsg{err: err}
		}
		return downloadDoneMsg{path: path}
	}
}

func (m *Model) toggleTheme() tea.Cmd {
	name := nextTheme(m.cfg.Client.Theme)
	m.theme = ThemeFor(name)
	m.styles = NewStyles(m.theme)
	m.syncFromPipeline()
	return func() tea.Msg {
		if err := m.cfg.SetTheme(name); err != nil {
			logger.L.Warn("failed to persist theme", "error", err)
		}
		return opDoneMsg{}
	}
}

func (m *Model) toggleFocus() {
	if m.focus == focusSidebar {
		m.focus = focusChat
	} else {
		m.focus = focusSidebar
	}
	m.sidebar.SetFocused(m.focus == focusSidebar)
	m.chat.SetFocused(m.focus == focusChat)
}

func (m *Model) spinnerTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m *Model) flashSuccess(text string) tea.Cmd {
	m.noticeSeq++
	m.notice = notice{text: text}
	seq := m.noticeSeq
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return noticeExpireMsg{seq: seq}
	})
}

func (m *Model) flashError(text string) tea.Cmd {
	m.noticeSeq++
	m.notice = notice{text: text, isError: true}
	return nil
}

// syncFromPipeline re-reads the shared transcript and directory snapshots
// into the render components.
func (m *Model) syncFromPipeline() {
	m.sidebar.SetItems(m.directory.Items())
	m.chat.SetEntries(m.transcript.Entries(), m.styles)
}

func (m *Model) layout() {
	sidebarWidth := m.width / 4
	if sidebarWidth < 20 {
		sidebarWidth = 20
	}
	if sidebarWidth > 40 {
		sidebarWidth = 40
	}
	contentHeight := m.height - 2
	m.sidebar.SetSize(sidebarWidth, contentHeight)
	m.chat.SetSize(m.width-sidebarWidth, contentHeight)
}

func (m *Model) footerView() string {
	if m.notice.text != "" {
		style := m.styles.Success
		text := m.notice.text
		if m.notice.isError {
			style = m.styles.ErrorText
			text += "  (press any key)"
		}
		return m.styles.Footer.Render(style.Render(text))
	}

	var hints []string
	switch {
	case m.focus == focusSidebar:
		hints = []string{"↑/↓ select", "enter open", "r refresh", "tab chat", "t theme", "q quit"}
	case m.chat.Browsing():
		hints = []string{"↑/↓ image", "l like", "d dislike", "r regenerate", "c copy", "s save", "esc type"}
	default:
		hints = []string{"enter send", "esc images", "tab sessions", "ctrl+t theme", "ctrl+c quit"}
	}
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = m.styles.FooterKey.Render(h)
	}
	sep := m.styles.Footer.Render(" · ")
	joined := parts[0]
	for _, p := range parts[1:] {
		joined += sep + p
	}
	return m.styles.Footer.Render(joined)
}

func (m *Model) View() tea.View {
	var v tea.View
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion

	if m.width == 0 || m.height == 0 {
		v.SetContent("Loading...")
		return v
	}

	header := m.styles.Title.Width(m.width).Render("Atelier · " + m.theme.Name)
	panels := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.sidebar.View(m.styles),
		m.chat.View(m.styles),
	)
	v.SetContent(lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		panels,
		m.footerView(),
	))
	return v
}
