package ui

import (
	"strings"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/comigor/atelier-go/internal/api"
	"github.com/comigor/atelier-go/internal/chat"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const inputHeight = 3

// Chat is the right panel: the transcript viewport above a prompt input.
// Two interaction modes share it: typing (the textarea has focus) and
// browsing (the cursor walks the image messages so they can be acted on).
type Chat struct {
	viewport viewport.Model
	input    textarea.Model

	width   int
	height  int
	focused bool
	browse  bool

	entries      []chat.Entry
	imageIdxs    []int
	selectedIdx  int
	spinnerFrame int
}

func NewChat() *Chat {
	ti := textarea.New()
	ti.Placeholder = "Describe the image you'd like..."
	ti.CharLimit = 0
	ti.SetHeight(inputHeight - 2)
	ti.ShowLineNumbers = false
	ti.Prompt = ""

	vp := viewport.New()
	vp.MouseWheelEnabled = true

	return &Chat{viewport: vp, input: ti}
}

func (c *Chat) SetSize(width, height int) {
	c.width = width
	c.height = height

	innerWidth := width - 2
	if innerWidth < 1 {
		innerWidth = 1
	}
	viewportHeight := height - inputHeight - 2
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	c.viewport.SetWidth(innerWidth)
	c.viewport.SetHeight(viewportHeight)
	c.input.SetWidth(innerWidth - 2)
}

func (c *Chat) SetFocused(focused bool) {
	c.focused = focused
	if focused && !c.browse {
		c.input.Focus()
	} else {
		c.input.Blur()
	}
}

// EnterBrowse switches to image-browsing mode. Returns false when the
// transcript holds no image to act on.
func (c *Chat) EnterBrowse() bool {
	if len(c.imageIdxs) == 0 {
		return false
	}
	c.browse = true
	c.selectedIdx = len(c.imageIdxs) - 1
	c.input.Blur()
	return true
}

func (c *Chat) ExitBrowse() {
	c.browse = false
	if c.focused {
		c.input.Focus()
	}
}

func (c *Chat) Browsing() bool { return c.browse }

func (c *Chat) MoveSelection(delta int) {
	if !c.browse || len(c.imageIdxs) == 0 {
		return
	}
	c.selectedIdx += delta
	if c.selectedIdx < 0 {
		c.selectedIdx = 0
	}
	if c.selectedIdx >= len(c.imageIdxs) {
		c.selectedIdx = len(c.imageIdxs) - 1
	}
}

// SelectedImage returns the image message under the browse cursor.
func (c *Chat) SelectedImage() (api.Message, bool) {
	if !c.browse || len(c.imageIdxs) == 0 {
		return api.Message{}, false
	}
	return c.entries[c.imageIdxs[c.selectedIdx]].Message, true
}

// SetEntries replaces the rendered transcript with a fresh snapshot.
func (c *Chat) SetEntries(entries []chat.Entry, st Styles) {
	c.entries = entries
	c.imageIdxs = c.imageIdxs[:0]
	for i, e := range entries {
		if e.Kind == chat.EntryMessage && e.Message.ImageURL != "" {
			c.imageIdxs = append(c.imageIdxs, i)
		}
	}
	if c.selectedIdx >= len(c.imageIdxs) {
		c.selectedIdx = len(c.imageIdxs) - 1
	}
	if len(c.imageIdxs) == 0 {
		c.browse = false
		if c.focused {
			c.input.Focus()
		}
	}
	c.updateContent(st)
	c.viewport.GotoBottom()
}

// HasLoading reports whether a placeholder is still pending, which keeps the
// spinner ticking.
func (c *Chat) HasLoading() bool {
	for _, e := range c.entries {
		if e.Kind == chat.EntryLoading {
			return true
		}
	}
	return false
}

func (c *Chat) AdvanceSpinner(st Styles) {
	c.spinnerFrame = (c.spinnerFrame + 1) % len(spinnerFrames)
	c.updateContent(st)
}

// InputValue returns the trimmed prompt currently typed.
func (c *Chat) InputValue() string {
	return strings.TrimSpace(c.input.Value())
}

func (c *Chat) ResetInput() {
	c.input.Reset()
}

// Update forwards messages to whichever inner component has focus.
func (c *Chat) Update(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if c.focused && !c.browse {
		c.input, cmd = c.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	c.viewport, cmd = c.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

func (c *Chat) updateContent(st Styles) {
	innerWidth := c.viewport.Width()
	if innerWidth < 1 {
		innerWidth = 1
	}

	var blocks []string
	for i, e := range c.entries {
		switch e.Kind {
		case chat.EntryLoading:
			blocks = append(blocks, st.Muted.Render(spinnerFrames[c.spinnerFrame]+" Generating image..."))
		case chat.EntryError:
			blocks = append(blocks, st.ErrorText.Width(innerWidth).Render("⚠ "+e.Text))
		case chat.EntryMessage:
			blocks = append(blocks, c.renderMessage(i, st, innerWidth))
		}
	}
	c.viewport.SetContent(strings.Join(blocks, "\n\n"))
}

func (c *Chat) renderMessage(idx int, st Styles, width int) string {
	m := c.entries[idx].Message

	label := st.BotLabel.Render("H&C")
	if m.Sender == chat.SenderUser {
		label = st.UserLabel.Render("You")
	}

	body := lipgloss.NewStyle().Width(width).Render(m.Text)
	if m.ImageURL == "" {
		return label + "\n" + body
	}

	card := st.ImageCard
	if c.browse && c.imageIdxs[c.selectedIdx] == idx {
		card = st.ImageCardSelected
	}

	var lines []string
	lines = append(lines, "🖼  "+m.ImageURL)
	switch m.Status {
	case api.StatusLike:
		lines = append(lines, st.Success.Render("👍 liked"))
	case api.StatusDislike:
		lines = append(lines, st.ErrorText.Render("👎 disliked"))
	}
	rendered := card.Width(min(width-2, 60)).Render(strings.Join(lines, "\n"))

	if m.Text != "" {
		return label + "\n" + body + "\n" + rendered
	}
	return label + "\n" + rendered
}

func (c *Chat) View(st Styles) string {
	innerWidth := c.width - 2
	if innerWidth < 1 {
		innerWidth = 1
	}

	panel := st.Panel
	inputPanel := st.Panel
	if c.focused {
		if c.browse {
			panel = st.PanelFocused
		} else {
			inputPanel = st.PanelFocused
		}
	}

	transcript := panel.
		Width(innerWidth).
		Render(c.viewport.View())
	input := inputPanel.
		Width(innerWidth).
		Render(c.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, transcript, input)
}
