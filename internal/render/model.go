package render

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/leapstack-labs/flowline/internal/timeline"
)

// Controller receives the user's interactions. timeline.Session implements
// it.
type Controller interface {
	Select(stageID string)
	Scroll()
	Detach()
}

// FrameMsg delivers a committed frame to the model.
type FrameMsg struct {
	Frame timeline.Frame
}

type framesClosedMsg struct{}

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Clear key.Binding
	Help  key.Binding
	Quit  key.Binding
}

var keys = keyMap{
	Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "previous stage")),
	Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "next stage")),
	Left:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "scroll back")),
	Right: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "scroll forward")),
	Clear: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear selection")),
	Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Clear},
		{k.Left, k.Right},
		{k.Help, k.Quit},
	}
}

// Model is the interactive terminal timeline.
type Model struct {
	ctrl     Controller
	frames   <-chan timeline.Frame
	frame    timeline.Frame
	styles   Styles
	opts     TextOptions
	pan      float64
	help     help.Model
	showHelp bool
}

// NewModel creates a model that renders frames received on frames and
// forwards interactions to ctrl.
func NewModel(ctrl Controller, frames <-chan timeline.Frame, styles Styles, opts TextOptions) Model {
	if opts.Columns <= 0 || opts.CellWidth <= 0 {
		opts = DefaultTextOptions()
	}
	return Model{
		ctrl:   ctrl,
		frames: frames,
		styles: styles,
		opts:   opts,
		help:   help.New(),
	}
}

// Frame returns the frame currently on screen.
func (m Model) Frame() timeline.Frame {
	return m.frame
}

// Pan returns the manual horizontal offset in pixels.
func (m Model) Pan() float64 {
	return m.pan
}

func (m Model) Init() tea.Cmd {
	return m.waitForFrame()
}

func (m Model) waitForFrame() tea.Cmd {
	if m.frames == nil {
		return nil
	}
	frames := m.frames
	return func() tea.Msg {
		f, ok := <-frames
		if !ok {
			return framesClosedMsg{}
		}
		return FrameMsg{Frame: f}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FrameMsg:
		if msg.Frame.Seq >= m.frame.Seq {
			m.frame = msg.Frame
		}
		return m, m.waitForFrame()

	case framesClosedMsg:
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		if cols := msg.Width - m.opts.LabelWidth - 1; cols > 10 {
			m.opts.Columns = cols
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.ctrl.Detach()
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if id := m.neighbour(-1); id != "" {
			m.ctrl.Select(id)
		}

	case key.Matches(msg, keys.Down):
		if id := m.neighbour(1); id != "" {
			m.ctrl.Select(id)
		}

	case key.Matches(msg, keys.Clear):
		if m.frame.State.SelectedStageID != "" {
			m.ctrl.Select("")
		}

	case key.Matches(msg, keys.Left):
		m.pan -= m.step()
		m.ctrl.Scroll()

	case key.Matches(msg, keys.Right):
		m.pan += m.step()
		m.ctrl.Scroll()

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	}
	return m, nil
}

// step pans by a quarter of the visible drawing area.
func (m Model) step() float64 {
	return float64(m.opts.Columns) * m.opts.CellWidth / 4
}

// neighbour returns the stage dir rows away from the selection, wrapping
// around. With nothing selected it starts from the first or last row.
func (m Model) neighbour(dir int) string {
	boxes := m.frame.Layout.Boxes
	if len(boxes) == 0 {
		return ""
	}
	current := -1
	for i, b := range boxes {
		if b.StageID == m.frame.State.SelectedStageID {
			current = i
			break
		}
	}
	if current < 0 {
		if dir > 0 {
			return boxes[0].StageID
		}
		return boxes[len(boxes)-1].StageID
	}
	next := (current + dir + len(boxes)) % len(boxes)
	return boxes[next].StageID
}

func (m Model) View() string {
	var b strings.Builder
	opts := m.opts
	opts.Pan = m.pan
	b.WriteString(Text(m.frame, m.styles, opts))
	if box, ok := m.frame.Box(m.frame.State.SelectedStageID); ok {
		b.WriteString(m.styles.Muted.Render(box.Tooltip))
		b.WriteByte('\n')
	}
	b.WriteString(m.help.View(keys))
	return b.String()
}
