// Package tui is a terminal browser over the release notes board.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joestump/variantdocs/internal/releases"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	dateStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801")).MarginTop(1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#3A4A6B"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	loadingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
	textStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0")).PaddingLeft(4)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).PaddingLeft(4)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

const helpLine = "↑/↓ select · enter toggle · e expand all · c collapse all · q quit"

// toggledMsg reports a finished toggle.
type toggledMsg struct {
	node releases.Node
	err  error
}

// expandedMsg reports a finished expand-all.
type expandedMsg struct {
	err error
}

// Browser is the bubbletea model. Board operations that may fetch run as
// commands so the UI stays responsive while change-logs load.
type Browser struct {
	ctx      context.Context
	board    *releases.Board
	ids      []string // selectable nodes in display order
	cursor   int
	pending  map[string]bool
	viewport viewport.Model
	ready    bool
	status   string
}

// New creates a Browser over board.
func New(ctx context.Context, board *releases.Board) *Browser {
	b := &Browser{
		ctx:     ctx,
		board:   board,
		pending: make(map[string]bool),
		status:  helpLine,
	}
	for _, p := range board.Panels() {
		for _, n := range p.Nodes {
			b.ids = append(b.ids, n.ID)
		}
	}
	return b
}

// Init is called once when the program starts.
func (b *Browser) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		height := max(1, msg.Height-2)
		if !b.ready {
			b.viewport = viewport.New(msg.Width, height)
			b.ready = true
		} else {
			b.viewport.Width = msg.Width
			b.viewport.Height = height
		}
		b.refresh()
		return b, nil

	case toggledMsg:
		delete(b.pending, msg.node.ID)
		switch {
		case msg.err != nil:
			b.status = msg.err.Error()
		case msg.node.Err != nil:
			b.status = fmt.Sprintf("%s: %v", msg.node.ID, msg.node.Err)
		default:
			b.status = helpLine
		}
		b.refresh()
		return b, nil

	case expandedMsg:
		b.pending = make(map[string]bool)
		if msg.err != nil {
			b.status = "some change-logs failed to load"
		} else {
			b.status = helpLine
		}
		b.refresh()
		return b, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return b, tea.Quit
		case "up", "k":
			if b.cursor > 0 {
				b.cursor--
			}
		case "down", "j":
			if b.cursor < len(b.ids)-1 {
				b.cursor++
			}
		case "enter", " ":
			if len(b.ids) == 0 {
				return b, nil
			}
			id := b.ids[b.cursor]
			if b.pending[id] {
				return b, nil
			}
			b.pending[id] = true
			b.refresh()
			return b, b.toggle(id)
		case "e":
			for _, id := range b.ids {
				if n, err := b.board.Node(id); err == nil && n.State == releases.StateCollapsed {
					b.pending[id] = true
				}
			}
			b.status = "loading…"
			b.refresh()
			return b, b.expandAll()
		case "c":
			b.board.CollapseAll()
		default:
			var cmd tea.Cmd
			b.viewport, cmd = b.viewport.Update(msg)
			return b, cmd
		}
		b.refresh()
		return b, nil
	}
	return b, nil
}

func (b *Browser) toggle(id string) tea.Cmd {
	return func() tea.Msg {
		n, err := b.board.Toggle(b.ctx, id)
		if err != nil {
			n.ID = id
		}
		return toggledMsg{node: n, err: err}
	}
}

func (b *Browser) expandAll() tea.Cmd {
	return func() tea.Msg {
		return expandedMsg{err: b.board.ExpandAll(b.ctx)}
	}
}

// refresh re-renders the board into the viewport and keeps the cursor
// line visible.
func (b *Browser) refresh() {
	content, cursorLine := b.render()
	if !b.ready {
		return
	}
	b.viewport.SetContent(content)
	switch {
	case cursorLine < b.viewport.YOffset:
		b.viewport.SetYOffset(cursorLine)
	case cursorLine >= b.viewport.YOffset+b.viewport.Height:
		b.viewport.SetYOffset(cursorLine - b.viewport.Height + 1)
	}
}

// render draws every panel and returns the line index of the cursor.
func (b *Browser) render() (string, int) {
	var (
		lines      []string
		cursorLine int
		index      int
	)
	selected := ""
	if len(b.ids) > 0 {
		selected = b.ids[b.cursor]
	}

	for _, p := range b.board.Panels() {
		lines = append(lines, strings.Split(dateStyle.Render(p.DisplayDate), "\n")...)
		for _, n := range p.Nodes {
			label := fmt.Sprintf("  %s Version %s (%s)", marker(n, b.pending[n.ID]), n.Release.TargetVersion, n.Release.Assembly)
			if n.ID == selected {
				cursorLine = len(lines)
				lines = append(lines, selectedStyle.Render(label))
			} else {
				lines = append(lines, normalStyle.Render(label))
			}
			switch {
			case b.pending[n.ID]:
				lines = append(lines, loadingStyle.Render("    loading…"))
			case n.Err != nil:
				lines = append(lines, errorStyle.Render("couldn't load the change-log: "+n.Err.Error()))
			case n.State.Visible():
				for _, l := range strings.Split(strings.TrimRight(n.Text, "\n"), "\n") {
					lines = append(lines, textStyle.Render(l))
				}
			}
			index++
		}
	}
	if index == 0 {
		lines = append(lines, normalStyle.Render("No release notes are available."))
	}
	return strings.Join(lines, "\n"), cursorLine
}

func marker(n releases.Node, pending bool) string {
	switch {
	case pending || n.State == releases.StateLoading:
		return "…"
	case n.State.Visible():
		return "▾"
	default:
		return "▸"
	}
}

// View renders the program's UI.
func (b *Browser) View() string {
	if !b.ready {
		return "loading release notes…"
	}
	header := titleStyle.Render("Release notes")
	return header + "\n" + b.viewport.View() + "\n" + footerStyle.Render(b.status)
}

// Run starts the browser on the terminal and blocks until the user quits.
func Run(ctx context.Context, board *releases.Board) error {
	p := tea.NewProgram(New(ctx, board), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
