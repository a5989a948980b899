// Package tui is a bubbletea debug monitor for a single cqlcore
// connection: connection state, stream-registry occupancy, and a
// scrolling log of outbound/inbound frames with highlighted CQL text.
// It talks to conn.Connection in-process — there is no RPC boundary to
// a separate daemon.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/mickamy/cqlcore/clipboard"
	"github.com/mickamy/cqlcore/conn"
	"github.com/mickamy/cqlcore/frame"
	"github.com/mickamy/cqlcore/highlight"
)

const logCapacity = 500

// FrameEntry is one line in the scrolling frame log.
type FrameEntry struct {
	at     time.Time
	dir    conn.FrameDirection
	stream int8
	opcode frame.Opcode
	cql    string
	errMsg string
}

// NewObserver returns a conn.FrameObserver that feeds Model's frame log.
// Sends are non-blocking: a full channel drops the frame rather than
// stalling the connection's I/O goroutines (this is a debug aid, not
// part of the wire path).
func NewObserver(ch chan<- FrameEntry) conn.FrameObserver {
	return func(_ *conn.Connection, dir conn.FrameDirection, f *frame.Frame) {
		e := FrameEntry{at: time.Now(), dir: dir, stream: f.Stream, opcode: f.Opcode}
		switch b := f.Body.(type) {
		case *frame.QueryBody:
			e.cql = b.CQL
		case *frame.PrepareBody:
			e.cql = b.CQL
		case *frame.ErrorBody:
			e.errMsg = b.Message
		}
		select {
		case ch <- e:
		default:
		}
	}
}

// Model is the Bubble Tea model for the debug monitor.
type Model struct {
	c  *conn.Connection
	ch <-chan FrameEntry

	log    []FrameEntry
	cursor int
	width  int
	height int

	quitting bool
}

// New creates a Model that watches c, reading frame events from ch (the
// channel backing the observer returned by NewObserver).
func New(c *conn.Connection, ch <-chan FrameEntry) Model {
	return Model{c: c, ch: ch}
}

type frameMsg FrameEntry
type tickMsg time.Time

func waitForFrame(ch <-chan FrameEntry) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return frameMsg(e)
	}
}

func tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts the frame-log pump and the state-refresh ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForFrame(m.ch), tick())
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.log = append(m.log, FrameEntry(msg))
		if len(m.log) > logCapacity {
			m.log = m.log[len(m.log)-logCapacity:]
		}
		m.cursor = len(m.log) - 1
		return m, waitForFrame(m.ch)

	case tickMsg:
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "j", "down":
			if m.cursor < len(m.log)-1 {
				m.cursor++
			}
			return m, nil
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "c":
			return m, m.copySelected
		}
	}
	return m, nil
}

func (m Model) copySelected() tea.Msg {
	if m.cursor < 0 || m.cursor >= len(m.log) {
		return nil
	}
	if cql := m.log[m.cursor].cql; cql != "" {
		_ = clipboard.CopyStatement(context.Background(), cql)
	}
	return nil
}

var (
	stateStyles = map[string]lipgloss.Style{
		"READY":         lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		"DISCONNECTED":  lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		"DISCONNECTING": lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
	defaultStateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle          = lipgloss.NewStyle().Faint(true)
	errStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	borderStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
)

// View renders the TUI.
func (m Model) View() string {
	if m.quitting || m.width == 0 {
		return ""
	}

	header := m.renderHeader()
	logView := borderStyle.Width(max(m.width-2, 20)).Render(m.renderLog())
	footer := dimStyle.Render("q: quit  j/k: navigate  c: copy selected CQL")

	return strings.Join([]string{header, logView, footer}, "\n")
}

func (m Model) renderHeader() string {
	state := m.c.State().String()
	style, ok := stateStyles[state]
	if !ok {
		style = defaultStateStyle
	}
	inUse := m.c.StreamsInUse()
	return fmt.Sprintf(" %s  [%s]  streams %d/127",
		m.c.ID.String()[:8], style.Render(state), inUse)
}

func (m Model) renderLog() string {
	if len(m.log) == 0 {
		return "waiting for frames..."
	}

	start := 0
	visible := max(m.height-6, 3)
	if len(m.log) > visible {
		start = len(m.log) - visible
	}

	var b strings.Builder
	for i := start; i < len(m.log); i++ {
		e := m.log[i]
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		dir := "<-"
		if e.dir == conn.FrameOutbound {
			dir = "->"
		}
		line := fmt.Sprintf("%s%s %s s=%-4d %-10s", marker, e.at.Format("15:04:05.000"), dir, e.stream, e.opcode)
		if e.errMsg != "" {
			line += " " + errStyle.Render(e.errMsg)
		} else if e.cql != "" {
			budget := max(m.width-lipgloss.Width(line)-1, 10)
			// ansi.Cut truncates by display column, not byte offset, so a
			// highlighted statement's escape sequences never get split.
			line += " " + ansi.Cut(highlight.CQL(strings.TrimSpace(e.cql)), 0, budget)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
