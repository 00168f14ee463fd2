// ABOUTME: Bubbletea model for the receiver TUI
// ABOUTME: Shows active SCO streams with frame statistics and playback controls
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Sendspin/sco-go/pkg/sco"
)

// StreamRow is one stream as displayed
type StreamRow struct {
	ID         string
	Name       string
	Codec      string
	SampleRate int
	Packets    int
	Playing    bool
	Recording  string
	Stats      sco.Stats
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Name    string
	Addr    string
	Streams []StreamRow
}

// VolumeChangeMsg carries a volume or mute change from the keyboard
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

type tickMsg time.Time

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))
	streamHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("220"))
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
	faintStyle = lipgloss.NewStyle().Faint(true)
)

// Model represents the TUI state
type Model struct {
	name    string
	addr    string
	streams []StreamRow

	volume int
	muted  bool

	showDebug bool
	quitting  bool
	startTime time.Time

	width  int
	height int

	controls *Controls
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		return m, tickEvery()
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Shutting down receiver...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("SCO Receiver"))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Receiver: "))
	b.WriteString(valueStyle.Render(m.name))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Listening: "))
	b.WriteString(valueStyle.Render(m.addr))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Uptime: "))
	b.WriteString(valueStyle.Render(time.Since(m.startTime).Round(time.Second).String()))
	b.WriteString("\n")

	muteIcon := ""
	if m.muted {
		muteIcon = " (muted)"
	}
	b.WriteString(headerStyle.Render("Volume: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("[%s] %d%%%s", renderBar(m.volume, 100, 10), m.volume, muteIcon)))
	b.WriteString("\n\n")

	b.WriteString(streamHeaderStyle.Render(fmt.Sprintf("Active Streams (%d)", len(m.streams))))
	b.WriteString("\n\n")

	if len(m.streams) == 0 {
		b.WriteString(valueStyle.Render("  No streams connected"))
		b.WriteString("\n")
	}
	for _, s := range m.streams {
		b.WriteString(m.renderStream(s))
	}

	b.WriteString("\n")
	b.WriteString(faintStyle.Render("↑/↓:Volume  m:Mute  d:Details  q:Quit"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderStream(s StreamRow) string {
	var b strings.Builder

	marker := "  "
	if s.Playing {
		marker = "▶ "
	}
	b.WriteString(fmt.Sprintf("%s%s", marker, truncate(s.Name, 32)))
	b.WriteString(valueStyle.Render(fmt.Sprintf(" (%s, %d Hz)", s.Codec, s.SampleRate)))
	b.WriteString("\n")

	st := s.Stats
	line := fmt.Sprintf("    good %d  bad %d  zero %d  concealed %d  silent %d",
		st.GoodFrames, st.BadFrames, st.ZeroFrames, st.ConcealedFrames, st.SilentFrames)
	loss := lossRate(st)
	if loss >= 0.05 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%s  loss %.1f%%", line, loss*100)))
	} else {
		b.WriteString(valueStyle.Render(fmt.Sprintf("%s  loss %.1f%%", line, loss*100)))
	}
	b.WriteString("\n")

	if m.showDebug {
		b.WriteString(faintStyle.Render(fmt.Sprintf("    id %s  packets %d  lost bytes %d  resets %d  seq jumps %d  searches %d  max burst %d",
			s.ID, s.Packets, st.LostBytes, st.Resets, st.SequenceJumps, st.PatternSearches, st.MaxConsecutiveBad)))
		b.WriteString("\n")
		if s.Recording != "" {
			b.WriteString(faintStyle.Render("    recording " + s.Recording))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.controls != nil {
			select {
			case m.controls.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case "up":
		m.volume = min(m.volume+5, 100)
		m.notifyVolume()
	case "down":
		m.volume = max(m.volume-5, 0)
		m.notifyVolume()
	case "m":
		m.muted = !m.muted
		m.notifyVolume()
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) notifyVolume() {
	if m.controls == nil {
		return
	}
	select {
	case m.controls.Changes <- VolumeChangeMsg{Volume: m.volume, Muted: m.muted}:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Name != "" {
		m.name = msg.Name
	}
	if msg.Addr != "" {
		m.addr = msg.Addr
	}
	m.streams = msg.Streams
}

// lossRate is the share of emitted frames that were not decoded
func lossRate(st sco.Stats) float64 {
	emitted := st.EmittedFrames()
	if emitted == 0 {
		return 0
	}
	return float64(st.ConcealedFrames+st.SilentFrames) / float64(emitted)
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
