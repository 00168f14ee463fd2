// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the receiver
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Controls carries keyboard actions out of the TUI
type Controls struct {
	Changes chan VolumeChangeMsg
	Quit    chan struct{}
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Changes: make(chan VolumeChangeMsg, 10),
		Quit:    make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(controls *Controls) Model {
	return Model{
		volume:    100,
		startTime: time.Now(),
		controls:  controls,
	}
}

// TUI runs the receiver status display
type TUI struct {
	program  *tea.Program
	updates  chan StatusMsg
	controls *Controls
}

// New creates the TUI; Start runs it
func New(name, addr string, controls *Controls) *TUI {
	m := NewModel(controls)
	m.name = name
	m.addr = addr
	return &TUI{
		program:  tea.NewProgram(m, tea.WithAltScreen()),
		updates:  make(chan StatusMsg, 10),
		controls: controls,
	}
}

// Start runs the TUI until it quits
func (t *TUI) Start() error {
	go func() {
		for status := range t.updates {
			t.program.Send(status)
		}
	}()

	_, err := t.program.Run()
	return err
}

// Update sends a status update to the TUI
func (t *TUI) Update(status StatusMsg) {
	select {
	case t.updates <- status:
	default:
		// Don't block if channel is full
	}
}

// Stop stops the TUI
func (t *TUI) Stop() {
	t.program.Quit()
}
