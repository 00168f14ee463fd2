// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, key handling and rendering helpers
package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sendspin/sco-go/pkg/sco"
)

func TestNewModel(t *testing.T) {
	model := NewModel(nil)

	if model.volume != 100 {
		t.Errorf("expected default volume 100, got %d", model.volume)
	}
	if model.muted {
		t.Error("expected muted to be false initially")
	}
	if model.showDebug {
		t.Error("expected showDebug to be false initially")
	}
	if len(model.streams) != 0 {
		t.Error("expected no streams initially")
	}
}

func TestStatusMsg(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		Name: "desk",
		Addr: ":8928",
		Streams: []StreamRow{
			{ID: "a", Name: "headset", Codec: "msbc", SampleRate: 16000},
		},
	})
	if model.name != "desk" || model.addr != ":8928" {
		t.Errorf("unexpected receiver info %q %q", model.name, model.addr)
	}
	if len(model.streams) != 1 || model.streams[0].Name != "headset" {
		t.Errorf("unexpected streams %+v", model.streams)
	}

	// A status without streams clears the list but keeps the name
	model.applyStatus(StatusMsg{})
	if model.name != "desk" {
		t.Errorf("expected name kept, got %q", model.name)
	}
	if len(model.streams) != 0 {
		t.Errorf("expected streams cleared, got %+v", model.streams)
	}
}

func TestVolumeKeys(t *testing.T) {
	controls := NewControls()
	model := NewModel(controls)

	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyUp})
	model = updated.(Model)
	if model.volume != 100 {
		t.Errorf("expected volume clamped at 100, got %d", model.volume)
	}

	for i := 0; i < 3; i++ {
		updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
		model = updated.(Model)
	}
	if model.volume != 85 {
		t.Errorf("expected volume 85, got %d", model.volume)
	}

	updated, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	model = updated.(Model)
	if !model.muted {
		t.Error("expected muted after 'm'")
	}

	var last VolumeChangeMsg
	n := 0
	for len(controls.Changes) > 0 {
		last = <-controls.Changes
		n++
	}
	if n != 5 || last.Volume != 85 || !last.Muted {
		t.Errorf("unexpected volume notifications n=%d last=%+v", n, last)
	}
}

func TestQuitKey(t *testing.T) {
	controls := NewControls()
	model := NewModel(controls)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Error("expected quit command")
	}
	if !updated.(Model).quitting {
		t.Error("expected quitting state")
	}
	select {
	case <-controls.Quit:
	default:
		t.Error("expected quit signal")
	}
}

func TestViewShowsStreams(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(StatusMsg{
		Name: "desk",
		Streams: []StreamRow{{
			ID:      "stream-1",
			Name:    "car kit",
			Codec:   "cvsd",
			Playing: true,
			Stats:   sco.Stats{GoodFrames: 90, ConcealedFrames: 10, LostBytes: 600},
		}},
	})

	view := model.View()
	for _, want := range []string{"car kit", "cvsd", "good 90", "loss 10.0%"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "lost bytes") {
		t.Error("details should be hidden by default")
	}

	model.showDebug = true
	if !strings.Contains(model.View(), "lost bytes 600") {
		t.Error("expected details when debug is shown")
	}
}

func TestLossRate(t *testing.T) {
	if r := lossRate(sco.Stats{}); r != 0 {
		t.Errorf("expected 0 for empty stats, got %f", r)
	}
	r := lossRate(sco.Stats{GoodFrames: 6, ConcealedFrames: 1, SilentFrames: 1})
	if r != 0.25 {
		t.Errorf("expected 0.25, got %f", r)
	}
}

func TestTruncateFunction(t *testing.T) {
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is a long string", 10, "this is..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.length); got != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.length, got, tt.expected)
		}
	}
}

func TestRenderBar(t *testing.T) {
	if bar := renderBar(50, 100, 10); bar != "█████░░░░░" {
		t.Errorf("unexpected bar %q", bar)
	}
}
