// ABOUTME: Output that discards audio
// ABOUTME: Counts written samples for headless receivers and tests
package output

import (
	"fmt"
	"sync"
)

// Null accepts audio without playing it
type Null struct {
	mu         sync.Mutex
	open       bool
	sampleRate int
	channels   int
	samples    int64
	volume     int
	muted      bool
}

// NewNull creates a Null output
func NewNull() *Null {
	return &Null{volume: 100}
}

func (n *Null) Open(sampleRate, channels int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.open = true
	n.sampleRate = sampleRate
	n.channels = channels
	return nil
}

func (n *Null) Write(samples []int16) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.open {
		return fmt.Errorf("output not initialized")
	}
	n.samples += int64(len(samples))
	return nil
}

func (n *Null) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.open = false
	return nil
}

// Samples returns how many samples have been written
func (n *Null) Samples() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.samples
}

func (n *Null) SetVolume(volume int) {
	n.mu.Lock()
	n.volume = clampVolume(volume)
	n.mu.Unlock()
}

func (n *Null) SetMuted(muted bool) {
	n.mu.Lock()
	n.muted = muted
	n.mu.Unlock()
}

func (n *Null) Volume() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.volume
}

func (n *Null) Muted() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.muted
}
