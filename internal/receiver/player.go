// ABOUTME: Shares one local audio output between streams
// ABOUTME: The first stream to deliver audio owns playback until it ends
package receiver

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Sendspin/sco-go/pkg/audio/output"
)

var errPlayerClosed = errors.New("player closed")

type player struct {
	out    output.Output
	logger *zap.Logger

	mu         sync.Mutex
	current    string
	sampleRate int
	opened     bool
	openErr    error

	// writeMu orders device writes against close
	writeMu sync.Mutex
	closed  bool
}

func newPlayer(out output.Output, logger *zap.Logger) *player {
	return &player{out: out, logger: logger}
}

// write plays samples if stream id owns, or can claim, the output
func (p *player) write(id string, sampleRate int, samples []int16) {
	p.mu.Lock()
	if p.openErr != nil {
		p.mu.Unlock()
		return
	}
	if p.current == "" {
		if !p.opened {
			if err := p.out.Open(sampleRate, 1); err != nil {
				p.openErr = err
				p.mu.Unlock()
				p.logger.Error("failed to open audio output, playback disabled", zap.Error(err))
				return
			}
			p.opened = true
			p.sampleRate = sampleRate
		}
		if sampleRate != p.sampleRate {
			p.mu.Unlock()
			return
		}
		p.current = id
		p.logger.Info("playing stream", zap.String("stream_id", id), zap.Int("sample_rate", sampleRate))
	}
	owner := p.current == id
	p.mu.Unlock()

	if !owner {
		return
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if p.closed {
		return
	}
	if err := p.out.Write(samples); err != nil {
		p.logger.Warn("audio output write failed", zap.Error(err))
	}
}

func (p *player) owner() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *player) release(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == id {
		p.current = ""
	}
}

// SetVolume forwards to outputs with software volume
func (p *player) SetVolume(volume int) {
	if vc, ok := p.out.(output.VolumeControl); ok {
		vc.SetVolume(volume)
	}
}

// SetMuted forwards to outputs with software volume
func (p *player) SetMuted(muted bool) {
	if vc, ok := p.out.(output.VolumeControl); ok {
		vc.SetMuted(muted)
	}
}

func (p *player) close() error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	p.closed = true

	p.mu.Lock()
	defer p.mu.Unlock()
	p.openErr = errPlayerClosed
	if !p.opened {
		return nil
	}
	p.opened = false
	return p.out.Close()
}
