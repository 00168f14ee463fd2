// ABOUTME: Oto-based audio output implementation
// ABOUTME: Handles PCM playback with software volume control using oto library
package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/Sendspin/sco-go/pkg/audio"
)

// Oto output implementation using oto library
type Oto struct {
	logger     *zap.Logger
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
	ready      bool

	mu     sync.Mutex
	volume int
	muted  bool
	buf    []byte
	scaled []int16
}

// NewOto creates a new Oto output
func NewOto(logger *zap.Logger) *Oto {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Oto{
		logger: logger,
		volume: 100,
	}
}

// Open initializes the output device
func (o *Oto) Open(sampleRate, channels int) error {
	// If already initialized with same format, reuse the existing context
	if o.otoCtx != nil && o.sampleRate == sampleRate && o.channels == channels {
		o.logger.Debug("audio output already initialized with same format, reusing context")
		return nil
	}

	// oto allows one context per process
	if o.otoCtx != nil {
		return fmt.Errorf("format change %dHz %dch -> %dHz %dch not supported by oto",
			o.sampleRate, o.channels, sampleRate, channels)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	// Create pipe for continuous streaming
	o.pipeReader, o.pipeWriter = io.Pipe()

	// Create persistent player that reads from the pipe
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()

	o.ready = true

	o.logger.Info("audio output initialized", zap.Int("sample_rate", sampleRate), zap.Int("channels", channels))

	return nil
}

// Write outputs audio samples (blocks until written)
func (o *Oto) Write(samples []int16) error {
	if !o.ready {
		return fmt.Errorf("output not initialized")
	}

	o.mu.Lock()
	o.scaled = applyVolume(o.scaled[:0], samples, o.volume, o.muted)
	if cap(o.buf) < 2*len(samples) {
		o.buf = make([]byte, 2*len(samples))
	}
	output := o.buf[:2*len(samples)]
	audio.PutInt16s(output, o.scaled)
	o.mu.Unlock()

	// Write to pipe (which feeds the persistent player)
	if _, err := o.pipeWriter.Write(output); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}

	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
		o.ready = false
	}
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	volume = clampVolume(volume)
	o.mu.Lock()
	o.volume = volume
	o.mu.Unlock()
	o.logger.Debug("volume set", zap.Int("volume", volume))
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	o.muted = muted
	o.mu.Unlock()
	o.logger.Debug("mute set", zap.Bool("muted", muted))
}

// Volume returns current volume
func (o *Oto) Volume() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

// Muted returns mute state
func (o *Oto) Muted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.muted
}

func clampVolume(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > 100 {
		return 100
	}
	return volume
}

// applyVolume appends samples scaled by volume and mute to dst
func applyVolume(dst, samples []int16, volume int, muted bool) []int16 {
	multiplier := getVolumeMultiplier(volume, muted)
	for _, sample := range samples {
		dst = append(dst, audio.Saturate16(float64(sample)*multiplier))
	}
	return dst
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
