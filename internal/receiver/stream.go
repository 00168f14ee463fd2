// ABOUTME: One received SCO stream: HCI packet parsing, decoding and PCM fan-out
// ABOUTME: Feeds decoded audio to the WAV recorder and the shared audio output
package receiver

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Sendspin/sco-go/internal/hci"
	"github.com/Sendspin/sco-go/internal/metrics"
	"github.com/Sendspin/sco-go/internal/protocol"
	"github.com/Sendspin/sco-go/pkg/audio/wavfile"
	"github.com/Sendspin/sco-go/pkg/sco"
)

// StreamInfo is a snapshot of a stream for the TUI and /streams
type StreamInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Codec      string    `json:"codec"`
	SampleRate int       `json:"sample_rate"`
	Handle     uint16    `json:"handle"`
	Started    time.Time `json:"started"`
	Packets    int       `json:"packets"`
	Playing    bool      `json:"playing"`
	Recording  string    `json:"recording,omitempty"`
	Stats      sco.Stats `json:"stats"`
}

// Stream is the receiving side of one SCO connection
type Stream struct {
	id      string
	name    string
	codec   string
	handle  uint16
	started time.Time
	logger  *zap.Logger

	dec        *sco.Decoder
	recorder   *wavfile.Writer
	recordPath string
	player     *player

	mu       sync.Mutex
	packets  int
	stats    sco.Stats
	reported sco.Stats
}

func newStream(id string, hello protocol.StreamHello, codec Codec, cfg Config, p *player, logger *zap.Logger) (*Stream, error) {
	prim, err := codec.NewDecoder()
	if err != nil {
		return nil, fmt.Errorf("failed to create %s frame decoder: %w", hello.Codec, err)
	}

	s := &Stream{
		id:      id,
		name:    hello.Name,
		codec:   hello.Codec,
		handle:  hello.Handle,
		started: time.Now(),
		logger:  logger,
		player:  p,
	}

	if cfg.RecordDir != "" {
		path := filepath.Join(cfg.RecordDir, fmt.Sprintf("%s-%s.wav", hello.Codec, id))
		s.recorder, err = wavfile.Create(path, prim.SampleRate(), 1)
		if err != nil {
			return nil, err
		}
		s.recordPath = path
		logger.Info("recording stream", zap.String("path", path))
	}

	s.dec, err = sco.New(codec.Config, prim, sco.SinkFunc(s.onPCM), sco.WithLogger(logger))
	if err != nil {
		s.closeRecorder()
		return nil, err
	}
	return s, nil
}

// onPCM runs inside Push on the connection goroutine
func (s *Stream) onPCM(samples []int16, numSamples, numChannels, sampleRate int) {
	if s.recorder != nil {
		s.recorder.OnPCM(samples, numSamples, numChannels, sampleRate)
	}
	if s.player != nil {
		s.player.write(s.id, sampleRate, samples[:numSamples*numChannels])
	}
}

// handlePacket decodes one binary websocket message
func (s *Stream) handlePacket(data []byte) error {
	pkt, err := hci.Parse(data)
	if err != nil {
		return err
	}
	metrics.PacketsTotal.WithLabelValues(pkt.Status.String()).Inc()

	if pkt.Handle != s.handle {
		if ce := s.logger.Check(zap.DebugLevel, "packet for other handle"); ce != nil {
			ce.Write(zap.Uint16("handle", pkt.Handle), zap.Uint16("expected", s.handle))
		}
		return nil
	}

	if err := s.dec.Push(pkt.Payload, pkt.Corrupted()); err != nil {
		return err
	}

	stats := s.dec.Stats()
	s.mu.Lock()
	s.packets++
	s.stats = stats
	s.mu.Unlock()

	// Counters are flushed every 50 packets and at the end of the stream
	if s.packets%50 == 0 {
		s.flushMetrics()
	}
	return nil
}

func (s *Stream) flushMetrics() {
	s.mu.Lock()
	delta := s.stats.Sub(s.reported)
	s.reported = s.stats
	s.mu.Unlock()
	metrics.Record(delta)
}

// Info returns a snapshot of the stream
func (s *Stream) Info() StreamInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := StreamInfo{
		ID:         s.id,
		Name:       s.name,
		Codec:      s.codec,
		SampleRate: s.dec.SampleRate(),
		Handle:     s.handle,
		Started:    s.started,
		Packets:    s.packets,
		Stats:      s.stats,
		Recording:  s.recordPath,
	}
	if s.player != nil {
		info.Playing = s.player.owner() == s.id
	}
	return info
}

// finish flushes counters and closes the recording
func (s *Stream) finish() protocol.StreamStats {
	s.flushMetrics()
	if s.player != nil {
		s.player.release(s.id)
	}
	s.closeRecorder()

	info := s.Info()
	s.logger.Info("stream finished",
		zap.Int("packets", info.Packets),
		zap.Duration("duration", time.Since(s.started)),
		zap.Object("stats", info.Stats))

	st := info.Stats
	return protocol.StreamStats{
		StreamID:          s.id,
		Packets:           info.Packets,
		GoodFrames:        int(st.GoodFrames),
		BadFrames:         int(st.BadFrames),
		ZeroFrames:        int(st.ZeroFrames),
		ConcealedFrames:   int(st.ConcealedFrames),
		SilentFrames:      int(st.SilentFrames),
		LostBytes:         int(st.LostBytes),
		Resets:            int(st.Resets),
		SequenceJumps:     int(st.SequenceJumps),
		MaxConsecutiveBad: st.MaxConsecutiveBad,
	}
}

func (s *Stream) closeRecorder() {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Close(); err != nil {
		s.logger.Warn("failed to close recording", zap.Error(err))
	}
	s.recorder = nil
}
