// ABOUTME: Per-stream SCO decoder driving frame sync, decode and concealment
// ABOUTME: Push consumes transport bytes and emits one PCM frame per frame interval
package sco

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Sendspin/sco-go/pkg/plc"
)

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger for resynchronization and decode events.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Decoder is the state of one SCO stream.
type Decoder struct {
	cfg    Config
	prim   FrameDecoder
	sink   Sink
	logger *zap.Logger

	acc       *Accumulator
	plc       *plc.Concealer
	pcm       []int16
	out       []int16
	zir       []int16
	zeroFrame []byte

	firstGood bool
	lost      int  // bytes discarded since the last good frame, not yet concealed
	seq       int  // expected next H2 sequence number
	corrupted bool // sticky transport flag for the current fixed-size candidate
	paused    bool // fixed-size candidate waiting on more input
	state     CandidateState
	last      Outcome
	stats     Stats
}

// New creates a Decoder for one stream. Every buffer is allocated here.
func New(cfg Config, prim FrameDecoder, sink Sink, opts ...Option) (*Decoder, error) {
	if prim == nil {
		return nil, ErrNilPrimitive
	}
	if sink == nil {
		return nil, fmt.Errorf("%w: nil sink", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ch := prim.Channels(); ch != 1 {
		return nil, fmt.Errorf("%w: %d channel decoder, only mono is supported", ErrInvalidConfig, ch)
	}
	if spf := prim.SamplesPerFrame(); spf != cfg.FrameSamples {
		return nil, fmt.Errorf("%w: decoder produces %d samples per frame, config expects %d",
			ErrInvalidConfig, spf, cfg.FrameSamples)
	}

	conc, err := plc.New(cfg.PLC())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	d := &Decoder{
		cfg:       cfg,
		prim:      prim,
		sink:      sink,
		logger:    zap.NewNop(),
		acc:       NewAccumulator(cfg.FrameBytes),
		plc:       conc,
		pcm:       make([]int16, cfg.FrameSamples),
		out:       make([]int16, cfg.FrameSamples),
		zir:       make([]int16, cfg.FrameSamples),
		zeroFrame: ZeroSignalFrame(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Push feeds bytes received from the transport. corrupted carries the
// link's quality indicator for this chunk. Frames completed by data are
// delivered to the sink before Push returns. The only error is a failed
// reinitialization of the frame decoder.
func (d *Decoder) Push(data []byte, corrupted bool) error {
	if d.cfg.Format == FormatHeaderSynchronized {
		return d.pushH2(data, corrupted)
	}
	return d.pushFixed(data, corrupted)
}

// Reset returns the stream to its initial state without reallocating and
// reinitializes the frame decoder.
func (d *Decoder) Reset() error {
	d.acc.Reset()
	d.plc.Reset()
	d.firstGood = false
	d.lost = 0
	d.seq = 0
	d.corrupted = false
	d.paused = false
	d.state = CandidateUnsynchronized
	d.last = OutcomeDecoded
	d.stats = Stats{}
	if err := d.prim.Reset(); err != nil {
		return fmt.Errorf("%w: %w", ErrPrimitiveReset, err)
	}
	return nil
}

// Stats returns the counters accumulated since creation or the last Reset.
func (d *Decoder) Stats() Stats {
	s := d.stats
	ps := d.plc.Stats()
	s.PatternSearches = ps.Searches
	s.MaxConsecutiveBad = ps.MaxConsecutiveBad
	return s
}

// Config returns the stream configuration.
func (d *Decoder) Config() Config { return d.cfg }

// SampleRate returns the rate of emitted PCM.
func (d *Decoder) SampleRate() int { return d.prim.SampleRate() }

// State returns the classification of the most recent candidate.
func (d *Decoder) State() CandidateState { return d.state }

// LastOutcome returns the outcome of the most recent decode attempt.
func (d *Decoder) LastOutcome() Outcome { return d.last }

// NextSequence returns the H2 sequence number expected on the next frame.
func (d *Decoder) NextSequence() int { return d.seq }

// Concealer exposes the stream's concealment state for diagnostics.
func (d *Decoder) Concealer() *plc.Concealer { return d.plc }

func (d *Decoder) pushH2(data []byte, corrupted bool) error {
	for len(data) > 0 {
		d.insertMissingFrames()

		n := min(len(data), d.acc.Free())
		d.acc.Append(data[:n])
		data = data[n:]
		if !d.acc.Full() {
			break
		}
		if err := d.processH2(corrupted); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) processH2(corrupted bool) error {
	buf := d.acc.Bytes()

	pos, seq, ok := FindHeader(buf)
	if !ok {
		d.state = CandidateUnsynchronized
		// keep two bytes, they may start a header split across chunks
		d.discard(len(buf) - h2HeaderBytes)
		return nil
	}
	d.state = CandidateSyncFound
	if pos > 0 {
		d.discard(pos)
		return nil
	}

	if d.firstGood && seq != d.seq {
		d.stats.SequenceJumps++
		if ce := d.logger.Check(zap.DebugLevel, "h2 sequence jump"); ce != nil {
			ce.Write(zap.Int("expected", d.seq), zap.Int("found", seq))
		}
	}
	d.seq = seq

	// Before the first good frame there is no history to conceal from, so
	// the frame decoder gets to judge every candidate.
	if d.firstGood {
		zero := hasZeroRun(buf, d.cfg.ZeroRunLength)
		if zero || corrupted {
			if zero {
				d.stats.ZeroFrames++
			} else {
				d.stats.BadFrames++
			}
			d.last = OutcomeChecksumMismatch
			if ce := d.logger.Check(zap.DebugLevel, "rejected frame"); ce != nil {
				ce.Write(zap.Int("seq", seq), zap.Bool("zero_run", zero), zap.Bool("flagged", corrupted))
			}
			// drop the header and syncword so the scan moves past this frame
			d.discard(h2HeaderBytes + 1)
			return nil
		}
	}

	d.state = CandidateReadyToDecode
	res := d.prim.Decode(buf[h2HeaderBytes:], d.pcm)
	outcome := d.classify(res)
	d.last = outcome

	switch outcome {
	case OutcomeDecoded:
		d.firstGood = true
		d.acc.Reset() // padding byte
		d.lost = 0
		d.seq = (seq + 1) & 3
		d.emitGood()
		return nil
	case OutcomePrimitiveFaulted:
		d.discard(d.consumedH2(res))
		return d.resetPrimitive()
	case OutcomeNoHeader, OutcomeChecksumMismatch:
		d.stats.BadFrames++
	}
	if ce := d.logger.Check(zap.DebugLevel, "frame decode failed"); ce != nil {
		ce.Write(zap.Stringer("status", res.Status), zap.Int("consumed", res.Consumed), zap.Int("seq", seq))
	}
	d.discard(d.consumedH2(res))
	return nil
}

func (d *Decoder) consumedH2(res Result) int {
	if res.Consumed > 0 {
		return res.Consumed + h2HeaderBytes
	}
	return 1
}

// discard drops n buffered bytes and books them as lost once the stream
// has produced real audio.
func (d *Decoder) discard(n int) {
	if n <= 0 {
		return
	}
	d.acc.Drop(n)
	d.stats.LostBytes += uint64(n)
	if d.firstGood {
		d.lost += n
	}
}

// insertMissingFrames turns every whole frame's worth of lost bytes into
// one concealed frame. A partial frame's worth carries over until the next
// good frame clears it.
func (d *Decoder) insertMissingFrames() {
	for d.firstGood && d.lost >= d.cfg.FrameBytes {
		d.lost -= d.cfg.FrameBytes

		zir := d.zir
		res := d.prim.Decode(d.zeroFrame, d.zir)
		if res.Status != StatusSuccess || res.Samples != d.cfg.FrameSamples {
			if ce := d.logger.Check(zap.DebugLevel, "zero-signal frame decode failed"); ce != nil {
				ce.Write(zap.Stringer("status", res.Status))
			}
			zir = nil
		}

		d.plc.BadFrame(zir, d.out)
		d.stats.ConcealedFrames++
		d.seq = (d.seq + 1) & 3
		d.emit()
	}
}

func (d *Decoder) pushFixed(data []byte, corrupted bool) error {
	if len(data) == 0 {
		return nil
	}
	if d.paused {
		// more bytes arrived but the candidate is already full
		d.paused = false
		d.stats.BadFrames++
		d.replaceFixed()
	}

	for len(data) > 0 {
		n := min(len(data), d.acc.Free())
		d.acc.Append(data[:n])
		data = data[n:]
		if corrupted {
			d.corrupted = true
		}
		if !d.acc.Full() {
			break
		}
		if err := d.processFixed(len(data) > 0); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) processFixed(pending bool) error {
	buf := d.acc.Bytes()
	d.state = CandidateReadyToDecode

	zero := hasZeroRun(buf, d.cfg.ZeroRunLength)
	if d.corrupted || zero {
		if zero {
			d.stats.ZeroFrames++
		} else {
			d.stats.BadFrames++
		}
		d.last = OutcomeChecksumMismatch
		d.replaceFixed()
		return nil
	}

	res := d.prim.Decode(buf, d.pcm)
	outcome := d.classify(res)
	d.last = outcome

	switch outcome {
	case OutcomeDecoded:
		if d.cfg.FlatFrameCheck {
			if flat, silent := flatFrame(d.pcm[:d.cfg.FrameSamples]); flat {
				if silent {
					d.stats.ZeroFrames++
				} else {
					d.stats.BadFrames++
				}
				d.last = OutcomeChecksumMismatch
				d.replaceFixed()
				return nil
			}
		}
		d.endCandidate()
		d.firstGood = true
		d.emitGood()
	case OutcomeInsufficientData:
		if !pending {
			d.paused = true
			return nil
		}
		d.stats.BadFrames++
		d.replaceFixed()
	case OutcomePrimitiveFaulted:
		d.endCandidate()
		return d.resetPrimitive()
	default:
		if ce := d.logger.Check(zap.DebugLevel, "frame decode failed"); ce != nil {
			ce.Write(zap.Stringer("status", res.Status))
		}
		d.stats.BadFrames++
		d.replaceFixed()
	}
	return nil
}

func (d *Decoder) endCandidate() {
	d.acc.Reset()
	d.corrupted = false
}

// replaceFixed discards the current candidate and emits a replacement:
// concealed audio once the history holds enough real audio, silence before.
func (d *Decoder) replaceFixed() {
	d.endCandidate()
	if d.plc.Warm() {
		d.plc.BadFrame(nil, d.out)
		d.stats.ConcealedFrames++
	} else {
		clear(d.out)
		d.stats.SilentFrames++
	}
	d.emit()
}

func (d *Decoder) classify(res Result) Outcome {
	outcome := res.Outcome()
	if outcome == OutcomeDecoded && res.Samples != d.cfg.FrameSamples {
		if ce := d.logger.Check(zap.DebugLevel, "unexpected frame length"); ce != nil {
			ce.Write(zap.Int("samples", res.Samples), zap.Int("expected", d.cfg.FrameSamples))
		}
		return OutcomeChecksumMismatch
	}
	return outcome
}

func (d *Decoder) resetPrimitive() error {
	d.stats.Resets++
	d.logger.Info("frame decoder reported invalid parameters, resetting")
	if err := d.prim.Reset(); err != nil {
		d.logger.Error("frame decoder reset failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPrimitiveReset, err)
	}
	return nil
}

func (d *Decoder) emitGood() {
	d.plc.GoodFrame(d.pcm[:d.cfg.FrameSamples], d.out)
	d.stats.GoodFrames++
	d.emit()
}

func (d *Decoder) emit() {
	n := d.cfg.FrameSamples
	d.sink.OnPCM(d.out[:n], n, 1, d.prim.SampleRate())
}

// flatFrame reports whether half the frame is one repeated value, and
// whether more than half of it is zero.
func flatFrame(pcm []int16) (flat, silent bool) {
	longest, run, zeros := 1, 1, 0
	for i, v := range pcm {
		if v == 0 {
			zeros++
		}
		if i == 0 {
			continue
		}
		if v == pcm[i-1] {
			run++
			longest = max(longest, run)
		} else {
			run = 1
		}
	}
	return longest >= len(pcm)/2, zeros > len(pcm)/2
}
