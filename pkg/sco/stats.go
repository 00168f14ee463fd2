// ABOUTME: Per-stream decode statistics
// ABOUTME: Counters for good, bad, zero and concealed frames plus sync loss
package sco

import "go.uber.org/zap/zapcore"

// Stats are diagnostic counters. None of them indicate a failure of Push.
type Stats struct {
	GoodFrames      uint64 // frames decoded by the frame decoder
	BadFrames       uint64 // candidates flagged by the transport or failing to decode
	ZeroFrames      uint64 // candidates rejected by the zero-run check
	ConcealedFrames uint64 // frames synthesized from history
	SilentFrames    uint64 // replacements emitted as silence before history was usable
	LostBytes       uint64 // bytes discarded while resynchronizing
	Resets          uint64 // frame decoder reinitializations
	SequenceJumps   uint64 // H2 sequence numbers that did not follow the previous frame

	PatternSearches   uint64
	MaxConsecutiveBad int
}

// EmittedFrames is the number of frames delivered to the sink.
func (s Stats) EmittedFrames() uint64 {
	return s.GoodFrames + s.ConcealedFrames + s.SilentFrames
}

// Sub returns the counter increase from prev to s. MaxConsecutiveBad is
// carried over unchanged.
func (s Stats) Sub(prev Stats) Stats {
	return Stats{
		GoodFrames:        s.GoodFrames - prev.GoodFrames,
		BadFrames:         s.BadFrames - prev.BadFrames,
		ZeroFrames:        s.ZeroFrames - prev.ZeroFrames,
		ConcealedFrames:   s.ConcealedFrames - prev.ConcealedFrames,
		SilentFrames:      s.SilentFrames - prev.SilentFrames,
		LostBytes:         s.LostBytes - prev.LostBytes,
		Resets:            s.Resets - prev.Resets,
		SequenceJumps:     s.SequenceJumps - prev.SequenceJumps,
		PatternSearches:   s.PatternSearches - prev.PatternSearches,
		MaxConsecutiveBad: s.MaxConsecutiveBad,
	}
}

// MarshalLogObject lets Stats be logged with zap.Object.
func (s Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint64("good", s.GoodFrames)
	enc.AddUint64("bad", s.BadFrames)
	enc.AddUint64("zero", s.ZeroFrames)
	enc.AddUint64("concealed", s.ConcealedFrames)
	enc.AddUint64("silent", s.SilentFrames)
	enc.AddUint64("lost_bytes", s.LostBytes)
	enc.AddUint64("resets", s.Resets)
	enc.AddUint64("sequence_jumps", s.SequenceJumps)
	enc.AddUint64("searches", s.PatternSearches)
	enc.AddInt("max_consecutive_bad", s.MaxConsecutiveBad)
	return nil
}
