// ABOUTME: Tests for the SCO stream decoder
// ABOUTME: Covers resynchronization, concealment insertion, resets and chunking invariance
package sco_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/Sendspin/sco-go/internal/scotest"
	"github.com/Sendspin/sco-go/pkg/sco"
)

func newMSBC(t *testing.T) (*sco.Decoder, *scotest.Codec, *scotest.Recorder) {
	t.Helper()
	codec := scotest.NewCodec()
	rec := &scotest.Recorder{}
	dec, err := sco.New(sco.MSBCConfig(), codec, rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return dec, codec, rec
}

func push(t *testing.T, dec *sco.Decoder, data []byte, corrupted bool) {
	t.Helper()
	if err := dec.Push(data, corrupted); err != nil {
		t.Fatalf("Push: %v", err)
	}
}

func correlation(a, b []int16) float64 {
	var num, a2, b2 float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		num += x * y
		a2 += x * x
		b2 += y * y
	}
	return num / math.Sqrt(a2*b2)
}

func meanAbs(s []int16) float64 {
	sum := 0.0
	for _, v := range s {
		sum += math.Abs(float64(v))
	}
	return sum / float64(len(s))
}

func equalFrames(t *testing.T, got, want []int16, label string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: expected %d samples, got %d", label, len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s: sample %d expected %d, got %d", label, i, want[i], got[i])
		}
	}
}

func TestNewValidation(t *testing.T) {
	codec := scotest.NewCodec()
	rec := &scotest.Recorder{}

	if _, err := sco.New(sco.MSBCConfig(), nil, rec); !errors.Is(err, sco.ErrNilPrimitive) {
		t.Errorf("expected ErrNilPrimitive, got %v", err)
	}
	if _, err := sco.New(sco.MSBCConfig(), codec, nil); !errors.Is(err, sco.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for nil sink, got %v", err)
	}
	if _, err := sco.New(sco.CVSDConfig(), codec, rec); !errors.Is(err, sco.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for frame length mismatch, got %v", err)
	}
	bad := sco.MSBCConfig()
	bad.Template = 0
	if _, err := sco.New(bad, codec, rec); !errors.Is(err, sco.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestCleanStream(t *testing.T) {
	dec, codec, rec := newMSBC(t)
	push(t, dec, scotest.Stream(20), false)

	if len(rec.Frames) != 20 {
		t.Fatalf("expected 20 frames, got %d", len(rec.Frames))
	}
	for i, f := range rec.Frames {
		equalFrames(t, f, scotest.Expected(byte(i)), "frame")
	}

	st := dec.Stats()
	if st.GoodFrames != 20 || st.BadFrames != 0 || st.ZeroFrames != 0 || st.ConcealedFrames != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
	if st.LostBytes != 0 || st.SequenceJumps != 0 {
		t.Errorf("unexpected sync loss %+v", st)
	}
	if codec.Calls != 20 || codec.ZeroSignalCalls != 0 {
		t.Errorf("expected 20 decodes, got %d (+%d zir)", codec.Calls, codec.ZeroSignalCalls)
	}
	if dec.NextSequence() != 0 {
		t.Errorf("expected next sequence 0, got %d", dec.NextSequence())
	}
	if dec.LastOutcome() != sco.OutcomeDecoded || dec.State() != sco.CandidateReadyToDecode {
		t.Errorf("unexpected final outcome %v state %v", dec.LastOutcome(), dec.State())
	}
}

func TestZeroFrameSkipsPrimitive(t *testing.T) {
	dec, codec, rec := newMSBC(t)

	var stream []byte
	for i := 0; i < 10; i++ {
		if i == 4 {
			stream = append(stream, scotest.ZeroBody(i)...)
			continue
		}
		stream = append(stream, scotest.Frame(i, byte(i))...)
	}
	push(t, dec, stream, false)

	st := dec.Stats()
	if st.ZeroFrames != 1 || st.BadFrames != 0 {
		t.Errorf("expected one zero frame, got %+v", st)
	}
	if codec.Calls != 9 {
		t.Errorf("expected 9 primitive decodes, got %d", codec.Calls)
	}
	if st.ConcealedFrames != 1 || st.GoodFrames != 9 {
		t.Errorf("expected 9 good and 1 concealed frame, got %+v", st)
	}
	if len(rec.Frames) != 10 {
		t.Fatalf("expected 10 frames, got %d", len(rec.Frames))
	}
	if corr := correlation(rec.Frames[4], scotest.Expected(4)); corr <= 0.95 {
		t.Errorf("concealed frame correlation %f", corr)
	}
	if st.SequenceJumps != 0 {
		t.Errorf("concealment should keep the sequence aligned, got %d jumps", st.SequenceJumps)
	}
}

func TestFlaggedFrameIsConcealed(t *testing.T) {
	dec, _, rec := newMSBC(t)

	for i := 0; i < 10; i++ {
		push(t, dec, scotest.Frame(i, byte(i)), i == 5)
	}

	if len(rec.Frames) != 10 {
		t.Fatalf("expected 10 frames, got %d", len(rec.Frames))
	}
	st := dec.Stats()
	if st.BadFrames != 1 || st.ConcealedFrames != 1 || st.GoodFrames != 9 {
		t.Errorf("unexpected stats %+v", st)
	}

	concealed := rec.Frames[5]
	expected := scotest.Expected(5)
	if corr := correlation(concealed, expected); corr <= 0.95 {
		t.Errorf("concealment correlation %f, want > 0.95", corr)
	}
	ratio := meanAbs(concealed) / meanAbs(expected)
	if ratio < 0.7 || ratio > 1.25 {
		t.Errorf("concealment amplitude ratio %f outside clamp", ratio)
	}

	// real audio resumes right after the splice
	if corr := correlation(rec.Frames[6], scotest.Expected(6)); corr <= 0.99 {
		t.Errorf("recovery correlation %f", corr)
	}
	equalFrames(t, rec.Frames[7], scotest.Expected(7), "frame 7")
}

func TestBurstSearchesOnce(t *testing.T) {
	dec, _, rec := newMSBC(t)

	var positions []int64
	rec.OnFrame = func(int) {
		if dec.Concealer().ConsecutiveBad() > 0 {
			positions = append(positions, dec.Concealer().MatchPosition())
		}
	}

	for i := 0; i < 12; i++ {
		push(t, dec, scotest.Frame(i, byte(i)), i >= 5 && i <= 8)
	}

	if len(positions) != 4 {
		t.Fatalf("expected 4 concealed frames, got %d", len(positions))
	}
	for k := 1; k < len(positions); k++ {
		if d := positions[k] - positions[k-1]; d != scotest.FrameSamples {
			t.Errorf("frame %d: match position advanced by %d, want %d", k+1, d, scotest.FrameSamples)
		}
	}

	st := dec.Stats()
	if st.PatternSearches != 1 {
		t.Errorf("expected one pattern search, got %d", st.PatternSearches)
	}
	if st.MaxConsecutiveBad != 4 || st.BadFrames != 4 || st.ConcealedFrames != 4 {
		t.Errorf("unexpected burst stats %+v", st)
	}
	if len(rec.Frames) != 12 {
		t.Errorf("expected 12 frames, got %d", len(rec.Frames))
	}
}

func TestGarbageResync(t *testing.T) {
	dec, _, rec := newMSBC(t)

	// includes a first byte whose second byte fails the parity check
	garbage := []byte{0xAD, 0x01, 0x18, 0xAD, 0x01, 0x77, 0x13}
	var stream []byte
	stream = append(stream, scotest.Stream(3)...)
	stream = append(stream, garbage...)
	stream = append(stream, scotest.Frame(3, 3)...)
	stream = append(stream, scotest.Frame(4, 4)...)
	push(t, dec, stream, false)

	if len(rec.Frames) != 5 {
		t.Fatalf("expected 5 frames, got %d", len(rec.Frames))
	}
	equalFrames(t, rec.Frames[3], scotest.Expected(3), "frame after garbage")

	st := dec.Stats()
	if st.LostBytes != uint64(len(garbage)) {
		t.Errorf("expected %d lost bytes, got %d", len(garbage), st.LostBytes)
	}
	if st.ConcealedFrames != 0 {
		t.Errorf("less than a frame of garbage must not be concealed, got %d", st.ConcealedFrames)
	}
}

func TestLostBytesRoundDown(t *testing.T) {
	dec, _, rec := newMSBC(t)

	noise := bytes.Repeat([]byte{0x33}, 150)
	var stream []byte
	stream = append(stream, scotest.Stream(5)...)
	stream = append(stream, noise...)
	stream = append(stream, scotest.Frame(7, 7)...)
	push(t, dec, stream, false)

	st := dec.Stats()
	if st.ConcealedFrames != 2 {
		t.Errorf("expected 150 lost bytes to conceal 2 frames, got %d", st.ConcealedFrames)
	}
	if st.LostBytes != 150 {
		t.Errorf("expected 150 lost bytes, got %d", st.LostBytes)
	}
	if len(rec.Frames) != 8 {
		t.Errorf("expected 8 frames, got %d", len(rec.Frames))
	}
	if st.SequenceJumps != 0 {
		t.Errorf("expected sequence to follow concealment, got %d jumps", st.SequenceJumps)
	}
}

func TestNoConcealmentBeforeFirstGoodFrame(t *testing.T) {
	dec, _, rec := newMSBC(t)

	// flagged line noise and a zero frame arrive before any real audio
	noise := append(bytes.Repeat([]byte{0x42}, 200), scotest.ZeroBody(0)...)
	push(t, dec, noise, true)
	push(t, dec, scotest.Stream(3), false)

	st := dec.Stats()
	if st.ConcealedFrames != 0 || st.ZeroFrames != 0 {
		t.Errorf("expected no concealment without history, got %+v", st)
	}
	if st.GoodFrames != 3 || len(rec.Frames) != 3 {
		t.Errorf("expected 3 good frames, got %d (%d emitted)", st.GoodFrames, len(rec.Frames))
	}
}

func TestSequenceJump(t *testing.T) {
	dec, _, _ := newMSBC(t)

	var stream []byte
	stream = append(stream, scotest.Stream(3)...)
	stream = append(stream, scotest.Frame(5, 5)...)
	push(t, dec, stream, false)

	if st := dec.Stats(); st.SequenceJumps != 1 {
		t.Errorf("expected 1 sequence jump, got %d", st.SequenceJumps)
	}
	if dec.NextSequence() != 2 {
		t.Errorf("expected next sequence 2, got %d", dec.NextSequence())
	}
}

func TestResetPrecedesNextSuccess(t *testing.T) {
	dec, codec, rec := newMSBC(t)

	push(t, dec, scotest.Stream(3), false)
	codec.FailNext = 1
	var rest []byte
	for i := 3; i < 8; i++ {
		rest = append(rest, scotest.Frame(i, byte(i))...)
	}
	push(t, dec, rest, false)

	fault := -1
	for i, ev := range codec.Events {
		if ev == "fault" {
			fault = i
			break
		}
	}
	if fault < 0 {
		t.Fatal("fault not injected")
	}
	sawReset := false
	for _, ev := range codec.Events[fault+1:] {
		if ev == "reset" {
			sawReset = true
		}
		if ev == "decode" {
			if !sawReset {
				t.Fatal("decode succeeded before the decoder was reset")
			}
			break
		}
	}

	st := dec.Stats()
	if st.Resets != 1 || codec.Resets != 1 {
		t.Errorf("expected one reset, got stats %d codec %d", st.Resets, codec.Resets)
	}
	if st.GoodFrames != 7 {
		t.Errorf("expected 7 good frames, got %d", st.GoodFrames)
	}
	if len(rec.Frames) != 8 {
		t.Errorf("expected 8 frames including one concealed, got %d", len(rec.Frames))
	}
}

func TestResetFailureSurfaces(t *testing.T) {
	dec, codec, _ := newMSBC(t)
	boom := errors.New("codec gone")

	push(t, dec, scotest.Stream(2), false)
	codec.FailNext = 1
	codec.ResetErr = boom

	err := dec.Push(scotest.Frame(2, 2), false)
	if !errors.Is(err, sco.ErrPrimitiveReset) {
		t.Fatalf("expected ErrPrimitiveReset, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
	if dec.LastOutcome() != sco.OutcomePrimitiveFaulted {
		t.Errorf("expected faulted outcome, got %v", dec.LastOutcome())
	}
}

func impairedStream() []byte {
	var s []byte
	s = append(s, 0x11, 0x01, 0x08) // stray bytes before the first header
	s = append(s, scotest.Stream(6)...)
	s = append(s, scotest.ZeroBody(6)...)
	s = append(s, bytes.Repeat([]byte{0x5e}, 75)...)
	s = append(s, scotest.Frame(8, 8)[:31]...)
	for i := 9; i < 16; i++ {
		s = append(s, scotest.Frame(i, byte(i))...)
	}
	return s
}

func TestByteAtATimeMatchesWholeStream(t *testing.T) {
	stream := impairedStream()

	whole, _, wholeRec := newMSBC(t)
	push(t, whole, stream, false)

	single, _, singleRec := newMSBC(t)
	for i := range stream {
		push(t, single, stream[i:i+1], false)
	}

	if len(wholeRec.Frames) != len(singleRec.Frames) {
		t.Fatalf("frame count differs: %d vs %d", len(wholeRec.Frames), len(singleRec.Frames))
	}
	equalFrames(t, singleRec.Samples(), wholeRec.Samples(), "byte-at-a-time")
	if whole.Stats() != single.Stats() {
		t.Errorf("stats differ: %+v vs %+v", whole.Stats(), single.Stats())
	}
	if whole.Stats().ConcealedFrames == 0 {
		t.Error("impaired stream should exercise concealment")
	}
}

func TestDeterministic(t *testing.T) {
	stream := impairedStream()

	a, _, recA := newMSBC(t)
	b, _, recB := newMSBC(t)
	push(t, a, stream, false)
	push(t, b, stream, false)

	equalFrames(t, recB.Samples(), recA.Samples(), "second instance")
	if a.Stats() != b.Stats() {
		t.Errorf("stats differ: %+v vs %+v", a.Stats(), b.Stats())
	}
}

func TestDecoderReset(t *testing.T) {
	dec, codec, rec := newMSBC(t)
	stream := impairedStream()
	push(t, dec, stream, false)
	first := rec.Samples()

	if err := dec.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if dec.Stats() != (sco.Stats{}) {
		t.Errorf("stats not cleared: %+v", dec.Stats())
	}
	if codec.Resets != 1 {
		t.Errorf("expected decoder reset, got %d", codec.Resets)
	}

	rec.Frames = nil
	push(t, dec, stream, false)
	equalFrames(t, rec.Samples(), first, "after reset")
}
