// ABOUTME: Tests for fixed-size framing with pass-through PCM frames
// ABOUTME: Covers silence before warm-up, sticky corruption flags, pauses and resets
package sco_test

import (
	"errors"
	"testing"

	"github.com/Sendspin/sco-go/internal/scotest"
	"github.com/Sendspin/sco-go/pkg/audio"
	"github.com/Sendspin/sco-go/pkg/sco"
)

const cvsdSamples = 60

// scripted wraps a PCMDecoder and overrides the status of chosen calls.
type scripted struct {
	*sco.PCMDecoder
	failAt   map[int]sco.Status // 1-based call number
	calls    int
	resets   int
	resetErr error
}

func newScripted(failAt map[int]sco.Status) *scripted {
	return &scripted{PCMDecoder: sco.NewPCMDecoder(8000, cvsdSamples), failAt: failAt}
}

func (s *scripted) Decode(frame []byte, pcm []int16) sco.Result {
	s.calls++
	if st, ok := s.failAt[s.calls]; ok {
		return sco.Result{Status: st}
	}
	return s.PCMDecoder.Decode(frame, pcm)
}

func (s *scripted) Reset() error {
	s.resets++
	return s.resetErr
}

func pcmFrame(index int) []byte {
	b := make([]byte, 2*cvsdSamples)
	audio.PutInt16s(b, rampSamples(index))
	return b
}

func rampSamples(index int) []int16 {
	s := make([]int16, cvsdSamples)
	for i := range s {
		s[i] = scotest.Ramp(index*cvsdSamples + i)
	}
	return s
}

func constFrame(v int16) []byte {
	s := make([]int16, cvsdSamples)
	for i := range s {
		s[i] = v
	}
	b := make([]byte, 2*cvsdSamples)
	audio.PutInt16s(b, s)
	return b
}

func newCVSD(t *testing.T, cfg sco.Config, prim sco.FrameDecoder) (*sco.Decoder, *scotest.Recorder) {
	t.Helper()
	rec := &scotest.Recorder{}
	dec, err := sco.New(cfg, prim, rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return dec, rec
}

func TestPCMDecoder(t *testing.T) {
	p := sco.NewPCMDecoder(8000, cvsdSamples)
	if p.Channels() != 1 || p.SampleRate() != 8000 || p.SamplesPerFrame() != cvsdSamples {
		t.Fatal("unexpected decoder parameters")
	}

	pcm := make([]int16, cvsdSamples)
	res := p.Decode(pcmFrame(3), pcm)
	if res.Status != sco.StatusSuccess || res.Consumed != 120 || res.Samples != cvsdSamples {
		t.Fatalf("unexpected result %+v", res)
	}
	equalFrames(t, pcm, rampSamples(3), "pcm")

	if res := p.Decode(make([]byte, 10), pcm); res.Status != sco.StatusInsufficientBody {
		t.Errorf("expected insufficient body, got %v", res.Status)
	}
}

func TestFixedCleanStream(t *testing.T) {
	dec, rec := newCVSD(t, sco.CVSDConfig(), sco.NewPCMDecoder(8000, cvsdSamples))

	var stream []byte
	var want []int16
	for i := 0; i < 20; i++ {
		stream = append(stream, pcmFrame(i)...)
		want = append(want, rampSamples(i)...)
	}
	for len(stream) > 0 {
		n := min(7, len(stream))
		push(t, dec, stream[:n], false)
		stream = stream[n:]
	}

	equalFrames(t, rec.Samples(), want, "clean")
	st := dec.Stats()
	if st.GoodFrames != 20 || st.BadFrames != 0 || st.ZeroFrames != 0 || st.EmittedFrames() != 20 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestFixedSilenceBeforeWarm(t *testing.T) {
	dec, rec := newCVSD(t, sco.CVSDConfig(), sco.NewPCMDecoder(8000, cvsdSamples))

	push(t, dec, pcmFrame(0), false)
	push(t, dec, pcmFrame(1), false)
	push(t, dec, pcmFrame(2), true)

	if len(rec.Frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(rec.Frames))
	}
	for i, v := range rec.Frames[2] {
		if v != 0 {
			t.Fatalf("sample %d: expected silence, got %d", i, v)
		}
	}
	st := dec.Stats()
	if st.SilentFrames != 1 || st.ConcealedFrames != 0 || st.BadFrames != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestFixedConcealAfterWarm(t *testing.T) {
	dec, rec := newCVSD(t, sco.CVSDConfig(), sco.NewPCMDecoder(8000, cvsdSamples))

	for i := 0; i < 12; i++ {
		push(t, dec, pcmFrame(i), i == 10)
	}

	st := dec.Stats()
	if st.ConcealedFrames != 1 || st.SilentFrames != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if corr := correlation(rec.Frames[10], rampSamples(10)); corr <= 0.95 {
		t.Errorf("concealment correlation %f", corr)
	}
	if lag := dec.Concealer().BestLag(); lag != 59 {
		t.Errorf("expected best lag 59, got %d", lag)
	}
}

func TestFixedStickyCorruption(t *testing.T) {
	prim := newScripted(nil)
	dec, rec := newCVSD(t, sco.CVSDConfig(), prim)

	for i := 0; i < 8; i++ {
		push(t, dec, pcmFrame(i), false)
	}
	frame := pcmFrame(8)
	push(t, dec, frame[:40], true)
	push(t, dec, frame[40:], false)
	push(t, dec, pcmFrame(9), false)

	if prim.calls != 9 {
		t.Errorf("flagged frame must not reach the decoder, got %d calls", prim.calls)
	}
	st := dec.Stats()
	if st.BadFrames != 1 || st.ConcealedFrames != 1 || st.GoodFrames != 9 {
		t.Errorf("unexpected stats %+v", st)
	}
	if len(rec.Frames) != 10 {
		t.Errorf("expected 10 frames, got %d", len(rec.Frames))
	}
}

func TestFixedZeroRunSkipsPrimitive(t *testing.T) {
	prim := newScripted(nil)
	dec, rec := newCVSD(t, sco.CVSDConfig(), prim)

	// a zero run inside otherwise valid audio is link fill too
	partial := pcmFrame(2)
	clear(partial[10:40])

	push(t, dec, pcmFrame(0), false)
	push(t, dec, make([]byte, 2*cvsdSamples), false)
	push(t, dec, partial, false)
	push(t, dec, pcmFrame(3), false)

	if prim.calls != 2 {
		t.Errorf("expected 2 decoder calls, got %d", prim.calls)
	}
	if st := dec.Stats(); st.ZeroFrames != 2 || st.BadFrames != 0 || st.GoodFrames != 2 {
		t.Errorf("unexpected stats %+v", st)
	}
	if len(rec.Frames) != 4 {
		t.Errorf("expected 4 frames, got %d", len(rec.Frames))
	}
}

func TestFixedFlatFrames(t *testing.T) {
	dec, _ := newCVSD(t, sco.CVSDConfig(), sco.NewPCMDecoder(8000, cvsdSamples))

	push(t, dec, pcmFrame(0), false)
	push(t, dec, constFrame(1000), false)
	push(t, dec, constFrame(0), false)
	push(t, dec, pcmFrame(3), false)

	st := dec.Stats()
	if st.BadFrames != 1 || st.ZeroFrames != 1 || st.GoodFrames != 2 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestFixedInsufficientDataPauses(t *testing.T) {
	prim := newScripted(map[int]sco.Status{
		1: sco.StatusInsufficientBody,
		2: sco.StatusInsufficientBody,
	})
	dec, rec := newCVSD(t, sco.CVSDConfig(), prim)

	push(t, dec, pcmFrame(0), false)
	if len(rec.Frames) != 0 {
		t.Fatalf("expected decoding to pause, got %d frames", len(rec.Frames))
	}
	if dec.LastOutcome() != sco.OutcomeInsufficientData {
		t.Errorf("expected insufficient data, got %v", dec.LastOutcome())
	}

	push(t, dec, pcmFrame(1), false)
	if len(rec.Frames) != 1 {
		t.Fatalf("expected the paused candidate to be replaced, got %d frames", len(rec.Frames))
	}
	push(t, dec, pcmFrame(2), false)

	st := dec.Stats()
	if st.BadFrames != 2 || st.SilentFrames != 2 || st.GoodFrames != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
	equalFrames(t, rec.Frames[2], rampSamples(2), "after pause")
}

func TestFixedFaultResets(t *testing.T) {
	prim := newScripted(map[int]sco.Status{3: sco.StatusInvalidParameters})
	dec, rec := newCVSD(t, sco.CVSDConfig(), prim)

	for i := 0; i < 5; i++ {
		push(t, dec, pcmFrame(i), false)
	}

	if prim.resets != 1 || dec.Stats().Resets != 1 {
		t.Errorf("expected one reset, got %d", prim.resets)
	}
	if len(rec.Frames) != 4 {
		t.Errorf("faulted frame must not emit audio, got %d frames", len(rec.Frames))
	}

	prim.failAt = map[int]sco.Status{prim.calls + 1: sco.StatusInvalidParameters}
	prim.resetErr = errors.New("gone")
	if err := dec.Push(pcmFrame(5), false); !errors.Is(err, sco.ErrPrimitiveReset) {
		t.Errorf("expected ErrPrimitiveReset, got %v", err)
	}
}
