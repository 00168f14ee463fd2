// ABOUTME: Synthetic mSBC-shaped codec for exercising the SCO decoder in tests
// ABOUTME: Builds H2 packets carrying a frame counter and decodes them to a periodic ramp
package scotest

import (
	"bytes"
	"errors"

	"github.com/Sendspin/sco-go/pkg/sco"
)

const (
	FrameSamples = 120
	SampleRate   = 16000

	fillByte    = 0x55
	checksumKey = 0x5A
)

// Ramp is the test signal: a sawtooth with a period of 64 samples.
func Ramp(pos int) int16 {
	return int16((pos%64 - 32) * 500)
}

// Expected returns the PCM a clean decode of the frame with counter yields.
func Expected(counter byte) []int16 {
	pcm := make([]int16, FrameSamples)
	fill(pcm, counter)
	return pcm
}

func fill(pcm []int16, counter byte) {
	base := int(counter) * FrameSamples
	for i := 0; i < FrameSamples; i++ {
		pcm[i] = Ramp(base + i)
	}
}

// Frame builds one 60-byte packet: H2 header, syncword, counter, checksum,
// fill and the padding byte.
func Frame(seq int, counter byte) []byte {
	f := make([]byte, sco.H2FrameSize)
	h := sco.H2Header(seq)
	f[0], f[1] = h[0], h[1]
	f[2] = 0xAD
	f[3] = counter
	f[4] = counter ^ checksumKey
	for i := 5; i < sco.H2FrameSize-1; i++ {
		f[i] = fillByte
	}
	return f
}

// Stream concatenates n frames numbered from 0.
func Stream(n int) []byte {
	var b []byte
	for i := 0; i < n; i++ {
		b = append(b, Frame(i, byte(i))...)
	}
	return b
}

// ZeroBody returns frame i with everything after the syncword zeroed, as
// a controller delivers when the air interface lost the payload.
func ZeroBody(i int) []byte {
	f := Frame(i, byte(i))
	clear(f[3:])
	return f
}

// Codec decodes frames built by Frame and records every call.
type Codec struct {
	FailNext int   // number of upcoming decodes that report invalid parameters
	ResetErr error // returned by Reset when set

	Calls           int // decodes of real frames
	ZeroSignalCalls int // decodes of the zero-signal frame
	Resets          int
	Events          []string
}

func NewCodec() *Codec {
	return &Codec{}
}

var errNoFrame = errors.New("scotest: not a frame")

func (c *Codec) Decode(frame []byte, pcm []int16) sco.Result {
	if len(frame) < 3 {
		return sco.Result{Status: sco.StatusInsufficientHeader}
	}

	zero := sco.ZeroSignalFrame()
	if len(frame) >= len(zero) && bytes.Equal(frame[:len(zero)], zero) {
		c.ZeroSignalCalls++
		c.Events = append(c.Events, "zir")
		clear(pcm[:FrameSamples])
		return sco.Result{Status: sco.StatusSuccess, Consumed: len(zero), Samples: FrameSamples}
	}

	c.Calls++
	if c.FailNext > 0 {
		c.FailNext--
		c.Events = append(c.Events, "fault")
		return sco.Result{Status: sco.StatusInvalidParameters}
	}
	if frame[0] != 0xAD {
		c.Events = append(c.Events, "nosync")
		return sco.Result{Status: sco.StatusNoSyncword}
	}
	if len(frame) < sco.MSBCFrameSize {
		return sco.Result{Status: sco.StatusInsufficientBody}
	}
	if err := check(frame[:sco.MSBCFrameSize]); err != nil {
		c.Events = append(c.Events, "checksum")
		return sco.Result{Status: sco.StatusChecksumMismatch, Consumed: sco.MSBCFrameSize}
	}

	c.Events = append(c.Events, "decode")
	fill(pcm, frame[1])
	return sco.Result{Status: sco.StatusSuccess, Consumed: sco.MSBCFrameSize, Samples: FrameSamples}
}

func check(frame []byte) error {
	if frame[2] != frame[1]^checksumKey {
		return errNoFrame
	}
	for _, b := range frame[3:] {
		if b != fillByte {
			return errNoFrame
		}
	}
	return nil
}

func (c *Codec) Reset() error {
	c.Resets++
	c.Events = append(c.Events, "reset")
	return c.ResetErr
}

func (c *Codec) SamplesPerFrame() int { return FrameSamples }
func (c *Codec) Channels() int        { return 1 }
func (c *Codec) SampleRate() int      { return SampleRate }

// Recorder is a sco.Sink collecting every emitted frame.
type Recorder struct {
	Frames [][]int16
	OnFrame func(i int)
}

func (r *Recorder) OnPCM(samples []int16, numSamples, numChannels, sampleRate int) {
	f := make([]int16, numSamples*numChannels)
	copy(f, samples)
	r.Frames = append(r.Frames, f)
	if r.OnFrame != nil {
		r.OnFrame(len(r.Frames) - 1)
	}
}

// Samples concatenates all recorded frames.
func (r *Recorder) Samples() []int16 {
	var out []int16
	for _, f := range r.Frames {
		out = append(out, f...)
	}
	return out
}
