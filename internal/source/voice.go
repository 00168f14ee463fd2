// ABOUTME: Converts any source to mono at a SCO voice rate
// ABOUTME: Downmixes channels and resamples with pkg/audio/resample
package source

import (
	"github.com/Sendspin/sco-go/pkg/audio/resample"
)

// Voice wraps a source and yields mono samples at the target rate
type Voice struct {
	src       Source
	rate      int
	resampler *resample.Resampler
	in        []int16
	mono      []int16
	out       []int16
	pending   []int16
}

// NewVoice converts src to mono at rate
func NewVoice(src Source, rate int) *Voice {
	v := &Voice{src: src, rate: rate}
	if src.SampleRate() != rate {
		v.resampler = resample.New(src.SampleRate(), rate, 1)
	}
	return v
}

func (v *Voice) Read(samples []int16) (int, error) {
	for len(v.pending) < len(samples) {
		if err := v.fill(len(samples)); err != nil {
			if len(v.pending) == 0 {
				return 0, err
			}
			break
		}
	}
	n := copy(samples, v.pending)
	v.pending = v.pending[n:]
	return n, nil
}

func (v *Voice) fill(want int) error {
	channels := v.src.Channels()
	frames := want
	if v.resampler != nil {
		frames = v.resampler.InputSamplesNeeded(want)
	}
	if cap(v.in) < frames*channels {
		v.in = make([]int16, frames*channels)
	}
	n, err := v.src.Read(v.in[:frames*channels])
	if n == 0 {
		return err
	}

	mono := downmix(v.mono[:0], v.in[:n-n%channels], channels)
	v.mono = mono
	if v.resampler != nil {
		need := v.resampler.OutputSamplesNeeded(len(mono))
		if cap(v.out) < need {
			v.out = make([]int16, need)
		}
		m := v.resampler.Resample(mono, v.out[:need])
		mono = v.out[:m]
	}
	v.pending = append(v.pending, mono...)
	return nil
}

func downmix(dst, in []int16, channels int) []int16 {
	if channels == 1 {
		return append(dst, in...)
	}
	for i := 0; i+channels <= len(in); i += channels {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += int(in[i+ch])
		}
		dst = append(dst, int16(sum/channels))
	}
	return dst
}

func (v *Voice) SampleRate() int { return v.rate }
func (v *Voice) Channels() int   { return 1 }
func (v *Voice) Name() string    { return v.src.Name() }
func (v *Voice) Close() error    { return v.src.Close() }
