// ABOUTME: Sine tone generator source
// ABOUTME: Produces a mono test tone for simulations without input files
package source

import (
	"fmt"
	"io"
	"math"
)

// DefaultToneFrequency is the frequency of the generated test tone
const DefaultToneFrequency = 266.0

// Tone generates a mono sine wave at half scale
type Tone struct {
	frequency   float64
	sampleRate  int
	sampleIndex uint64
	limit       uint64
}

// NewTone creates a sine source. A non-positive duration never ends.
func NewTone(frequency float64, sampleRate int, seconds float64) *Tone {
	t := &Tone{frequency: frequency, sampleRate: sampleRate}
	if seconds > 0 {
		t.limit = uint64(seconds * float64(sampleRate))
	}
	return t
}

func (s *Tone) Read(samples []int16) (int, error) {
	n := len(samples)
	if s.limit > 0 {
		if s.sampleIndex >= s.limit {
			return 0, io.EOF
		}
		n = int(min(uint64(n), s.limit-s.sampleIndex))
	}

	for i := 0; i < n; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.sampleRate)
		samples[i] = int16(math.Round(math.Sin(2*math.Pi*s.frequency*t) * 32767.0 * 0.5))
	}
	s.sampleIndex += uint64(n)

	return n, nil
}

func (s *Tone) SampleRate() int { return s.sampleRate }
func (s *Tone) Channels() int   { return 1 }
func (s *Tone) Name() string    { return fmt.Sprintf("%.0f Hz tone", s.frequency) }
func (s *Tone) Close() error    { return nil }
