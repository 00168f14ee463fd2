// ABOUTME: Packet loss concealment by pattern matching on recent history
// ABOUTME: Synthesizes replacement frames with amplitude match and raised-cosine overlap-add
package plc

import (
	"fmt"
	"math"

	"github.com/Sendspin/sco-go/pkg/audio"
)

// Config sizes the concealment engine. All lengths are in samples.
type Config struct {
	FrameSamples  int // FS: samples per frame
	SearchWindow  int // N: candidate offsets examined by the pattern match
	Template      int // M: length of the matched template
	Reconvergence int // RT: tail copied verbatim after the splice
	Overlap       int // OLAL: cross-fade length
	MinScale      float64
	MaxScale      float64
}

// MSBCConfig returns the parameters used for 16 kHz mSBC frames.
func MSBCConfig() Config {
	return Config{
		FrameSamples:  120,
		SearchWindow:  256,
		Template:      64,
		Reconvergence: 36,
		Overlap:       16,
		MinScale:      0.75,
		MaxScale:      1.2,
	}
}

// CVSDConfig returns the parameters used for 8 kHz CVSD frames of 60 samples.
func CVSDConfig() Config {
	return Config{
		FrameSamples:  60,
		SearchWindow:  128,
		Template:      32,
		Reconvergence: 18,
		Overlap:       8,
		MinScale:      0.75,
		MaxScale:      1.2,
	}
}

// HistoryLength is the number of past samples searched for a match (N+FS-1).
func (c Config) HistoryLength() int {
	return c.SearchWindow + c.FrameSamples - 1
}

// Validate checks that the lengths fit inside the history buffer.
func (c Config) Validate() error {
	switch {
	case c.FrameSamples <= 0:
		return fmt.Errorf("frame samples must be positive, got %d", c.FrameSamples)
	case c.SearchWindow <= 0:
		return fmt.Errorf("search window must be positive, got %d", c.SearchWindow)
	case c.Template <= 0 || c.Template > c.FrameSamples:
		return fmt.Errorf("template length %d must be in 1..%d", c.Template, c.FrameSamples)
	case c.Overlap < 0 || c.Reconvergence < 0:
		return fmt.Errorf("overlap %d and reconvergence %d must not be negative", c.Overlap, c.Reconvergence)
	case c.Overlap+c.Reconvergence > c.FrameSamples:
		return fmt.Errorf("overlap %d plus reconvergence %d exceeds frame of %d", c.Overlap, c.Reconvergence, c.FrameSamples)
	case c.MinScale <= 0 || c.MinScale > c.MaxScale:
		return fmt.Errorf("invalid scale clamp [%g, %g]", c.MinScale, c.MaxScale)
	}
	return nil
}

// Stats counts frames handled by a Concealer.
type Stats struct {
	GoodFrames        uint64
	BadFrames         uint64
	MaxConsecutiveBad int
	Searches          uint64
}

// Concealer holds the sliding history of one stream and replaces lost
// frames with material replicated from it.
type Concealer struct {
	cfg    Config
	lhist  int
	hist   []int16
	window []float64

	nbf         int // consecutive bad frames
	bestLag     int
	scale       float64
	shifted     int64 // samples shifted out of the history since reset
	goodSamples int64
	stats       Stats
}

// New allocates a Concealer for cfg.
func New(cfg Config) (*Concealer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid concealment config: %w", err)
	}
	lhist := cfg.HistoryLength()
	return &Concealer{
		cfg:    cfg,
		lhist:  lhist,
		hist:   make([]int16, lhist+cfg.FrameSamples+cfg.Reconvergence+cfg.Overlap),
		window: RaisedCosine(cfg.Overlap),
		scale:  1,
	}, nil
}

// RaisedCosine returns the fade-out half of a raised-cosine window of length n.
// w[i] + w[n-1-i] == 1 for every i, so the window and its mirror cross-fade
// without changing the level of a steady signal.
func RaisedCosine(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = (1 + math.Cos(math.Pi*float64(i+1)/float64(n+1))) / 2
	}
	return w
}

// Config returns the configuration the Concealer was built with.
func (c *Concealer) Config() Config { return c.cfg }

// Reset clears history and counters without reallocating.
func (c *Concealer) Reset() {
	clear(c.hist)
	c.nbf = 0
	c.bestLag = 0
	c.scale = 1
	c.shifted = 0
	c.goodSamples = 0
	c.stats = Stats{}
}

// BadFrame writes one concealed frame of FrameSamples into out.
//
// zir is the zero-input response of the decoder (the output it produces for
// a silent frame given its current filter state); when it holds at least
// Overlap samples the start of the first concealed frame fades from it into
// the replicated material. A nil zir scales the replicated material only.
func (c *Concealer) BadFrame(zir, out []int16) {
	fs, olal, rt := c.cfg.FrameSamples, c.cfg.Overlap, c.cfg.Reconvergence
	hist := c.hist
	lhist := c.lhist

	c.nbf++
	c.stats.BadFrames++
	if c.nbf > c.stats.MaxConsecutiveBad {
		c.stats.MaxConsecutiveBad = c.nbf
	}
	if len(zir) < olal {
		zir = nil
	}

	if c.nbf == 1 {
		c.stats.Searches++
		// replication starts right after the matched template
		c.bestLag = c.patternMatch() + c.cfg.Template
		c.scale = c.amplitudeMatch(c.bestLag)
		sf := c.scale
		lag := c.bestLag

		for i := 0; i < olal; i++ {
			matched := sf * float64(hist[lag+i])
			if zir != nil {
				matched = float64(zir[i])*c.window[i] + matched*c.window[olal-1-i]
			}
			hist[lhist+i] = audio.Saturate16(matched)
		}
		for i := olal; i < fs; i++ {
			hist[lhist+i] = audio.Saturate16(sf * float64(hist[lag+i]))
		}
		// fade from the scaled copy back to the unscaled material
		for i := fs; i < fs+olal; i++ {
			h := float64(hist[lag+i])
			hist[lhist+i] = audio.Saturate16(sf*h*c.window[i-fs] + h*c.window[olal-1-(i-fs)])
		}
		for i := fs + olal; i < fs+rt+olal; i++ {
			hist[lhist+i] = hist[lag+i]
		}
	} else {
		// The tail written by the previous frame already carries the scale.
		// Ascending order so a lag shorter than the frame repeats its period.
		for i := 0; i < fs+rt+olal; i++ {
			hist[lhist+i] = hist[c.bestLag+i]
		}
	}

	copy(out[:fs], hist[lhist:lhist+fs])
	copy(hist, hist[fs:lhist+fs+rt+olal])
	c.shifted += int64(fs)
}

// GoodFrame accepts a decoded frame from in and writes the samples to emit
// into out. After a burst the first Reconvergence samples come from the
// concealment tail and the next Overlap samples fade into the real frame.
// in and out may be the same slice.
func (c *Concealer) GoodFrame(in, out []int16) {
	fs, olal, rt := c.cfg.FrameSamples, c.cfg.Overlap, c.cfg.Reconvergence
	hist := c.hist
	lhist := c.lhist

	c.stats.GoodFrames++
	i := 0
	if c.nbf > 0 {
		for ; i < rt; i++ {
			out[i] = hist[lhist+i]
		}
		for ; i < rt+olal; i++ {
			v := float64(hist[lhist+i])*c.window[i-rt] + float64(in[i])*c.window[olal+rt-1-i]
			out[i] = audio.Saturate16(v)
		}
	}
	copy(out[i:fs], in[i:fs])

	copy(hist[lhist:lhist+fs], out[:fs])
	copy(hist, hist[fs:lhist+fs])
	c.shifted += int64(fs)
	c.goodSamples += int64(fs)
	c.nbf = 0
}

// Warm reports whether enough real audio has been accepted to fill the
// searched history.
func (c *Concealer) Warm() bool {
	return c.goodSamples > int64(c.lhist)
}

// ConsecutiveBad returns the length of the current burst.
func (c *Concealer) ConsecutiveBad() int { return c.nbf }

// BestLag returns the history index replication starts from, relative to
// the current history window.
func (c *Concealer) BestLag() int { return c.bestLag }

// MatchPosition returns the stream position of the sample the next
// replicated frame starts from. Within a burst it advances by exactly
// FrameSamples per concealed frame.
func (c *Concealer) MatchPosition() int64 { return c.shifted + int64(c.bestLag) }

// Scale returns the amplitude factor computed on the first frame of the
// current or most recent burst.
func (c *Concealer) Scale() float64 { return c.scale }

// Stats returns frame counters since the last Reset.
func (c *Concealer) Stats() Stats { return c.stats }

// History returns the searchable part of the history, oldest sample first.
// The slice aliases internal state and is only valid until the next call.
func (c *Concealer) History() []int16 { return c.hist[:c.lhist] }

func (c *Concealer) patternMatch() int {
	m := c.cfg.Template
	template := c.hist[c.lhist-m : c.lhist]
	best := 0
	bestCorr := math.Inf(-1)
	for n := 0; n < c.cfg.SearchWindow; n++ {
		corr := crossCorrelation(template, c.hist[n:n+m])
		if corr > bestCorr {
			best = n
			bestCorr = corr
		}
	}
	return best
}

func crossCorrelation(x, y []int16) float64 {
	var num, x2, y2 float64
	for i := range x {
		a, b := float64(x[i]), float64(y[i])
		num += a * b
		x2 += a * a
		y2 += b * b
	}
	den := math.Sqrt(x2 * y2)
	if den < 1e-9 {
		return 0
	}
	return num / den
}

func (c *Concealer) amplitudeMatch(lag int) float64 {
	fs := c.cfg.FrameSamples
	recent := c.hist[c.lhist-fs : c.lhist]
	matched := c.hist[lag : lag+fs]
	sumx := 0.0
	sumy := 1e-6
	for i := 0; i < fs; i++ {
		sumx += math.Abs(float64(recent[i]))
		sumy += math.Abs(float64(matched[i]))
	}
	sf := sumx / sumy
	if sf < c.cfg.MinScale {
		sf = c.cfg.MinScale
	}
	if sf > c.cfg.MaxScale {
		sf = c.cfg.MaxScale
	}
	return sf
}
