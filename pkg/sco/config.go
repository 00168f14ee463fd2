// ABOUTME: Stream configuration for the SCO decoder
// ABOUTME: Frame format, frame sizes, concealment parameters and presets
package sco

import (
	"fmt"

	"github.com/Sendspin/sco-go/pkg/plc"
)

// FrameFormat selects how frame boundaries are found.
type FrameFormat int

const (
	// FormatFixedSize cuts the stream into frames of FrameBytes.
	FormatFixedSize FrameFormat = iota
	// FormatHeaderSynchronized aligns on the mSBC H2 header.
	FormatHeaderSynchronized
)

func (f FrameFormat) String() string {
	switch f {
	case FormatFixedSize:
		return "fixed"
	case FormatHeaderSynchronized:
		return "h2"
	default:
		return fmt.Sprintf("FrameFormat(%d)", int(f))
	}
}

// DefaultZeroRunLength is the run of zero bytes that marks a frame as link fill.
const DefaultZeroRunLength = 20

// Config is fixed at stream creation.
type Config struct {
	Format       FrameFormat
	FrameBytes   int // nominal frame length on the wire
	FrameSamples int // samples per decoded frame

	Overlap       int
	SearchWindow  int
	Template      int
	Reconvergence int

	// ZeroRunLength marks a candidate containing this many consecutive zero
	// bytes as a zero frame. 0 disables the check.
	ZeroRunLength int

	// FlatFrameCheck treats a decoded frame as bad when half of it is one
	// repeated sample value. Controllers that transcode CVSD emit such
	// frames when the air interface drops data.
	FlatFrameCheck bool

	MinScale float64
	MaxScale float64
}

// MSBCConfig returns the configuration for 16 kHz mSBC over eSCO.
func MSBCConfig() Config {
	p := plc.MSBCConfig()
	return Config{
		Format:        FormatHeaderSynchronized,
		FrameBytes:    H2FrameSize,
		FrameSamples:  p.FrameSamples,
		Overlap:       p.Overlap,
		SearchWindow:  p.SearchWindow,
		Template:      p.Template,
		Reconvergence: p.Reconvergence,
		ZeroRunLength: DefaultZeroRunLength,
		MinScale:      p.MinScale,
		MaxScale:      p.MaxScale,
	}
}

// CVSDConfig returns the configuration for 8 kHz CVSD delivered by the
// controller as 16-bit little-endian PCM, 60 samples per frame.
func CVSDConfig() Config {
	p := plc.CVSDConfig()
	return Config{
		Format:         FormatFixedSize,
		FrameBytes:     2 * p.FrameSamples,
		FrameSamples:   p.FrameSamples,
		Overlap:        p.Overlap,
		SearchWindow:   p.SearchWindow,
		Template:       p.Template,
		Reconvergence:  p.Reconvergence,
		ZeroRunLength:  DefaultZeroRunLength,
		FlatFrameCheck: true,
		MinScale:       p.MinScale,
		MaxScale:       p.MaxScale,
	}
}

// PLC returns the concealment parameters embedded in c.
func (c Config) PLC() plc.Config {
	return plc.Config{
		FrameSamples:  c.FrameSamples,
		SearchWindow:  c.SearchWindow,
		Template:      c.Template,
		Reconvergence: c.Reconvergence,
		Overlap:       c.Overlap,
		MinScale:      c.MinScale,
		MaxScale:      c.MaxScale,
	}
}

// Validate reports the first problem with c.
func (c Config) Validate() error {
	switch c.Format {
	case FormatFixedSize:
		if c.FrameBytes <= 0 {
			return fmt.Errorf("%w: frame bytes must be positive, got %d", ErrInvalidConfig, c.FrameBytes)
		}
	case FormatHeaderSynchronized:
		if c.FrameBytes != H2FrameSize {
			return fmt.Errorf("%w: h2 framing needs %d byte frames, got %d", ErrInvalidConfig, H2FrameSize, c.FrameBytes)
		}
	default:
		return fmt.Errorf("%w: unknown frame format %v", ErrInvalidConfig, c.Format)
	}
	if c.ZeroRunLength < 0 || c.ZeroRunLength > c.FrameBytes {
		return fmt.Errorf("%w: zero run length %d outside 0..%d", ErrInvalidConfig, c.ZeroRunLength, c.FrameBytes)
	}
	if err := c.PLC().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
