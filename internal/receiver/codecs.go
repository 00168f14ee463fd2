// ABOUTME: Codec registry mapping stream/hello codec names to decoder setups
// ABOUTME: CVSD is built in; mSBC needs an externally supplied SBC frame decoder
package receiver

import (
	"fmt"
	"sort"

	"github.com/Sendspin/sco-go/pkg/audio"
	"github.com/Sendspin/sco-go/pkg/sco"
)

// FrameDecoderFactory creates a frame decoder for one stream
type FrameDecoderFactory func() (sco.FrameDecoder, error)

// Codec describes how to decode one codec
type Codec struct {
	Config     sco.Config
	NewDecoder FrameDecoderFactory
}

// Codecs maps codec names to their decoder setup
type Codecs map[string]Codec

// DefaultCodecs returns the codecs available without external decoders
func DefaultCodecs() Codecs {
	cfg := sco.CVSDConfig()
	return Codecs{
		audio.CodecCVSD: {
			Config: cfg,
			NewDecoder: func() (sco.FrameDecoder, error) {
				return sco.NewPCMDecoder(8000, cfg.FrameSamples), nil
			},
		},
	}
}

// Register adds or replaces a codec
func (c Codecs) Register(name string, codec Codec) error {
	if codec.NewDecoder == nil {
		return fmt.Errorf("codec %s has no frame decoder factory", name)
	}
	if err := codec.Config.Validate(); err != nil {
		return fmt.Errorf("codec %s: %w", name, err)
	}
	c[name] = codec
	return nil
}

// Names returns the registered codec names in sorted order
func (c Codecs) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
