// ABOUTME: SCO voice stream decoder
// ABOUTME: Wraps sco.Decoder so each chunk returns the PCM frames it completed
package decode

import (
	"fmt"

	"github.com/Sendspin/sco-go/pkg/audio"
	"github.com/Sendspin/sco-go/pkg/sco"
)

// SCODecoder decodes an SCO payload stream with resynchronization and
// packet loss concealment.
type SCODecoder struct {
	dec    *sco.Decoder
	format audio.Format
	out    []int32
}

// ConfigFor returns the stream configuration for a codec name.
func ConfigFor(codec string) (sco.Config, error) {
	switch codec {
	case audio.CodecCVSD:
		return sco.CVSDConfig(), nil
	case audio.CodecMSBC:
		return sco.MSBCConfig(), nil
	default:
		return sco.Config{}, fmt.Errorf("invalid codec for SCO decoder: %s", codec)
	}
}

// NewSCO creates a decoder for format. prim decodes single frames; when nil
// a CVSD stream is taken to be linear PCM from the controller.
func NewSCO(format audio.Format, prim sco.FrameDecoder, opts ...sco.Option) (*SCODecoder, error) {
	cfg, err := ConfigFor(format.Codec)
	if err != nil {
		return nil, err
	}
	if format.Channels > 1 {
		return nil, fmt.Errorf("unsupported channel count: %d (SCO is mono)", format.Channels)
	}
	if prim == nil {
		if format.Codec != audio.CodecCVSD {
			return nil, fmt.Errorf("codec %s needs a frame decoder", format.Codec)
		}
		rate := format.SampleRate
		if rate == 0 {
			rate = 8000
		}
		prim = sco.NewPCMDecoder(rate, cfg.FrameSamples)
	}
	if format.SampleRate != 0 && format.SampleRate != prim.SampleRate() {
		return nil, fmt.Errorf("sample rate mismatch: stream %d Hz, frame decoder %d Hz", format.SampleRate, prim.SampleRate())
	}

	d := &SCODecoder{
		format: audio.Format{
			Codec:      format.Codec,
			SampleRate: prim.SampleRate(),
			Channels:   1,
			BitDepth:   16,
		},
	}
	dec, err := sco.New(cfg, prim, sco.SinkFunc(d.collect), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SCO decoder: %w", err)
	}
	d.dec = dec
	return d, nil
}

func (d *SCODecoder) collect(samples []int16, numSamples, numChannels, sampleRate int) {
	for _, s := range samples[:numSamples*numChannels] {
		d.out = append(d.out, audio.SampleFromInt16(s))
	}
}

// Decode feeds a chunk of payload and returns the samples of every frame
// it completed, concealed frames included.
func (d *SCODecoder) Decode(data []byte) ([]int32, error) {
	return d.DecodeFlagged(data, false)
}

// DecodeFlagged is Decode with the link's quality indicator for the chunk.
func (d *SCODecoder) DecodeFlagged(data []byte, corrupted bool) ([]int32, error) {
	d.out = nil
	if err := d.dec.Push(data, corrupted); err != nil {
		return nil, fmt.Errorf("sco decode error: %w", err)
	}
	return d.out, nil
}

// Format returns the format of the decoded samples.
func (d *SCODecoder) Format() audio.Format { return d.format }

// Stats returns the stream's frame counters.
func (d *SCODecoder) Stats() sco.Stats { return d.dec.Stats() }

// Close releases resources
func (d *SCODecoder) Close() error {
	return nil
}
