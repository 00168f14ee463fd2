// ABOUTME: PCM audio encoder
// ABOUTME: Encodes int32 samples to 16-bit little-endian PCM bytes
package encode

import (
	"fmt"

	"github.com/Sendspin/sco-go/pkg/audio"
)

// PCMEncoder encodes 16-bit mono PCM
type PCMEncoder struct {
	buf []int16
}

// NewPCM creates a new PCM encoder for "pcm" or "cvsd" streams
func NewPCM(format audio.Format) (Encoder, error) {
	if format.Codec != audio.CodecPCM && format.Codec != audio.CodecCVSD {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	if format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}

	if format.Channels > 1 {
		return nil, fmt.Errorf("unsupported channel count: %d (supported: 1)", format.Channels)
	}

	return &PCMEncoder{}, nil
}

// Encode converts int32 samples to PCM bytes, clipping to the 24-bit range first
func (e *PCMEncoder) Encode(samples []int32) ([]byte, error) {
	if cap(e.buf) < len(samples) {
		e.buf = make([]int16, len(samples))
	}
	buf := e.buf[:len(samples)]
	for i, s := range samples {
		if s > audio.Max24Bit {
			s = audio.Max24Bit
		} else if s < audio.Min24Bit {
			s = audio.Min24Bit
		}
		buf[i] = audio.SampleToInt16(s)
	}

	output := make([]byte, len(samples)*2)
	audio.PutInt16s(output, buf)
	return output, nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
