// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides the PCM types shared by the SCO decode pipeline and
// the applications around it.
//
//   - Format: describes a stream (codec, sample rate, channels, bit depth)
//   - Buffer: a block of decoded 16-bit PCM with its stream offset
//
// Conversion helpers move samples between the 16-bit wire representation,
// the 24-bit left-justified int32 representation used by the resampler and
// file sources, and little-endian byte slices.
//
// Example:
//
//	format := audio.Format{
//	    Codec:      audio.CodecMSBC,
//	    SampleRate: 16000,
//	    Channels:   1,
//	    BitDepth:   16,
//	}
//
//	sample := audio.Saturate16(1.5 * float64(prev))
package audio
