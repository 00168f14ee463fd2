// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, decoded buffers and sample conversions
package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// Codec names carried in Format.Codec
const (
	CodecCVSD = "cvsd"
	CodecMSBC = "msbc"
	CodecPCM  = "pcm"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// FrameDuration returns how long n samples per channel last at this format's rate.
func (f Format) FrameDuration(n int) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(f.SampleRate)
}

// Buffer represents decoded PCM audio
type Buffer struct {
	Offset  time.Duration // Stream position of the first sample
	Samples []int16
	Format  Format
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// Saturate16 rounds v to the nearest integer and clamps it to the int16 range.
func Saturate16(v float64) int16 {
	r := math.Round(v)
	if r > math.MaxInt16 {
		return math.MaxInt16
	}
	if r < math.MinInt16 {
		return math.MinInt16
	}
	return int16(r)
}

// PutInt16s writes src as little-endian 16-bit samples into dst.
// dst must hold at least 2*len(src) bytes.
func PutInt16s(dst []byte, src []int16) {
	for i, s := range src {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(s))
	}
}

// Int16s decodes little-endian 16-bit samples from src into dst and returns
// the number of samples written.
func Int16s(dst []int16, src []byte) int {
	n := len(src) / 2
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = int16(binary.LittleEndian.Uint16(src[2*i:]))
	}
	return n
}
