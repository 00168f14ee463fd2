// ABOUTME: FLAC file source
// ABOUTME: Decodes FLAC frames to interleaved 16-bit PCM with mewkiz/flac
package source

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

// FLAC reads from a FLAC file
type FLAC struct {
	file       *os.File
	stream     *flac.Stream
	sampleRate int
	channels   int
	bitDepth   int
	title      string

	// pending holds the unread part of the last parsed frame
	frame *frame.Frame
	pos   int
}

// NewFLAC creates a new FLAC audio source
func NewFLAC(path string) (*FLAC, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	return &FLAC{
		file:       f,
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
		title:      titleFromPath(path),
	}, nil
}

func (s *FLAC) Read(samples []int16) (int, error) {
	samplesRead := 0
	frames := len(samples) / s.channels

	for frames > 0 {
		if s.frame == nil || s.pos >= int(s.frame.BlockSize) {
			fr, err := s.stream.ParseNext()
			if err != nil {
				if samplesRead > 0 && err == io.EOF {
					return samplesRead, nil
				}
				return samplesRead, err
			}
			s.frame, s.pos = fr, 0
		}

		for ; s.pos < int(s.frame.BlockSize) && frames > 0; s.pos++ {
			for ch := 0; ch < s.channels; ch++ {
				samples[samplesRead] = scaleTo16(s.frame.Subframes[ch].Samples[s.pos], s.bitDepth)
				samplesRead++
			}
			frames--
		}
	}

	return samplesRead, nil
}

// scaleTo16 converts a sample of the given bit depth to 16 bits
func scaleTo16(sample int32, bitDepth int) int16 {
	shift := bitDepth - 16
	if shift > 0 {
		return int16(sample >> shift)
	}
	return int16(sample << -shift)
}

func (s *FLAC) SampleRate() int { return s.sampleRate }
func (s *FLAC) Channels() int   { return s.channels }
func (s *FLAC) Name() string    { return s.title }
func (s *FLAC) Close() error {
	return s.file.Close()
}
