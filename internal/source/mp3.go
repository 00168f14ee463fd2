// ABOUTME: MP3 file source
// ABOUTME: Decodes MP3 to 16-bit stereo PCM with go-mp3
package source

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"github.com/Sendspin/sco-go/pkg/audio"
)

// MP3 reads from an MP3 file
type MP3 struct {
	file       *os.File
	decoder    *mp3.Decoder
	sampleRate int
	title      string
	buf        []byte
}

// NewMP3 creates a new MP3 audio source
func NewMP3(path string) (*MP3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	return &MP3{
		file:       f,
		decoder:    decoder,
		sampleRate: decoder.SampleRate(),
		title:      titleFromPath(path),
	}, nil
}

func (s *MP3) Read(samples []int16) (int, error) {
	// go-mp3 always produces stereo, 2 bytes per sample
	numBytes := (len(samples) / 2) * 4
	if cap(s.buf) < numBytes {
		s.buf = make([]byte, numBytes)
	}
	buf := s.buf[:numBytes]

	n, err := io.ReadFull(s.decoder, buf)
	if err == io.ErrUnexpectedEOF {
		err = nil
	}

	numSamples := audio.Int16s(samples, buf[:n-n%2])
	return numSamples, err
}

func (s *MP3) SampleRate() int { return s.sampleRate }
func (s *MP3) Channels() int   { return 2 }
func (s *MP3) Name() string    { return s.title }
func (s *MP3) Close() error {
	return s.file.Close()
}
