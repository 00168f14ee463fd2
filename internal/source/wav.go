// ABOUTME: WAV file source
// ABOUTME: Reads integer PCM WAV files through pkg/audio/wavfile
package source

import (
	"github.com/Sendspin/sco-go/pkg/audio/wavfile"
)

// WAV reads from a WAV file
type WAV struct {
	reader *wavfile.Reader
	title  string
}

// NewWAV creates a new WAV audio source
func NewWAV(path string) (*WAV, error) {
	r, err := wavfile.Open(path)
	if err != nil {
		return nil, err
	}
	return &WAV{reader: r, title: titleFromPath(path)}, nil
}

func (s *WAV) Read(samples []int16) (int, error) {
	return s.reader.Read(samples)
}

func (s *WAV) SampleRate() int { return s.reader.Format().SampleRate }
func (s *WAV) Channels() int   { return s.reader.Format().Channels }
func (s *WAV) Name() string    { return s.title }
func (s *WAV) Close() error    { return s.reader.Close() }
