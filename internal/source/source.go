// ABOUTME: Audio source abstraction for feeding the SCO simulator
// ABOUTME: Supports MP3, FLAC, WAV files and a generated sine tone
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Source provides interleaved 16-bit PCM. Read returns io.EOF at the end
// of the audio.
type Source interface {
	Read(samples []int16) (int, error)
	SampleRate() int
	Channels() int
	// Name describes the source for logs and the TUI
	Name() string
	Close() error
}

// Open creates a source from a file path. An empty path returns a
// sine tone of the given duration in seconds.
func Open(path string, toneSeconds float64, logger *zap.Logger) (Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		return NewTone(DefaultToneFrequency, 32000, toneSeconds), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", path)
	}

	var (
		src Source
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		src, err = NewMP3(path)
	case ".flac":
		src, err = NewFLAC(path)
	case ".wav":
		src, err = NewWAV(path)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac, .wav)", ext)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("loaded audio source",
		zap.String("name", src.Name()),
		zap.Int("sample_rate", src.SampleRate()),
		zap.Int("channels", src.Channels()))
	return src, nil
}

func titleFromPath(path string) string {
	filename := filepath.Base(path)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
