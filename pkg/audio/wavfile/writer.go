// ABOUTME: WAV recorder for 16-bit PCM
// ABOUTME: Streams samples into a go-audio/wav encoder
package wavfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth  = 16
	formatPCM = 1
)

// Writer records 16-bit PCM to a WAV stream
type Writer struct {
	enc        *wav.Encoder
	file       *os.File
	buf        *goaudio.IntBuffer
	sampleRate int
	channels   int
	samples    int64
	err        error
}

// Create opens path for writing and returns a Writer that closes the
// file on Close.
func Create(path string, sampleRate, channels int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create wav file: %w", err)
	}
	w, err := NewWriter(f, sampleRate, channels)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.file = f
	return w, nil
}

// NewWriter wraps ws; the caller keeps ownership of ws.
func NewWriter(ws io.WriteSeeker, sampleRate, channels int) (*Writer, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid wav format: %d Hz, %d channels", sampleRate, channels)
	}
	return &Writer{
		enc: wav.NewEncoder(ws, sampleRate, bitDepth, channels, formatPCM),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// Write appends interleaved samples
func (w *Writer) Write(samples []int16) error {
	if w.err != nil {
		return w.err
	}
	data := w.buf.Data[:0]
	for _, s := range samples {
		data = append(data, int(s))
	}
	w.buf.Data = data
	if err := w.enc.Write(w.buf); err != nil {
		w.err = fmt.Errorf("failed to write wav samples: %w", err)
		return w.err
	}
	w.samples += int64(len(samples))
	return nil
}

// OnPCM records decoder output. Write errors are kept and returned by
// Err and Close.
func (w *Writer) OnPCM(samples []int16, numSamples, numChannels, sampleRate int) {
	if numChannels != w.channels || sampleRate != w.sampleRate {
		if w.err == nil {
			w.err = fmt.Errorf("pcm format %d Hz %d ch does not match recording %d Hz %d ch",
				sampleRate, numChannels, w.sampleRate, w.channels)
		}
		return
	}
	_ = w.Write(samples[:numSamples*numChannels])
}

// Samples returns how many samples have been written
func (w *Writer) Samples() int64 {
	return w.samples
}

// Err returns the first write error
func (w *Writer) Err() error {
	return w.err
}

// Close finalizes the WAV header
func (w *Writer) Close() error {
	err := w.enc.Close()
	if err != nil {
		err = fmt.Errorf("failed to finalize wav file: %w", err)
	}
	if w.file != nil {
		if cerr := w.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		w.file = nil
	}
	return errors.Join(w.err, err)
}
