// ABOUTME: WAV reader producing 16-bit PCM
// ABOUTME: Decodes 8/16/24/32-bit integer WAV files with go-audio/wav
package wavfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Sendspin/sco-go/pkg/audio"
)

// ErrNotWAV is returned for input that is not a readable WAV file
var ErrNotWAV = errors.New("wavfile: not a valid wav file")

// Reader reads interleaved 16-bit samples from a WAV stream
type Reader struct {
	dec    *wav.Decoder
	file   *os.File
	buf    *goaudio.IntBuffer
	format audio.Format
}

// Open opens a WAV file
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.file = f
	return r, nil
}

// NewReader validates the header of rs
func NewReader(rs io.ReadSeeker) (*Reader, error) {
	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}
	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported wav bit depth: %d", dec.BitDepth)
	}
	return &Reader{
		dec: dec,
		buf: &goaudio.IntBuffer{},
		format: audio.Format{
			Codec:      audio.CodecPCM,
			SampleRate: int(dec.SampleRate),
			Channels:   int(dec.NumChans),
			BitDepth:   16,
		},
	}, nil
}

// Format returns the format of the samples Read produces
func (r *Reader) Format() audio.Format {
	return r.format
}

// SourceBitDepth returns the bit depth stored in the file
func (r *Reader) SourceBitDepth() int {
	return int(r.dec.BitDepth)
}

// Read fills dst with samples and returns io.EOF at the end of data
func (r *Reader) Read(dst []int16) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if cap(r.buf.Data) < len(dst) {
		r.buf.Data = make([]int, len(dst))
	}
	r.buf.Data = r.buf.Data[:len(dst)]

	n, err := r.dec.PCMBuffer(r.buf)
	if err != nil {
		return 0, fmt.Errorf("failed to read wav samples: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	shift := int(r.dec.BitDepth) - 16
	for i := 0; i < n; i++ {
		v := r.buf.Data[i]
		switch {
		case r.dec.BitDepth == 8:
			dst[i] = int16((v - 128) << 8)
		case shift > 0:
			dst[i] = int16(v >> shift)
		default:
			dst[i] = int16(v)
		}
	}
	return n, nil
}

// ReadAll reads every remaining sample
func (r *Reader) ReadAll() ([]int16, error) {
	var out []int16
	chunk := make([]int16, 4096)
	for {
		n, err := r.Read(chunk)
		out = append(out, chunk[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}

// Close releases the file opened by Open
func (r *Reader) Close() error {
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}
