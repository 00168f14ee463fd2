// ABOUTME: Interface to the external single-frame decoder
// ABOUTME: Defines decode statuses, results and the outcome classification
package sco

import "fmt"

// Status is the result code of a single frame decode.
type Status int

const (
	StatusSuccess Status = iota
	StatusInsufficientHeader
	StatusInsufficientBody
	StatusNoSyncword
	StatusChecksumMismatch
	// StatusInvalidParameters means the decoder's internal state is unusable
	// and it must be Reset before any further Decode call.
	StatusInvalidParameters
)

var statusNames = [...]string{
	StatusSuccess:            "success",
	StatusInsufficientHeader: "insufficient header",
	StatusInsufficientBody:   "insufficient body",
	StatusNoSyncword:         "no syncword",
	StatusChecksumMismatch:   "checksum mismatch",
	StatusInvalidParameters:  "invalid parameters",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result describes one Decode call.
type Result struct {
	Status   Status
	Consumed int // bytes of the frame the decoder read
	Samples  int // samples written to pcm, per channel
}

// Outcome classifies a Result for the recovery policy.
type Outcome int

const (
	OutcomeDecoded Outcome = iota
	OutcomeInsufficientData
	OutcomeNoHeader
	OutcomeChecksumMismatch
	OutcomePrimitiveFaulted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDecoded:
		return "decoded"
	case OutcomeInsufficientData:
		return "insufficient data"
	case OutcomeNoHeader:
		return "no header"
	case OutcomeChecksumMismatch:
		return "checksum mismatch"
	case OutcomePrimitiveFaulted:
		return "primitive faulted"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Outcome maps the decoder status onto the recovery policy.
func (r Result) Outcome() Outcome {
	switch r.Status {
	case StatusSuccess:
		return OutcomeDecoded
	case StatusInsufficientHeader, StatusInsufficientBody:
		return OutcomeInsufficientData
	case StatusNoSyncword:
		return OutcomeNoHeader
	case StatusInvalidParameters:
		return OutcomePrimitiveFaulted
	default:
		return OutcomeChecksumMismatch
	}
}

// CandidateState is how far the current candidate frame has progressed.
type CandidateState int

const (
	CandidateUnsynchronized CandidateState = iota
	CandidateSyncFound
	CandidateReadyToDecode
)

func (s CandidateState) String() string {
	switch s {
	case CandidateUnsynchronized:
		return "unsynchronized"
	case CandidateSyncFound:
		return "sync found"
	case CandidateReadyToDecode:
		return "ready to decode"
	default:
		return fmt.Sprintf("CandidateState(%d)", int(s))
	}
}

// FrameDecoder decodes exactly one encoded frame. Implementations wrap a
// codec engine (SBC, mSBC) or pass PCM through.
type FrameDecoder interface {
	// Decode reads one frame from the start of frame and writes the decoded
	// samples into pcm, which holds at least SamplesPerFrame()*Channels().
	Decode(frame []byte, pcm []int16) Result
	// Reset reinitializes the decoder after StatusInvalidParameters.
	Reset() error
	SamplesPerFrame() int
	Channels() int
	SampleRate() int
}
