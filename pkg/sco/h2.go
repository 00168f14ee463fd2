// ABOUTME: mSBC H2 synchronization header handling
// ABOUTME: Finds self-checking headers, encodes them and holds the zero-signal frame
package sco

const (
	// H2FrameSize is an mSBC packet on eSCO: H2 header, frame, padding byte.
	H2FrameSize = 60
	// MSBCFrameSize is the encoded mSBC frame without H2 header or padding.
	MSBCFrameSize = 57

	h2FirstByte   = 0x01
	msbcSyncword  = 0xAD
	h2HeaderBytes = 2
)

var h2SecondBytes = [4]byte{0x08, 0x38, 0xC8, 0xF8}

// FindHeader returns the position and sequence number of the first H2
// header in buf that is followed by the mSBC syncword. A first byte whose
// second byte fails the nibble check is skipped and the scan continues.
func FindHeader(buf []byte) (pos, seq int, ok bool) {
	for i := h2HeaderBytes; i < len(buf); i++ {
		if buf[i] != msbcSyncword || buf[i-2] != h2FirstByte {
			continue
		}
		s := buf[i-1]
		if s&0x0F != 0x08 {
			continue
		}
		hn := s >> 4
		if (hn>>1)&0x05 != hn&0x05 {
			continue
		}
		return i - 2, int((hn&0x04)>>1 | hn&0x01), true
	}
	return 0, 0, false
}

// H2Header encodes the header for sequence number seq (taken mod 4).
func H2Header(seq int) [2]byte {
	return [2]byte{h2FirstByte, h2SecondBytes[seq&3]}
}

// zeroSignalFrame encodes silence. Decoding it yields the decoder's
// zero-input response, the ringing of its synthesis filter.
var zeroSignalFrame = [MSBCFrameSize]byte{
	0xad, 0x00, 0x00, 0xc5, 0x00, 0x00, 0x00, 0x00,
	0x77, 0x6d, 0xb6, 0xdd, 0xdb, 0x6d, 0xb7, 0x76,
	0xdb, 0x6d, 0xdd, 0xb6, 0xdb, 0x77, 0x6d, 0xb6,
	0xdd, 0xdb, 0x6d, 0xb7, 0x76, 0xdb, 0x6d, 0xdd,
	0xb6, 0xdb, 0x77, 0x6d, 0xb6, 0xdd, 0xdb, 0x6d,
	0xb7, 0x76, 0xdb, 0x6d, 0xdd, 0xb6, 0xdb, 0x77,
	0x6d, 0xb6, 0xdd, 0xdb, 0x6d, 0xb7, 0x76, 0xdb,
	0x6c,
}

// ZeroSignalFrame returns a copy of the mSBC frame that encodes silence.
func ZeroSignalFrame() []byte {
	f := zeroSignalFrame
	return f[:]
}

// hasZeroRun reports whether buf contains n consecutive zero bytes.
func hasZeroRun(buf []byte, n int) bool {
	if n <= 0 {
		return false
	}
	run := 0
	for _, b := range buf {
		if b != 0 {
			run = 0
			continue
		}
		run++
		if run >= n {
			return true
		}
	}
	return false
}
