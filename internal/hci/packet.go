// ABOUTME: HCI SCO data packet codec
// ABOUTME: Parses and builds handle, packet status flag and payload
package hci

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the HCI SCO packet header length
const HeaderSize = 3

// MaxPayload is the largest payload the one-byte length field can carry
const MaxPayload = 255

const handleMask = 0x0fff

var (
	ErrShortPacket    = errors.New("hci: packet shorter than header")
	ErrLengthMismatch = errors.New("hci: payload length does not match header")
	ErrPayloadTooLong = errors.New("hci: payload exceeds 255 bytes")
)

// PacketStatus is the 2-bit packet status flag set by the controller
type PacketStatus uint8

const (
	StatusCorrect PacketStatus = iota
	StatusPossiblyInvalid
	StatusNoData
	StatusPartiallyLost
)

func (s PacketStatus) String() string {
	switch s {
	case StatusCorrect:
		return "correct"
	case StatusPossiblyInvalid:
		return "possibly-invalid"
	case StatusNoData:
		return "no-data"
	case StatusPartiallyLost:
		return "partially-lost"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Packet is one HCI SCO data packet
type Packet struct {
	Handle  uint16
	Status  PacketStatus
	Payload []byte
}

// Corrupted reports whether the controller flagged the payload
func (p Packet) Corrupted() bool {
	return p.Status != StatusCorrect
}

// Parse decodes b. The payload aliases b.
func Parse(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, ErrShortPacket
	}
	word := binary.LittleEndian.Uint16(b[0:2])
	n := int(b[2])
	if len(b)-HeaderSize != n {
		return Packet{}, fmt.Errorf("%w: header %d, have %d", ErrLengthMismatch, n, len(b)-HeaderSize)
	}
	return Packet{
		Handle:  word & handleMask,
		Status:  PacketStatus((b[1] >> 4) & 3),
		Payload: b[HeaderSize:],
	}, nil
}

// AppendPacket appends the wire form of p to dst
func AppendPacket(dst []byte, p Packet) ([]byte, error) {
	if len(p.Payload) > MaxPayload {
		return dst, ErrPayloadTooLong
	}
	word := p.Handle&handleMask | uint16(p.Status&3)<<12
	dst = binary.LittleEndian.AppendUint16(dst, word)
	dst = append(dst, byte(len(p.Payload)))
	return append(dst, p.Payload...), nil
}

// Marshal returns the wire form of p
func (p Packet) Marshal() ([]byte, error) {
	return AppendPacket(make([]byte, 0, HeaderSize+len(p.Payload)), p)
}

// Split cuts data into packets of at most payloadSize bytes
func Split(handle uint16, data []byte, payloadSize int) ([]Packet, error) {
	if payloadSize <= 0 || payloadSize > MaxPayload {
		return nil, fmt.Errorf("hci: invalid payload size %d", payloadSize)
	}
	packets := make([]Packet, 0, (len(data)+payloadSize-1)/payloadSize)
	for len(data) > 0 {
		n := min(payloadSize, len(data))
		packets = append(packets, Packet{Handle: handle, Payload: data[:n]})
		data = data[n:]
	}
	return packets, nil
}

// ReadPacket reads one packet from a stream of back-to-back packets, as
// written by a capture. buf must hold HeaderSize+MaxPayload bytes; the
// returned payload aliases it. A clean end of stream returns io.EOF.
func ReadPacket(r io.Reader, buf []byte) (Packet, error) {
	if len(buf) < HeaderSize+MaxPayload {
		return Packet{}, fmt.Errorf("hci: read buffer too small: %d", len(buf))
	}
	if _, err := io.ReadFull(r, buf[:HeaderSize]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Packet{}, ErrShortPacket
		}
		return Packet{}, err
	}
	n := int(buf[2])
	if _, err := io.ReadFull(r, buf[HeaderSize:HeaderSize+n]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Packet{}, fmt.Errorf("%w: header %d, stream ended", ErrLengthMismatch, n)
		}
		return Packet{}, err
	}
	return Parse(buf[:HeaderSize+n])
}
