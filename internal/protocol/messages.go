// ABOUTME: SCO streaming protocol message type definitions
// ABOUTME: Defines the JSON control messages exchanged around binary HCI packets
package protocol

import (
	"encoding/json"
	"fmt"
)

// Version is the protocol version sent in stream/hello
const Version = 1

// Message types
const (
	TypeStreamHello = "stream/hello"
	TypeStreamReady = "stream/ready"
	TypeStreamEnd   = "stream/end"
	TypeStreamStats = "stream/stats"
	TypeError       = "server/error"
)

// Message is the top-level wrapper for all protocol messages. Binary
// websocket messages carry one HCI SCO packet each.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StreamHello is sent by a sender to open a stream
type StreamHello struct {
	Name       string      `json:"name"`
	Codec      string      `json:"codec"` // "msbc" or "cvsd"
	Handle     uint16      `json:"handle"`
	Version    int         `json:"version"`
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
}

// DeviceInfo contains device identification
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// AudioFormat describes the decoded PCM format
type AudioFormat struct {
	Codec      string `json:"codec"`
	Channels   int    `json:"channels"`
	SampleRate int    `json:"sample_rate"`
	BitDepth   int    `json:"bit_depth"`
}

// StreamReady is the receiver's response to stream/hello
type StreamReady struct {
	StreamID   string      `json:"stream_id"`
	ReceiverID string      `json:"receiver_id"`
	Format     AudioFormat `json:"format"`
	FrameBytes int         `json:"frame_bytes"`
}

// StreamEnd asks the receiver to finish the stream
type StreamEnd struct {
	Reason string `json:"reason,omitempty"`
}

// StreamStats reports decode statistics for a stream
type StreamStats struct {
	StreamID          string `json:"stream_id"`
	Packets           int    `json:"packets"`
	GoodFrames        int    `json:"good_frames"`
	BadFrames         int    `json:"bad_frames"`
	ZeroFrames        int    `json:"zero_frames"`
	ConcealedFrames   int    `json:"concealed_frames"`
	SilentFrames      int    `json:"silent_frames"`
	LostBytes         int    `json:"lost_bytes"`
	Resets            int    `json:"resets"`
	SequenceJumps     int    `json:"sequence_jumps"`
	MaxConsecutiveBad int    `json:"max_consecutive_bad"`
}

// Error reports a rejected request
type Error struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// DecodePayload re-decodes a generic payload into v
func DecodePayload(payload interface{}, v interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}
