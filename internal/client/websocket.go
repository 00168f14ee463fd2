// ABOUTME: WebSocket client that streams HCI SCO packets to a receiver
// ABOUTME: Handles connection, stream handshake, packet sending and final stats
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Sendspin/sco-go/internal/hci"
	"github.com/Sendspin/sco-go/internal/protocol"
)

const (
	// DefaultPath is the receiver's websocket endpoint
	DefaultPath = "/sco"

	handshakeTimeout = 5 * time.Second
	writeDeadline    = 10 * time.Second
)

// Config holds client configuration
type Config struct {
	ServerAddr string
	Path       string
	Name       string
	Codec      string
	Handle     uint16
	DeviceInfo *protocol.DeviceInfo
	Logger     *zap.Logger
}

// Client streams one SCO connection to a receiver
type Client struct {
	config Config
	logger *zap.Logger
	conn   *websocket.Conn
	mu     sync.Mutex

	ready     protocol.StreamReady
	connected bool
	buf       []byte
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.Path == "" {
		config.Path = DefaultPath
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config: config,
		logger: logger,
	}
}

// Connect establishes the WebSocket connection and opens the stream
func (c *Client) Connect(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: c.config.Path}
	c.logger.Info("connecting", zap.String("url", u.String()))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	return nil
}

// handshake sends stream/hello and waits for stream/ready
func (c *Client) handshake() error {
	hello := protocol.StreamHello{
		Name:       c.config.Name,
		Codec:      c.config.Codec,
		Handle:     c.config.Handle,
		Version:    protocol.Version,
		DeviceInfo: c.config.DeviceInfo,
	}
	if err := c.sendJSON(protocol.TypeStreamHello, hello); err != nil {
		return fmt.Errorf("failed to send stream/hello: %w", err)
	}

	msg, err := c.readJSON(handshakeTimeout)
	if err != nil {
		return fmt.Errorf("failed to read stream/ready: %w", err)
	}

	switch msg.Type {
	case protocol.TypeStreamReady:
		var ready protocol.StreamReady
		if err := protocol.DecodePayload(msg.Payload, &ready); err != nil {
			return err
		}
		c.ready = ready
	case protocol.TypeError:
		var perr protocol.Error
		if err := protocol.DecodePayload(msg.Payload, &perr); err != nil {
			return err
		}
		return fmt.Errorf("receiver rejected stream: %s: %s", perr.Error, perr.Message)
	default:
		return fmt.Errorf("expected %s, got %s", protocol.TypeStreamReady, msg.Type)
	}

	c.logger.Info("stream ready",
		zap.String("stream_id", c.ready.StreamID),
		zap.String("codec", c.ready.Format.Codec),
		zap.Int("sample_rate", c.ready.Format.SampleRate))
	return nil
}

// Ready returns the receiver's stream/ready response
func (c *Client) Ready() protocol.StreamReady {
	return c.ready
}

// SendPacket sends one HCI SCO packet as a binary message
func (c *Client) SendPacket(p hci.Packet) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	var err error
	c.buf, err = hci.AppendPacket(c.buf[:0], p)
	if err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return c.conn.WriteMessage(websocket.BinaryMessage, c.buf)
}

// End finishes the stream and returns the receiver's statistics
func (c *Client) End(reason string) (protocol.StreamStats, error) {
	if err := c.sendJSON(protocol.TypeStreamEnd, protocol.StreamEnd{Reason: reason}); err != nil {
		return protocol.StreamStats{}, fmt.Errorf("failed to send stream/end: %w", err)
	}

	for {
		msg, err := c.readJSON(handshakeTimeout)
		if err != nil {
			return protocol.StreamStats{}, fmt.Errorf("failed to read stream/stats: %w", err)
		}
		if msg.Type != protocol.TypeStreamStats {
			c.logger.Debug("ignoring message", zap.String("type", msg.Type))
			continue
		}
		var stats protocol.StreamStats
		if err := protocol.DecodePayload(msg.Payload, &stats); err != nil {
			return protocol.StreamStats{}, err
		}
		return stats, nil
	}
}

// sendJSON sends a JSON message
func (c *Client) sendJSON(msgType string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return c.conn.WriteJSON(protocol.Message{Type: msgType, Payload: payload})
}

// readJSON reads the next text message within timeout
func (c *Client) readJSON(timeout time.Duration) (protocol.Message, error) {
	var msg protocol.Message

	c.conn.SetReadDeadline(time.Now().Add(timeout))
	defer c.conn.SetReadDeadline(time.Time{})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return msg, err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return msg, fmt.Errorf("failed to parse message: %w", err)
		}
		return msg, nil
	}
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.logger.Debug("connection closed")
	return c.conn.Close()
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
