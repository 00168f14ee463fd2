// ABOUTME: SCO receiver server: websocket stream intake, metrics and status endpoints
// ABOUTME: Runs one sco.Decoder per connection and shares recording and playback
package receiver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Sendspin/sco-go/internal/discovery"
	"github.com/Sendspin/sco-go/internal/metrics"
	"github.com/Sendspin/sco-go/internal/protocol"
	"github.com/Sendspin/sco-go/pkg/audio/output"
	"github.com/Sendspin/sco-go/pkg/sco"
)

const (
	// StreamPath is the websocket endpoint senders connect to
	StreamPath = "/sco"

	helloTimeout = 5 * time.Second
	idleTimeout  = 30 * time.Second
	writeTimeout = 10 * time.Second
	maxMessage   = 4096
)

// Option configures a Receiver
type Option func(*Receiver)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Receiver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCodecs replaces the codec registry
func WithCodecs(codecs Codecs) Option {
	return func(r *Receiver) { r.codecs = codecs }
}

// WithOutput plays the first active stream on out
func WithOutput(out output.Output) Option {
	return func(r *Receiver) { r.out = out }
}

// Receiver accepts SCO streams over websocket
type Receiver struct {
	config     Config
	receiverID string
	logger     *zap.Logger
	codecs     Codecs
	out        output.Output
	player     *player
	upgrader   websocket.Upgrader

	mu      sync.RWMutex
	streams map[string]*connection
	closing bool

	// handlers tracks websocket connections, which Shutdown does not wait for
	handlers sync.WaitGroup
}

type connection struct {
	stream *Stream
	conn   *websocket.Conn
}

// New creates a receiver
func New(config Config, opts ...Option) *Receiver {
	r := &Receiver{
		config:     config,
		receiverID: uuid.New().String(),
		logger:     zap.NewNop(),
		codecs:     DefaultCodecs(),
		streams:    make(map[string]*connection),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.out != nil {
		r.player = newPlayer(r.out, r.logger.Named("player"))
	}
	return r
}

// ID returns the receiver's random identifier
func (r *Receiver) ID() string { return r.receiverID }

// Handler returns the HTTP routes of the receiver
func (r *Receiver) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(chimw.RealIP)
	router.Use(chimw.Recoverer)

	router.Get("/healthz", r.handleHealth)
	router.Handle("/metrics", promhttp.Handler())
	router.Get(StreamPath, r.handleWebSocket)

	router.Group(func(router chi.Router) {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
		router.Get("/streams", r.handleStreams)
	})

	return router
}

// Run serves until ctx is cancelled
func (r *Receiver) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:        r.config.ListenAddr,
		Handler:     r.Handler(),
		ReadTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		r.logger.Info("receiver listening",
			zap.String("addr", r.config.ListenAddr),
			zap.String("receiver_id", r.receiverID),
			zap.Strings("codecs", r.codecs.Names()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var mdnsManager *discovery.Manager
	if r.config.EnableMDNS {
		mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: r.config.Name,
			Port:        r.config.Port(),
			Path:        StreamPath,
			Codecs:      r.codecs.Names(),
			Logger:      r.logger.Named("mdns"),
		})
		if err := mdnsManager.Advertise(); err != nil {
			r.logger.Warn("failed to start mDNS advertisement", zap.Error(err))
		}
	}

	var serverErr error
	select {
	case <-ctx.Done():
		r.logger.Info("receiver shutting down")
	case err := <-errChan:
		serverErr = err
	}

	if mdnsManager != nil {
		mdnsManager.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}
	r.closeAll()
	r.handlers.Wait()
	if r.player != nil {
		r.player.close()
	}

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Streams returns a snapshot of active streams ordered by start time
func (r *Receiver) Streams() []StreamInfo {
	r.mu.RLock()
	infos := make([]StreamInfo, 0, len(r.streams))
	for _, c := range r.streams {
		infos = append(infos, c.stream.Info())
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Started.Before(infos[j].Started)
	})
	return infos
}

// SetVolume changes playback volume (0-100)
func (r *Receiver) SetVolume(volume int) {
	if r.player != nil {
		r.player.SetVolume(volume)
	}
}

// SetMuted mutes or unmutes playback
func (r *Receiver) SetMuted(muted bool) {
	if r.player != nil {
		r.player.SetMuted(muted)
	}
}

func (r *Receiver) handleHealth(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (r *Receiver) handleStreams(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(r.Streams())
}

func (r *Receiver) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	r.handlers.Add(1)
	defer r.handlers.Done()

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessage)

	r.logger.Debug("new connection", zap.String("remote", req.RemoteAddr))

	stream, err := r.open(conn)
	if err != nil {
		metrics.StreamsRejectedTotal.Inc()
		r.logger.Warn("stream rejected", zap.String("remote", req.RemoteAddr), zap.Error(err))
		return
	}
	defer r.remove(stream.id)

	r.serve(conn, stream)
}

// open performs the stream/hello handshake and registers the stream
func (r *Receiver) open(conn *websocket.Conn) (*Stream, error) {
	conn.SetReadDeadline(time.Now().Add(helloTimeout))
	var msg protocol.Message
	if err := conn.ReadJSON(&msg); err != nil {
		return nil, fmt.Errorf("failed to read hello: %w", err)
	}
	if msg.Type != protocol.TypeStreamHello {
		r.sendError(conn, "unexpected_message", "expected "+protocol.TypeStreamHello)
		return nil, fmt.Errorf("expected %s, got %s", protocol.TypeStreamHello, msg.Type)
	}

	var hello protocol.StreamHello
	if err := protocol.DecodePayload(msg.Payload, &hello); err != nil {
		r.sendError(conn, "invalid_hello", err.Error())
		return nil, err
	}
	if hello.Version != protocol.Version {
		r.sendError(conn, "unsupported_version", fmt.Sprintf("version %d not supported", hello.Version))
		return nil, fmt.Errorf("unsupported protocol version %d", hello.Version)
	}
	codec, ok := r.codecs[hello.Codec]
	if !ok {
		r.sendError(conn, "unsupported_codec", fmt.Sprintf("codec %q not available", hello.Codec))
		return nil, fmt.Errorf("unsupported codec %q", hello.Codec)
	}
	if hello.Name == "" {
		hello.Name = conn.RemoteAddr().String()
	}

	id := uuid.New().String()
	logger := r.logger.With(zap.String("stream_id", id), zap.String("codec", hello.Codec))
	stream, err := newStream(id, hello, codec, r.config, r.player, logger)
	if err != nil {
		r.sendError(conn, "stream_setup_failed", err.Error())
		return nil, err
	}

	ready := protocol.StreamReady{
		StreamID:   id,
		ReceiverID: r.receiverID,
		Format: protocol.AudioFormat{
			Codec:      hello.Codec,
			Channels:   1,
			SampleRate: stream.dec.SampleRate(),
			BitDepth:   16,
		},
		FrameBytes: codec.Config.FrameBytes,
	}
	if err := r.send(conn, protocol.TypeStreamReady, ready); err != nil {
		stream.finish()
		return nil, fmt.Errorf("failed to send ready: %w", err)
	}

	r.mu.Lock()
	if r.closing {
		r.mu.Unlock()
		stream.finish()
		return nil, fmt.Errorf("receiver shutting down")
	}
	r.streams[id] = &connection{stream: stream, conn: conn}
	r.mu.Unlock()
	metrics.ActiveStreams.Inc()
	metrics.StreamsTotal.WithLabelValues(hello.Codec).Inc()

	logger.Info("stream opened", zap.String("name", hello.Name), zap.Uint16("handle", hello.Handle))
	return stream, nil
}

// serve reads packets until the sender ends the stream or disconnects
func (r *Receiver) serve(conn *websocket.Conn, stream *Stream) {
	for {
		conn.SetReadDeadline(time.Now().Add(idleTimeout))
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				stream.logger.Warn("websocket error", zap.Error(err))
			}
			stream.finish()
			return
		}

		if messageType == websocket.BinaryMessage {
			if err := stream.handlePacket(data); err != nil {
				if errors.Is(err, sco.ErrPrimitiveReset) {
					stream.logger.Error("frame decoder failed", zap.Error(err))
					r.sendError(conn, "decoder_failed", err.Error())
					stream.finish()
					return
				}
				if ce := stream.logger.Check(zap.DebugLevel, "dropping malformed packet"); ce != nil {
					ce.Write(zap.Error(err))
				}
			}
			continue
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			stream.logger.Debug("invalid control message", zap.Error(err))
			continue
		}
		switch msg.Type {
		case protocol.TypeStreamEnd:
			stats := stream.finish()
			if err := r.send(conn, protocol.TypeStreamStats, stats); err != nil {
				stream.logger.Warn("failed to send stats", zap.Error(err))
			}
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		default:
			stream.logger.Debug("unknown message type", zap.String("type", msg.Type))
		}
	}
}

func (r *Receiver) remove(id string) {
	r.mu.Lock()
	_, ok := r.streams[id]
	delete(r.streams, id)
	r.mu.Unlock()
	if ok {
		metrics.ActiveStreams.Dec()
	}
}

// closeAll drops every connection so their handlers finish
func (r *Receiver) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closing = true
	for _, c := range r.streams {
		c.conn.Close()
	}
}

func (r *Receiver) send(conn *websocket.Conn, msgType string, payload interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(protocol.Message{Type: msgType, Payload: payload})
}

func (r *Receiver) sendError(conn *websocket.Conn, code, message string) {
	if err := r.send(conn, protocol.TypeError, protocol.Error{Error: code, Message: message}); err != nil {
		r.logger.Debug("failed to send error", zap.Error(err))
	}
}
