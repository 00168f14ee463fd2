// ABOUTME: SCO link simulator
// ABOUTME: Packetizes file or tone audio as CVSD over HCI, impairs it and decodes locally or streams to a receiver
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Sendspin/sco-go/internal/client"
	"github.com/Sendspin/sco-go/internal/discovery"
	"github.com/Sendspin/sco-go/internal/hci"
	"github.com/Sendspin/sco-go/internal/impair"
	"github.com/Sendspin/sco-go/internal/protocol"
	"github.com/Sendspin/sco-go/internal/source"
	"github.com/Sendspin/sco-go/internal/version"
	"github.com/Sendspin/sco-go/pkg/audio"
	"github.com/Sendspin/sco-go/pkg/audio/encode"
	"github.com/Sendspin/sco-go/pkg/audio/wavfile"
	"github.com/Sendspin/sco-go/pkg/sco"
)

const voiceRate = 8000

var (
	audioFile     = flag.String("audio", "", "Audio file to send (MP3, FLAC, WAV). If not specified, sends a test tone")
	toneSeconds   = flag.Float64("tone-seconds", 10, "Test tone duration in seconds")
	serverAddr    = flag.String("server", "", "Receiver address (host:port). Empty decodes locally")
	discover      = flag.Bool("discover", false, "Find a receiver with mDNS instead of -server")
	outFile       = flag.String("out", "sco-sim.wav", "WAV file for local decoding")
	name          = flag.String("name", "", "Stream name reported to the receiver")
	handle        = flag.Uint("handle", 1, "HCI connection handle")
	packetSize    = flag.Int("packet-size", 60, "HCI SCO payload bytes per packet")
	realtime      = flag.Bool("realtime", true, "Pace packets at the voice sample rate when streaming")
	corruptEvery  = flag.Int("corrupt-every", 0, "Corrupt every Nth packet")
	zeroEvery     = flag.Int("zero-every", 0, "Replace every Nth packet with a no-data packet")
	dropEvery     = flag.Int("drop-every", 0, "Drop every Nth packet")
	truncateEvery = flag.Int("truncate-every", 0, "Truncate every Nth packet to half its payload")
	lossRate      = flag.Float64("loss", 0, "Random packet loss probability")
	seed          = flag.Uint64("seed", 1, "Seed for random loss")
	debug         = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// packetSink receives impaired packets
type packetSink interface {
	send(p hci.Packet) error
	finish() error
}

func run(ctx context.Context, logger *zap.Logger) error {
	if *handle > 0x0fff {
		return fmt.Errorf("handle %d exceeds 12 bits", *handle)
	}

	src, err := source.Open(*audioFile, *toneSeconds, logger)
	if err != nil {
		return err
	}
	voice := source.NewVoice(src, voiceRate)
	defer voice.Close()

	impairCfg := impair.Config{
		CorruptEvery:  *corruptEvery,
		ZeroEvery:     *zeroEvery,
		DropEvery:     *dropEvery,
		TruncateEvery: *truncateEvery,
		LossRate:      *lossRate,
		Seed:          *seed,
	}
	im, err := impair.New(impairCfg)
	if err != nil {
		return err
	}

	format := audio.Format{Codec: audio.CodecCVSD, SampleRate: voiceRate, Channels: 1, BitDepth: 16}
	enc, err := encode.NewPCM(format)
	if err != nil {
		return err
	}
	defer enc.Close()

	var sink packetSink
	addr := *serverAddr
	if addr == "" && *discover {
		if addr, err = findReceiver(ctx, logger); err != nil {
			return err
		}
	}
	if addr != "" {
		sink, err = newRemoteSink(ctx, addr, logger)
	} else {
		sink, err = newLocalSink(*outFile, logger)
	}
	if err != nil {
		return err
	}

	logger.Info("simulating SCO link",
		zap.String("source", voice.Name()),
		zap.Int("packet_size", *packetSize),
		zap.Bool("impaired", impairCfg.Enabled()))

	frameSamples := sco.CVSDConfig().FrameSamples
	pcm := make([]int16, frameSamples)
	samples := make([]int32, frameSamples)
	frameDuration := format.FrameDuration(frameSamples)

	var ticker *time.Ticker
	if *realtime && addr != "" {
		ticker = time.NewTicker(frameDuration)
		defer ticker.Stop()
	}

	for {
		n, err := voice.Read(pcm)
		if n > 0 {
			for i := 0; i < n; i++ {
				samples[i] = audio.SampleFromInt16(pcm[i])
			}
			data, encErr := enc.Encode(samples[:n])
			if encErr != nil {
				return encErr
			}
			packets, splitErr := hci.Split(uint16(*handle), data, *packetSize)
			if splitErr != nil {
				return splitErr
			}
			for _, p := range packets {
				out, ok := im.Apply(p)
				if !ok {
					continue
				}
				if sendErr := sink.send(out); sendErr != nil {
					return sendErr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read source: %w", err)
		}

		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return sink.finish()
			}
		} else if ctx.Err() != nil {
			return sink.finish()
		}
	}

	st := im.Stats()
	logger.Info("link impairments",
		zap.Int("packets", st.Packets),
		zap.Int("dropped", st.Dropped),
		zap.Int("zeroed", st.Zeroed),
		zap.Int("truncated", st.Truncated),
		zap.Int("corrupted", st.Corrupted))

	return sink.finish()
}

func findReceiver(ctx context.Context, logger *zap.Logger) (string, error) {
	mgr := discovery.NewManager(discovery.Config{Logger: logger})
	if err := mgr.Browse(); err != nil {
		return "", err
	}
	defer mgr.Stop()

	logger.Info("searching for receivers")
	select {
	case info := <-mgr.Receivers():
		logger.Info("found receiver", zap.String("name", info.Name), zap.String("addr", info.Addr()))
		return info.Addr(), nil
	case <-time.After(10 * time.Second):
		return "", fmt.Errorf("no receiver found")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// localSink runs the receive path in process and records to WAV
type localSink struct {
	dec    *sco.Decoder
	wav    *wavfile.Writer
	path   string
	logger *zap.Logger
}

func newLocalSink(path string, logger *zap.Logger) (*localSink, error) {
	wav, err := wavfile.Create(path, voiceRate, 1)
	if err != nil {
		return nil, err
	}
	cfg := sco.CVSDConfig()
	dec, err := sco.New(cfg, sco.NewPCMDecoder(voiceRate, cfg.FrameSamples), wav, sco.WithLogger(logger.Named("sco")))
	if err != nil {
		wav.Close()
		return nil, err
	}
	return &localSink{dec: dec, wav: wav, path: path, logger: logger}, nil
}

func (s *localSink) send(p hci.Packet) error {
	return s.dec.Push(p.Payload, p.Corrupted())
}

func (s *localSink) finish() error {
	s.logger.Info("decode finished",
		zap.String("wav", s.path),
		zap.Int64("samples", s.wav.Samples()),
		zap.Object("stats", s.dec.Stats()))
	return s.wav.Close()
}

// remoteSink streams packets to a receiver
type remoteSink struct {
	client *client.Client
	logger *zap.Logger
}

func newRemoteSink(ctx context.Context, addr string, logger *zap.Logger) (*remoteSink, error) {
	streamName := *name
	if streamName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		streamName = fmt.Sprintf("%s-sco-sim", hostname)
	}

	c := client.NewClient(client.Config{
		ServerAddr: addr,
		Name:       streamName,
		Codec:      audio.CodecCVSD,
		Handle:     uint16(*handle),
		DeviceInfo: &protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
		Logger: logger.Named("client"),
	})
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	ready := c.Ready()
	logger.Info("stream opened",
		zap.String("receiver", addr),
		zap.String("stream_id", ready.StreamID),
		zap.Int("sample_rate", ready.Format.SampleRate))
	return &remoteSink{client: c, logger: logger}, nil
}

func (s *remoteSink) send(p hci.Packet) error {
	return s.client.SendPacket(p)
}

func (s *remoteSink) finish() error {
	defer s.client.Close()
	stats, err := s.client.End("eof")
	if err != nil {
		return err
	}
	s.logger.Info("receiver statistics",
		zap.String("stream_id", stats.StreamID),
		zap.Int("packets", stats.Packets),
		zap.Int("good", stats.GoodFrames),
		zap.Int("bad", stats.BadFrames),
		zap.Int("zero", stats.ZeroFrames),
		zap.Int("concealed", stats.ConcealedFrames),
		zap.Int("lost_bytes", stats.LostBytes),
		zap.Int("max_consecutive_bad", stats.MaxConsecutiveBad))
	return nil
}
