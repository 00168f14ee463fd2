// ABOUTME: Entry point for the SCO receiver
// ABOUTME: Parses CLI flags, sets up logging and runs the receiver with optional TUI
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Sendspin/sco-go/internal/receiver"
	"github.com/Sendspin/sco-go/internal/ui"
	"github.com/Sendspin/sco-go/internal/version"
	"github.com/Sendspin/sco-go/pkg/audio/output"
)

func main() {
	cfg := receiver.LoadConfig()

	flag.StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "Listen address (env SCO_LISTEN_ADDR)")
	flag.StringVar(&cfg.Name, "name", cfg.Name, "Receiver friendly name for mDNS (env SCO_NAME)")
	flag.StringVar(&cfg.RecordDir, "record", cfg.RecordDir, "Directory for WAV recordings of each stream (env SCO_RECORD_DIR)")
	flag.BoolVar(&cfg.Play, "play", cfg.Play, "Play the first active stream on the local audio device (env SCO_PLAY)")
	noMDNS := flag.Bool("no-mdns", !cfg.EnableMDNS, "Disable mDNS advertisement")
	debug := flag.Bool("debug", false, "Enable debug logging")
	logFile := flag.String("log-file", "sco-receiver.log", "Log file path")
	noTUI := flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	flag.Parse()

	cfg.EnableMDNS = !*noMDNS
	cfg.Debug = *debug
	useTUI := !*noTUI

	logger, err := newLogger(*logFile, useTUI, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.RecordDir != "" {
		if err := os.MkdirAll(cfg.RecordDir, 0o755); err != nil {
			logger.Fatal("failed to create record directory", zap.Error(err))
		}
	}

	logger.Info("sco-receiver starting",
		zap.String("version", version.Version),
		zap.String("name", cfg.Name),
		zap.String("listen", cfg.ListenAddr),
		zap.String("record", cfg.RecordDir),
		zap.Bool("play", cfg.Play),
		zap.Bool("mdns", cfg.EnableMDNS))

	opts := []receiver.Option{receiver.WithLogger(logger)}
	if cfg.Play {
		opts = append(opts, receiver.WithOutput(output.NewOto(logger.Named("output"))))
	}
	recv := receiver.New(cfg, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var tui *ui.TUI
	if useTUI {
		controls := ui.NewControls()
		tui = ui.New(cfg.Name, cfg.ListenAddr, controls)
		go func() {
			if err := tui.Start(); err != nil {
				logger.Error("TUI failed", zap.Error(err))
			}
			stop()
		}()
		go handleControls(ctx, stop, recv, controls, logger)
		go statusLoop(ctx, recv, tui)
	}

	if err := recv.Run(ctx); err != nil {
		logger.Error("receiver failed", zap.Error(err))
	}
	if tui != nil {
		tui.Stop()
	}
	logger.Info("receiver stopped")
}

// newLogger writes to the log file, and to stdout when the TUI is off
func newLogger(path string, useTUI, debug bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if debug {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.OutputPaths = []string{path}
	if !useTUI {
		zcfg.OutputPaths = append(zcfg.OutputPaths, "stdout")
	}
	return zcfg.Build()
}

// handleControls applies volume changes from the TUI and stops on quit
func handleControls(ctx context.Context, quit context.CancelFunc, recv *receiver.Receiver, controls *ui.Controls, logger *zap.Logger) {
	for {
		select {
		case vol := <-controls.Changes:
			logger.Debug("volume change", zap.Int("volume", vol.Volume), zap.Bool("muted", vol.Muted))
			recv.SetVolume(vol.Volume)
			recv.SetMuted(vol.Muted)
		case <-controls.Quit:
			logger.Info("quit requested from TUI")
			quit()
			return
		case <-ctx.Done():
			return
		}
	}
}

// statusLoop periodically pushes stream statistics to the TUI
func statusLoop(ctx context.Context, recv *receiver.Receiver, tui *ui.TUI) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			streams := recv.Streams()
			rows := make([]ui.StreamRow, 0, len(streams))
			for _, s := range streams {
				rows = append(rows, ui.StreamRow{
					ID:         s.ID,
					Name:       s.Name,
					Codec:      s.Codec,
					SampleRate: s.SampleRate,
					Packets:    s.Packets,
					Playing:    s.Playing,
					Recording:  s.Recording,
					Stats:      s.Stats,
				})
			}
			tui.Update(ui.StatusMsg{Streams: rows})
		case <-ctx.Done():
			return
		}
	}
}
