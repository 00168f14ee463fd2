// ABOUTME: Receiver configuration with environment fallbacks
// ABOUTME: Flags in main override values loaded here
package receiver

import (
	"net"
	"os"
	"strconv"
)

// Config holds receiver configuration
type Config struct {
	ListenAddr string
	Name       string
	RecordDir  string // record each stream to a WAV file when set
	Play       bool   // play the first active stream on the local audio device
	EnableMDNS bool
	Debug      bool
}

// LoadConfig returns defaults overridden by SCO_* environment variables
func LoadConfig() Config {
	hostname, _ := os.Hostname()
	name := "SCO Receiver"
	if hostname != "" {
		name = hostname + " SCO Receiver"
	}
	return Config{
		ListenAddr: getEnv("SCO_LISTEN_ADDR", ":8928"),
		Name:       getEnv("SCO_NAME", name),
		RecordDir:  getEnv("SCO_RECORD_DIR", ""),
		Play:       getEnvBool("SCO_PLAY", false),
		EnableMDNS: getEnvBool("SCO_MDNS", true),
	}
}

// Port returns the numeric port of ListenAddr, or 0 when it has none
func (c Config) Port() int {
	_, p, err := net.SplitHostPort(c.ListenAddr)
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 0
	}
	return port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
