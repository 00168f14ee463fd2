// ABOUTME: mDNS service discovery for SCO receivers
// ABOUTME: Handles advertisement by receivers and browsing by senders
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"go.uber.org/zap"
)

// ServiceType is the DNS-SD type receivers advertise
const ServiceType = "_sco-receiver._tcp"

const browseTimeout = 3 * time.Second

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Path        string   // websocket path, advertised as a TXT record
	Codecs      []string // codec names accepted by the receiver
	Logger      *zap.Logger
}

// Manager handles mDNS operations
type Manager struct {
	config    Config
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	receivers chan *ReceiverInfo
}

// ReceiverInfo describes a discovered receiver
type ReceiverInfo struct {
	Name   string
	Host   string
	Port   int
	Path   string
	Codecs []string
}

// Addr returns host:port
func (r *ReceiverInfo) Addr() string {
	return net.JoinHostPort(r.Host, fmt.Sprint(r.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		config:    config,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		receivers: make(chan *ReceiverInfo, 10),
	}
}

// Advertise advertises this receiver via mDNS
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		txtRecords(m.config.Path, m.config.Codecs),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.logger.Info("advertising mDNS service",
		zap.String("name", m.config.ServiceName),
		zap.Int("port", m.config.Port),
		zap.String("type", ServiceType))

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for receivers until Stop is called
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop continuously browses for receivers
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for entry := range entries {
				info := entryInfo(entry)
				if info == nil {
					continue
				}

				m.logger.Debug("discovered receiver",
					zap.String("name", info.Name),
					zap.String("addr", info.Addr()))

				select {
				case m.receivers <- info:
				case <-m.ctx.Done():
				}
			}
		}()

		params := &mdns.QueryParam{
			Service:     ServiceType,
			Domain:      "local",
			Timeout:     browseTimeout,
			Entries:     entries,
			DisableIPv6: true,
		}

		if err := mdns.Query(params); err != nil {
			m.logger.Warn("mDNS query failed", zap.Error(err))
		}
		close(entries)
		<-done
	}
}

// Receivers returns the channel of discovered receivers
func (m *Manager) Receivers() <-chan *ReceiverInfo {
	return m.receivers
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

func txtRecords(path string, codecs []string) []string {
	var txt []string
	if path != "" {
		txt = append(txt, "path="+path)
	}
	if len(codecs) > 0 {
		txt = append(txt, "codecs="+strings.Join(codecs, ","))
	}
	return txt
}

func entryInfo(entry *mdns.ServiceEntry) *ReceiverInfo {
	if entry.AddrV4 == nil {
		return nil
	}
	info := &ReceiverInfo{
		Name: strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Host: entry.AddrV4.String(),
		Port: entry.Port,
	}
	for _, field := range entry.InfoFields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "path":
			info.Path = value
		case "codecs":
			info.Codecs = strings.Split(value, ",")
		}
	}
	return info
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
