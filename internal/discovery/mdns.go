package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/jobinpa/tinyhttp/internal/logging"
)

const (
	// ServiceType is the mDNS service type servers advertise
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."

	// DefaultScanTimeout is the default browse duration
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is assumed when an entry carries no port
	DefaultPort = 80

	// ServerKey and ServerValue form the TXT record that marks our servers
	// among other HTTP services on the network.
	ServerKey   = "server"
	ServerValue = "TinyHttpServer"
)

// Advertiser publishes a running server over mDNS.
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers instance as a _http._tcp service on port. The TXT
// record carries the server marker and the root path.
func Advertise(instance string, port int) (*Advertiser, error) {
	if instance == "" {
		return nil, fmt.Errorf("instance name is required")
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}

	srv, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, TXTRecords(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising over mDNS",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return &Advertiser{server: srv}, nil
}

// TXTRecords returns the TXT records published with each advertisement
func TXTRecords() []string {
	return []string{ServerKey + "=" + ServerValue, "path=/"}
}

// Shutdown withdraws the advertisement. Safe to call on a nil Advertiser.
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	logging.Debug("mDNS advertisement withdrawn")
}

// Scanner browses the local network for servers
type Scanner struct {
	// Timeout is how long to listen for answers
	Timeout time.Duration

	now func() time.Time
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		now:     time.Now,
	}
}

// Scan browses for the scanner's timeout and returns every server found
func (s *Scanner) Scan(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var (
		mu      sync.Mutex
		devices []*Device
		seen    = make(map[string]bool)
	)
	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		for entry := range entries {
			device := s.parseServiceEntry(entry)
			if device == nil {
				continue
			}
			key := device.Address()
			mu.Lock()
			if !seen[key] {
				seen[key] = true
				devices = append(devices, device)
				logging.Debug("Found server", zap.String("device", device.String()))
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return append([]*Device(nil), devices...), nil
}

// Find browses until the named instance answers or the timeout expires
func (s *Scanner) Find(ctx context.Context, instance string) (*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Device, 1)
	go func() {
		for entry := range entries {
			device := s.parseServiceEntry(entry)
			if device != nil && device.Instance == instance {
				select {
				case found <- device:
				default:
				}
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case device := <-found:
		return device, nil
	case <-ctx.Done():
		// A match may have raced the deadline.
		select {
		case device := <-found:
			return device, nil
		default:
		}
		return nil, fmt.Errorf("server %q not found within %s", instance, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf entry to a Device. Entries without the
// server marker or without an address are skipped.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if entry == nil {
		return nil
	}

	metadata := parseTXT(entry.Text)
	if metadata[ServerKey] != ServerValue {
		return nil
	}

	ip := firstIP(entry.AddrIPv4, entry.AddrIPv6)
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	now := time.Now
	if s.now != nil {
		now = s.now
	}

	return &Device{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: now(),
	}
}

// parseTXT splits "key=value" records; a bare key maps to ""
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}
	return metadata
}

// firstIP prefers IPv4
func firstIP(v4, v6 []net.IP) string {
	for _, addr := range v4 {
		if addr != nil {
			return addr.String()
		}
	}
	for _, addr := range v6 {
		if addr != nil {
			return addr.String()
		}
	}
	return ""
}
