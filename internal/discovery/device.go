package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/dchest/uniuri"
)

// Device is a server found on the network
type Device struct {
	// Instance is the advertised instance name (e.g., "tinyhttp")
	Instance string

	// Hostname is the mDNS hostname (e.g., "esp32.local.")
	Hostname string

	// IP is the first address of the entry, IPv4 preferred
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata holds the TXT records, e.g. "server=TinyHttpServer", "path=/"
	Metadata map[string]string

	// DiscoveredAt is when the answer arrived
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s) at %s", d.Instance, d.Hostname, d.Address())
}

// Address returns host:port, bracketing IPv6 addresses
func (d *Device) Address() string {
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// BaseURL returns the HTTP base URL for the device
func (d *Device) BaseURL() string {
	return "http://" + d.Address() + d.Path()
}

// Path returns the advertised root path, "/" when absent
func (d *Device) Path() string {
	if p := d.GetMetadata("path"); p != "" {
		return p
	}
	return "/"
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}

// instanceChars keeps generated names valid as DNS labels
var instanceChars = []byte("abcdefghijklmnopqrstuvwxyz0123456789")

// NewInstanceName returns "tinyhttp-" plus a random six character suffix,
// so several boards on one network do not collide.
func NewInstanceName() string {
	return "tinyhttp-" + uniuri.NewLenChars(6, instanceChars)
}
