package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// CurrentVersion is the only config file format version understood
const CurrentVersion = 1

// Config represents the entire configuration file.
type Config struct {
	Version   int        `yaml:"version"`
	LogLevel  string     `yaml:"log_level,omitempty"`
	Server    *Server    `yaml:"server"`
	LEDs      *LEDs      `yaml:"leds,omitempty"`
	IndexPage string     `yaml:"index_page,omitempty"` // Path to the page served at "/"; empty uses the built-in page
	Discovery *Discovery `yaml:"discovery,omitempty"`
}

// Server holds the listening socket settings.
type Server struct {
	Host           string `yaml:"host"`             // Empty = all interfaces
	Port           int    `yaml:"port"`             // TCP port
	MaxRequestSize int    `yaml:"max_request_size"` // Bytes read per request
	Backlog        int    `yaml:"backlog"`          // Pending connection queue
}

// LEDs maps each LED color to a GPIO pin number.
type LEDs struct {
	Red   int `yaml:"red"`
	Green int `yaml:"green"`
	Blue  int `yaml:"blue"`
}

// Discovery controls mDNS advertisement of the server.
type Discovery struct {
	Advertise bool   `yaml:"advertise"`
	Instance  string `yaml:"instance"` // mDNS instance name
}

// Default creates a Config with default values.
func Default() *Config {
	return &Config{
		Version:  CurrentVersion,
		LogLevel: "info",
		Server: &Server{
			Host:           "",
			Port:           80,
			MaxRequestSize: 1024,
			Backlog:        1,
		},
		LEDs: &LEDs{
			Red:   18,
			Green: 19,
			Blue:  20,
		},
		Discovery: &Discovery{
			Advertise: true,
			Instance:  "tinyhttp",
		},
	}
}

// ListenAddr returns the host:port the server binds to
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// fillDefaults sets every section that was omitted from the file.
func (c *Config) fillDefaults() {
	def := Default()
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Server == nil {
		c.Server = def.Server
	}
	if c.Server.MaxRequestSize == 0 {
		c.Server.MaxRequestSize = def.Server.MaxRequestSize
	}
	if c.Server.Backlog == 0 {
		c.Server.Backlog = def.Server.Backlog
	}
	if c.LEDs == nil {
		c.LEDs = def.LEDs
	}
	if c.Discovery == nil {
		c.Discovery = def.Discovery
	}
	if c.Discovery.Instance == "" {
		c.Discovery.Instance = def.Discovery.Instance
	}
}

// FieldError describes one invalid setting
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every invalid setting found by Validate
type ValidationError struct {
	Errors []FieldError
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

// Validate checks value ranges. It returns a *ValidationError listing every
// problem, or nil.
func (c *Config) Validate() error {
	var errs []FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Version != CurrentVersion {
		add("version", "unsupported version %d (expected %d)", c.Version, CurrentVersion)
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		add("log_level", "unknown level %q", c.LogLevel)
	}

	if c.Server == nil {
		add("server", "section is required")
	} else {
		if c.Server.Port < 0 || c.Server.Port > 65535 {
			add("server.port", "must be between 0 and 65535, got %d", c.Server.Port)
		}
		if c.Server.MaxRequestSize < 16 || c.Server.MaxRequestSize > 65536 {
			add("server.max_request_size", "must be between 16 and 65536, got %d", c.Server.MaxRequestSize)
		}
		if c.Server.Backlog < 1 {
			add("server.backlog", "must be at least 1, got %d", c.Server.Backlog)
		}
	}

	if c.LEDs != nil {
		pins := map[int]string{}
		for _, led := range []struct {
			name string
			pin  int
		}{{"red", c.LEDs.Red}, {"green", c.LEDs.Green}, {"blue", c.LEDs.Blue}} {
			if led.pin < 0 {
				add("leds."+led.name, "pin must not be negative, got %d", led.pin)
				continue
			}
			if other, taken := pins[led.pin]; taken {
				add("leds."+led.name, "pin %d already used by %s", led.pin, other)
				continue
			}
			pins[led.pin] = led.name
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
