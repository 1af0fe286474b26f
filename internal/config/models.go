package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// CurrentVersion is the only config file version this build understands
const CurrentVersion = 1

// ErrUnsupportedVersion is returned when a config file has an unknown version
var ErrUnsupportedVersion = errors.New("unsupported config version")

// File represents the server configuration file.
type File struct {
	Version        int       `yaml:"version"`
	Listen         Listen    `yaml:"listen"`
	Codec          string    `yaml:"codec"`                 // "gobwas" or "gorilla"
	Timeouts       Timeouts  `yaml:"timeouts"`              // Zero disables a timeout
	MaxMessageSize int64     `yaml:"max_message_size"`      // Bytes, 0 = unlimited
	CaptureDir     string    `yaml:"capture_dir,omitempty"` // JSONL capture directory
	Advertise      Advertise `yaml:"advertise"`             // mDNS announcement
	LogLevel       string    `yaml:"log_level"`             // debug, info, warn, error
}

// Listen is the address the server binds
type Listen struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port
func (l Listen) Addr() string {
	return net.JoinHostPort(l.Host, strconv.Itoa(l.Port))
}

// Timeouts holds per-connection deadlines
type Timeouts struct {
	Handshake time.Duration `yaml:"handshake"`
	Idle      time.Duration `yaml:"idle"`
	Write     time.Duration `yaml:"write"`
}

// Advertise controls mDNS service registration
type Advertise struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`
}

// Default returns the built-in configuration
func Default() *File {
	return &File{
		Version: CurrentVersion,
		Listen: Listen{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Codec: "gobwas",
		Timeouts: Timeouts{
			Handshake: 10 * time.Second,
			Idle:      0,
			Write:     10 * time.Second,
		},
		Advertise: Advertise{
			Enabled:  false,
			Instance: "wsecho",
		},
		LogLevel: "info",
	}
}

// Validate checks field ranges. Codec and log level names are checked by the
// packages that consume them.
func (f *File) Validate() error {
	if f.Version != CurrentVersion {
		return fmt.Errorf("%w: %d (expected %d)", ErrUnsupportedVersion, f.Version, CurrentVersion)
	}
	if f.Listen.Port < 0 || f.Listen.Port > 65535 {
		return fmt.Errorf("invalid listen port: %d", f.Listen.Port)
	}
	if f.Timeouts.Handshake < 0 || f.Timeouts.Idle < 0 || f.Timeouts.Write < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if f.MaxMessageSize < 0 {
		return fmt.Errorf("invalid max_message_size: %d", f.MaxMessageSize)
	}
	return nil
}
