package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Service represents an echo server found on the network
type Service struct {
	// Instance is the mDNS instance name (e.g., "wsecho-lab")
	Instance string

	// Host is the mDNS hostname (e.g., "lab-box.local.")
	Host string

	// IP is the advertised address, IPv4 preferred
	IP string

	// Port is the TCP port the server listens on
	Port int

	// Metadata contains the TXT record data
	// Fields published by wsecho-server: "codec", "version", "path"
	Metadata map[string]string

	// DiscoveredAt is when the service was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the service
func (s *Service) String() string {
	return fmt.Sprintf("%s (%s) at %s", s.Instance, s.Host, net.JoinHostPort(s.IP, strconv.Itoa(s.Port)))
}

// URL returns the ws:// URL clients should dial
func (s *Service) URL() string {
	path := s.GetMetadata("path")
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("ws://%s%s", net.JoinHostPort(s.IP, strconv.Itoa(s.Port)), path)
}

// Codec returns the codec advertised by the server, if any
func (s *Service) Codec() string {
	return s.GetMetadata("codec")
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Service) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}
