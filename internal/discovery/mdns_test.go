package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func newEntry(instance, host string, port int, v4, v6 []net.IP, text []string) *zeroconf.ServiceEntry {
	entry := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	entry.HostName = host
	entry.Port = port
	entry.AddrIPv4 = v4
	entry.AddrIPv6 = v6
	entry.Text = text
	return entry
}

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
	}{
		{
			name:     "IPv4 service",
			entry:    newEntry("wsecho", "lab.local.", 8080, []net.IP{net.ParseIP("192.168.4.16")}, nil, []string{"codec=gobwas"}),
			wantIP:   "192.168.4.16",
			wantPort: 8080,
		},
		{
			name:     "IPv6 only service",
			entry:    newEntry("wsecho", "lab.local.", 9001, nil, []net.IP{net.ParseIP("fe80::1")}, nil),
			wantIP:   "fe80::1",
			wantPort: 9001,
		},
		{
			name:     "both families (should prefer IPv4)",
			entry:    newEntry("wsecho", "lab.local.", 8080, []net.IP{net.ParseIP("10.0.0.5")}, []net.IP{net.ParseIP("fe80::2")}, nil),
			wantIP:   "10.0.0.5",
			wantPort: 8080,
		},
		{
			name:    "no address",
			entry:   newEntry("wsecho", "lab.local.", 8080, nil, nil, nil),
			wantNil: true,
		},
		{
			name:    "no port",
			entry:   newEntry("wsecho", "lab.local.", 0, []net.IP{net.ParseIP("10.0.0.5")}, nil, nil),
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if svc != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", svc)
				}
				return
			}

			if svc == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil service")
			}
			if svc.IP != tt.wantIP {
				t.Errorf("svc.IP = %v, want %v", svc.IP, tt.wantIP)
			}
			if svc.Port != tt.wantPort {
				t.Errorf("svc.Port = %v, want %v", svc.Port, tt.wantPort)
			}
			if svc.Instance != tt.entry.Instance {
				t.Errorf("svc.Instance = %v, want %v", svc.Instance, tt.entry.Instance)
			}
			if svc.Host != tt.entry.HostName {
				t.Errorf("svc.Host = %v, want %v", svc.Host, tt.entry.HostName)
			}
			if time.Since(svc.DiscoveredAt) > time.Second {
				t.Errorf("svc.DiscoveredAt is not recent: %v", svc.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()

	entry := newEntry("wsecho", "lab.local.", 8080,
		[]net.IP{net.ParseIP("192.168.4.16")}, nil,
		[]string{"codec=gorilla", "version=dev-20250101", "flag", "path=/echo"})

	svc := scanner.parseServiceEntry(entry)
	if svc == nil {
		t.Fatal("parseServiceEntry() = nil, want service")
	}

	want := map[string]string{
		"codec":   "gorilla",
		"version": "dev-20250101",
		"flag":    "",
		"path":    "/echo",
	}
	for k, v := range want {
		if got, ok := svc.Metadata[k]; !ok || got != v {
			t.Errorf("svc.Metadata[%q] = %q (present=%v), want %q", k, got, ok, v)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("NewScanner().Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}
