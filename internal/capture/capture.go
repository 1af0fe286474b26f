// Package capture writes a JSON Lines transcript of echoed WebSocket traffic.
//
// Each line is one Entry. A capture file is opened per server run and named
// after the start time:
//
//	capture-20250101-120000.jsonl
//
// A nil *Recorder is valid and discards everything, so callers never need to
// check whether capture is enabled.
package capture

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Directions of captured traffic
const (
	DirectionIn  = "client->server"
	DirectionOut = "server->client"
)

// Entry is one captured message
type Entry struct {
	Timestamp    time.Time `json:"timestamp"`
	ConnID       string    `json:"conn_id"`
	RemoteAddr   string    `json:"remote_addr"`
	Direction    string    `json:"direction"`
	Kind         string    `json:"kind"`
	PayloadLen   int       `json:"payload_length"`
	PayloadHex   string    `json:"payload_hex"`
	PayloadASCII string    `json:"payload_ascii"`
}

// NewEntry builds an Entry stamped with the current time
func NewEntry(connID, remoteAddr, direction, kind string, payload []byte) Entry {
	return Entry{
		Timestamp:    time.Now(),
		ConnID:       connID,
		RemoteAddr:   remoteAddr,
		Direction:    direction,
		Kind:         kind,
		PayloadLen:   len(payload),
		PayloadHex:   hex.EncodeToString(payload),
		PayloadASCII: toASCII(payload),
	}
}

// Recorder appends entries to a capture file. Safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	path string
	f    *os.File
	enc  *json.Encoder
}

// New opens a new capture file in dir. The directory must already exist.
func New(dir string) (*Recorder, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot access capture directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("capture path is not a directory: %s", dir)
	}

	path := filepath.Join(dir, fmt.Sprintf("capture-%s.jsonl", time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}

	return &Recorder{path: path, f: f, enc: json.NewEncoder(f)}, nil
}

// Path returns the capture file path
func (r *Recorder) Path() string {
	if r == nil {
		return ""
	}
	return r.path
}

// Record appends e as one JSON line. Write failures are returned but never
// affect the connection being captured.
func (r *Recorder) Record(e Entry) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return os.ErrClosed
	}
	return r.enc.Encode(e)
}

// Close closes the capture file
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

// toASCII converts bytes to ASCII string (non-printable chars become '.')
func toASCII(data []byte) string {
	result := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b <= 126 {
			result[i] = b
		} else {
			result[i] = '.'
		}
	}
	return string(result)
}
