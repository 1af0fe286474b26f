package main

import (
	"context"
	"net"
	"testing"
	"unicode/utf8"

	"github.com/muurk/wsecho/internal/echo"
	"github.com/muurk/wsecho/internal/server"
	"github.com/muurk/wsecho/internal/ui"
)

func TestProbeAgainstServer(t *testing.T) {
	for _, codec := range echo.CodecNames() {
		t.Run(codec, func(t *testing.T) {
			srv, err := server.New(&server.Config{Host: "127.0.0.1", Codec: codec})
			if err != nil {
				t.Fatalf("server.New() error = %v", err)
			}
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				t.Fatal(err)
			}
			go srv.Serve(ln)
			defer srv.Shutdown(context.Background())

			probeCount, probeSize = 6, 512
			checks := ui.NewChecklist("a", "b", "c", "d", "e")

			stats, err := probe(context.Background(), "ws://"+ln.Addr().String()+"/", checks)
			if err != nil {
				t.Fatalf("probe() error = %v", err)
			}
			if stats.echoed != 8 {
				t.Errorf("echoed = %d, want 8", stats.echoed)
			}
			if stats.closeCode != echo.StatusNormalClosure {
				t.Errorf("closeCode = %d, want %d", stats.closeCode, echo.StatusNormalClosure)
			}
			if checks.Passed() != 5 {
				t.Errorf("passed checks = %d, want 5\n%s", checks.Passed(), checks)
			}
		})
	}
}

func TestProbeConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	checks := ui.NewChecklist("a", "b", "c", "d", "e")
	if _, err := probe(context.Background(), "ws://"+addr+"/", checks); err == nil {
		t.Fatal("probe() against closed port error = nil, want error")
	}
	if checks.Checks[checkConnect].Status != ui.CheckFailed {
		t.Errorf("connect check = %v, want failed", checks.Checks[checkConnect].Status)
	}
}

func TestRandomMessage(t *testing.T) {
	for i := 0; i < 4; i++ {
		msg, err := randomMessage(i, 64)
		if err != nil {
			t.Fatalf("randomMessage() error = %v", err)
		}
		if len(msg.Payload) != 64 {
			t.Errorf("payload length = %d, want 64", len(msg.Payload))
		}
		wantKind := echo.KindText
		if i%2 == 1 {
			wantKind = echo.KindBinary
		}
		if msg.Kind != wantKind {
			t.Errorf("message %d kind = %s, want %s", i, msg.Kind, wantKind)
		}
		if msg.Kind == echo.KindText && !utf8.Valid(msg.Payload) {
			t.Errorf("message %d text payload is not valid UTF-8", i)
		}
	}
}
