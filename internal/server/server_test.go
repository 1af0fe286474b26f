package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/muurk/wsecho/internal/client"
	"github.com/muurk/wsecho/internal/echo"
)

const testWait = 5 * time.Second

type testServer struct {
	*Server
	url  string
	addr string
	done chan error
}

func startServer(t *testing.T, codec string) *testServer {
	t.Helper()

	srv, err := New(&Config{Host: "127.0.0.1", Port: 0, Codec: codec})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	ts := &testServer{
		Server: srv,
		addr:   ln.Addr().String(),
		url:    "ws://" + ln.Addr().String() + "/",
		done:   make(chan error, 1),
	}
	go func() { ts.done <- srv.Serve(ln) }()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testWait)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return ts
}

func forEachCodec(t *testing.T, fn func(t *testing.T, ts *testServer)) {
	for _, name := range echo.CodecNames() {
		t.Run(name, func(t *testing.T) { fn(t, startServer(t, name)) })
	}
}

func TestEchoScenario(t *testing.T) {
	forEachCodec(t, func(t *testing.T, ts *testServer) {
		c, err := client.Dial(context.Background(), ts.url, testWait)
		if err != nil {
			t.Fatalf("Dial() error = %v", err)
		}

		if _, err := c.Verify(echo.Text("ping")); err != nil {
			t.Errorf("text echo: %v", err)
		}
		if _, err := c.Verify(echo.Binary([]byte{0xDE, 0xAD, 0xBE, 0xEF})); err != nil {
			t.Errorf("binary echo: %v", err)
		}

		code, err := c.Close()
		if err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if code != echo.StatusNormalClosure {
			t.Errorf("close reply code = %d, want %d", code, echo.StatusNormalClosure)
		}
	})
}

func TestConcurrentConnectionsAreIsolated(t *testing.T) {
	const clients, messages = 4, 50

	forEachCodec(t, func(t *testing.T, ts *testServer) {
		ctx, cancel := context.WithTimeout(context.Background(), testWait)
		defer cancel()

		// A client that handshakes and then stays silent must not block the others
		idle, _, err := websocket.Dial(ctx, ts.url, nil)
		if err != nil {
			t.Fatalf("Dial(idle) error = %v", err)
		}
		defer idle.Close(websocket.StatusGoingAway, "")

		var wg sync.WaitGroup
		for i := 0; i < clients; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()

				conn, _, err := websocket.Dial(ctx, ts.url, nil)
				if err != nil {
					t.Errorf("client %d: Dial() error = %v", id, err)
					return
				}
				defer conn.Close(websocket.StatusGoingAway, "")

				for j := 0; j < messages; j++ {
					want := fmt.Sprintf("client-%d-msg-%d", id, j)
					if err := conn.Write(ctx, websocket.MessageText, []byte(want)); err != nil {
						t.Errorf("client %d: Write() error = %v", id, err)
						return
					}
					typ, got, err := conn.Read(ctx)
					if err != nil {
						t.Errorf("client %d: Read() error = %v", id, err)
						return
					}
					if typ != websocket.MessageText || string(got) != want {
						t.Errorf("client %d: got %v %q, want text %q", id, typ, got, want)
						return
					}
				}

				if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil {
					t.Errorf("client %d: Close() error = %v", id, err)
				}
			}(i)
		}
		wg.Wait()
	})
}

func TestServerKeepsAcceptingAfterBadHandshakes(t *testing.T) {
	forEachCodec(t, func(t *testing.T, ts *testServer) {
		// Plain HTTP gets a 4xx
		conn, err := net.DialTimeout("tcp", ts.addr, testWait)
		if err != nil {
			t.Fatalf("Dial() error = %v", err)
		}
		_ = conn.SetDeadline(time.Now().Add(testWait))
		fmt.Fprintf(conn, "GET / HTTP/1.1\r\nHost: %s\r\n\r\n", ts.addr)
		resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
		if err != nil {
			t.Fatalf("ReadResponse() error = %v", err)
		}
		resp.Body.Close()
		conn.Close()
		if resp.StatusCode < 400 || resp.StatusCode >= 500 {
			t.Errorf("plain HTTP status = %d, want 4xx", resp.StatusCode)
		}

		// Garbage gets dropped
		conn, err = net.DialTimeout("tcp", ts.addr, testWait)
		if err != nil {
			t.Fatalf("Dial() error = %v", err)
		}
		_ = conn.SetDeadline(time.Now().Add(testWait))
		_, _ = conn.Write([]byte("\x00\x01\x02garbage\r\n\r\n"))
		_, _ = io.Copy(io.Discard, conn)
		conn.Close()

		c, err := client.Dial(context.Background(), ts.url, testWait)
		if err != nil {
			t.Fatalf("Dial() after bad handshakes error = %v", err)
		}
		defer c.Abort()
		if _, err := c.Verify(echo.Text("still here")); err != nil {
			t.Errorf("Verify() error = %v", err)
		}
	})
}

func TestShutdown(t *testing.T) {
	forEachCodec(t, func(t *testing.T, ts *testServer) {
		c, err := client.Dial(context.Background(), ts.url, testWait)
		if err != nil {
			t.Fatalf("Dial() error = %v", err)
		}
		defer c.Abort()
		if _, err := c.Verify(echo.Text("before")); err != nil {
			t.Fatalf("Verify() error = %v", err)
		}

		deadline := time.Now().Add(testWait)
		for ts.ActiveConnections() != 1 {
			if time.Now().After(deadline) {
				t.Fatalf("ActiveConnections() = %d, want 1", ts.ActiveConnections())
			}
			time.Sleep(10 * time.Millisecond)
		}

		ctx, cancel := context.WithTimeout(context.Background(), testWait)
		defer cancel()
		if err := ts.Shutdown(ctx); err != nil {
			t.Fatalf("Shutdown() error = %v", err)
		}

		select {
		case err := <-ts.done:
			if err != nil {
				t.Errorf("Serve() error = %v, want nil", err)
			}
		case <-time.After(testWait):
			t.Fatal("Serve() did not return after Shutdown")
		}

		if n := ts.ActiveConnections(); n != 0 {
			t.Errorf("ActiveConnections() after Shutdown = %d, want 0", n)
		}
		if _, err := c.Receive(); err == nil {
			t.Error("Receive() after Shutdown succeeded, want error")
		}
		if _, err := net.DialTimeout("tcp", ts.addr, time.Second); err == nil {
			t.Error("Dial() after Shutdown succeeded, want connection refused")
		}
	})
}

func TestListenBindFailure(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer taken.Close()
	port := taken.Addr().(*net.TCPAddr).Port

	srv, err := New(&Config{Host: "127.0.0.1", Port: port})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := srv.Listen(); err == nil {
		t.Fatal("Listen() on a taken port error = nil, want error")
	}
	if srv.Addr() != nil {
		t.Errorf("Addr() = %v, want nil", srv.Addr())
	}
	if err := srv.Run(); err == nil {
		t.Error("Run() without listener error = nil, want error")
	}
}

func TestListenReportsAddr(t *testing.T) {
	srv, err := New(&Config{Host: "127.0.0.1", Port: 0})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer srv.Shutdown(context.Background())

	addr, ok := srv.Addr().(*net.TCPAddr)
	if !ok || addr.Port == 0 {
		t.Errorf("Addr() = %v, want bound TCP address", srv.Addr())
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		target error
	}{
		{"unknown codec", Config{Codec: "fasthttp"}, echo.ErrUnknownCodec},
		{"bad log level", Config{LogLevel: "loud"}, nil},
		{"missing capture dir", Config{CaptureDir: filepath.Join(t.TempDir(), "nope")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&tt.config)
			if err == nil {
				t.Fatal("New() error = nil, want error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("New() error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestConfigAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"127.0.0.1", 8080, "127.0.0.1:8080"},
		{"", 9000, ":9000"},
		{"::1", 80, "[::1]:80"},
	}
	for _, tt := range tests {
		c := Config{Host: tt.host, Port: tt.port}
		if got := c.Addr(); got != tt.want {
			t.Errorf("Addr() = %q, want %q", got, tt.want)
		}
	}
}
