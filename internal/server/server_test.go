package server

import (
	"context"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jobinpa/tinyhttp/internal/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testTimeout = 5 * time.Second

// startServer runs srv.Start in the background and waits until it listens.
// The returned channel yields Start's result once the accept loop exits.
func startServer(t *testing.T, srv *Server) <-chan error {
	t.Helper()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	deadline := time.Now().Add(testTimeout)
	for srv.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not start listening")
		}
		select {
		case err := <-errCh:
			t.Fatalf("Start() returned early: %v", err)
		case <-time.After(5 * time.Millisecond):
		}
	}
	return errCh
}

func newTestServer(t *testing.T, handler Handler) *Server {
	t.Helper()

	srv, err := New(&Config{Host: "127.0.0.1", Port: 0}, handler)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

// waitStopped waits for Start to return after Stop.
func waitStopped(t *testing.T, errCh <-chan error) {
	t.Helper()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(testTimeout):
		t.Fatal("accept loop did not exit after Stop()")
	}
}

// exchange sends raw bytes on a new connection and reads until the server
// closes it.
func exchange(t *testing.T, addr net.Addr, raw string) string {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr.String(), testTimeout)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(testTimeout)); err != nil {
		t.Fatalf("SetDeadline() error = %v", err)
	}
	if _, err := conn.Write([]byte(raw)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	data, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return string(data)
}

func statusHandler() Handler {
	return HandlerFunc(func(req *Request) *Response {
		if req.Method() == "GET" && req.Path() == "/status" {
			return OK("application/json", `{"red":false}`)
		}
		return nil
	})
}

func TestServer_EndToEnd(t *testing.T) {
	srv := newTestServer(t, statusHandler())
	errCh := startServer(t, srv)
	defer waitStopped(t, errCh)
	defer srv.Stop()

	if srv.State() != StateRunning {
		t.Errorf("State() = %v, want running", srv.State())
	}

	for i := 0; i < 2; i++ {
		got := exchange(t, srv.Addr(), "GET /status HTTP/1.1\r\n\r\n")

		if !strings.HasPrefix(got, "HTTP/1.1 200 OK\r\n") {
			t.Fatalf("request %d: status line in %q", i, got)
		}
		if !strings.Contains(got, "Content-Type: application/json\r\n") {
			t.Errorf("request %d: missing JSON content type in %q", i, got)
		}
		if !strings.HasSuffix(got, "\r\n\r\n{\"red\":false}") {
			t.Errorf("request %d: body missing in %q", i, got)
		}
	}
}

func TestServer_ErrorResponses(t *testing.T) {
	srv := newTestServer(t, statusHandler())
	errCh := startServer(t, srv)
	defer waitStopped(t, errCh)
	defer srv.Stop()

	tests := []struct {
		name       string
		raw        string
		wantStatus string
	}{
		{"malformed", "GET /status\r\n\r\n", "HTTP/1.1 400 Bad Request\r\n"},
		{"extra token", "GET /status HTTP/1.1 now\r\n\r\n", "HTTP/1.1 400 Bad Request\r\n"},
		{"HTTP/2", "GET /status HTTP/2.0\r\n\r\n", "HTTP/1.1 505 HTTP Version Not Supported\r\n"},
		{"garbage version", "GET /status FOO\r\n\r\n", "HTTP/1.1 505 HTTP Version Not Supported\r\n"},
		{"declined", "GET /nowhere HTTP/1.1\r\n\r\n", "HTTP/1.1 404 Not Found\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exchange(t, srv.Addr(), tt.raw)

			if !strings.HasPrefix(got, tt.wantStatus) {
				t.Errorf("response %q, want status %q", got, tt.wantStatus)
			}
			if !strings.Contains(got, "Content-Length: 0\r\n") {
				t.Errorf("response %q should declare an empty body", got)
			}
			if strings.Contains(got, "\r\n\r\n") {
				t.Errorf("response %q should not carry a body section", got)
			}
		})
	}
}

func TestServer_HandlerPanicKeepsServing(t *testing.T) {
	handler := HandlerFunc(func(req *Request) *Response {
		if req.Path() == "/panic" {
			panic("handler failure")
		}
		return OK("", "alive")
	})

	srv := newTestServer(t, handler)
	errCh := startServer(t, srv)
	defer waitStopped(t, errCh)
	defer srv.Stop()

	got := exchange(t, srv.Addr(), "GET /panic HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(got, "HTTP/1.1 500 Internal Server Error\r\n") {
		t.Errorf("response %q, want 500", got)
	}

	got = exchange(t, srv.Addr(), "GET / HTTP/1.1\r\n\r\n")
	if !strings.HasSuffix(got, "alive") {
		t.Errorf("server should keep serving after a panic, got %q", got)
	}
}

func TestServer_StopBeforeStartIsNoop(t *testing.T) {
	srv := newTestServer(t, statusHandler())

	srv.Stop()
	srv.Stop()

	if srv.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", srv.State())
	}
	if srv.Addr() != nil {
		t.Errorf("Addr() = %v, want nil", srv.Addr())
	}
}

func TestServer_StartWhileRunningIsNoop(t *testing.T) {
	srv := newTestServer(t, statusHandler())
	errCh := startServer(t, srv)
	defer waitStopped(t, errCh)
	defer srv.Stop()

	addr := srv.Addr().String()

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("second Start() error = %v, want nil", err)
		}
	case <-time.After(testTimeout):
		t.Fatal("second Start() should return immediately")
	}

	if srv.Addr().String() != addr {
		t.Errorf("Addr() = %v, want %v", srv.Addr(), addr)
	}
	if srv.State() != StateRunning {
		t.Errorf("State() = %v, want running", srv.State())
	}
}

func TestServer_StopReleasesSocket(t *testing.T) {
	srv := newTestServer(t, statusHandler())
	errCh := startServer(t, srv)

	addr := srv.Addr().String()

	// The port is taken while running.
	if ln, err := net.Listen("tcp", addr); err == nil {
		ln.Close()
		t.Fatal("binding the server port should fail while running")
	}

	srv.Stop()
	waitStopped(t, errCh)

	if srv.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", srv.State())
	}
	if srv.Addr() != nil {
		t.Errorf("Addr() = %v, want nil after Stop()", srv.Addr())
	}

	if conn, err := net.DialTimeout("tcp", addr, time.Second); err == nil {
		conn.Close()
		t.Error("connection should be refused after Stop()")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		t.Fatalf("port should be free after Stop(): %v", err)
	}
	ln.Close()

	// Idempotent
	srv.Stop()
}

func TestServer_Restart(t *testing.T) {
	srv := newTestServer(t, statusHandler())

	errCh := startServer(t, srv)
	srv.Stop()
	waitStopped(t, errCh)

	errCh = startServer(t, srv)
	defer waitStopped(t, errCh)
	defer srv.Stop()

	got := exchange(t, srv.Addr(), "GET /status HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(got, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("restarted server response %q, want 200", got)
	}
}

func TestServer_BindFailure(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer occupied.Close()

	port := occupied.Addr().(*net.TCPAddr).Port
	srv, err := New(&Config{Host: "127.0.0.1", Port: port}, statusHandler())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Start() should fail when the port is taken")
		}
	case <-time.After(testTimeout):
		srv.Stop()
		t.Fatal("Start() should return the bind error")
	}

	if srv.State() != StateStopped {
		t.Errorf("State() = %v, want stopped after a bind failure", srv.State())
	}
}

func TestServer_ShutdownIsNotAFault(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logging.SetLogger(zap.New(core))
	defer logging.SetLogger(nil)

	srv := newTestServer(t, statusHandler())
	errCh := startServer(t, srv)

	exchange(t, srv.Addr(), "GET /status HTTP/1.1\r\n\r\n")

	srv.Stop()
	waitStopped(t, errCh)

	for _, entry := range logs.All() {
		if entry.Level >= zapcore.WarnLevel {
			t.Errorf("unexpected %v log during shutdown: %s %v", entry.Level, entry.Message, entry.ContextMap())
		}
	}
	if logs.FilterMessage("TinyHttpServer stopped").Len() != 1 {
		t.Error("expected exactly one stop message")
	}
}

func TestServer_StopFromHandlerDropsResponse(t *testing.T) {
	var srv *Server
	srv = newTestServer(t, HandlerFunc(func(*Request) *Response {
		srv.Stop()
		return OK("", "late")
	}))
	errCh := startServer(t, srv)
	addr := srv.Addr()

	got := exchange(t, addr, "GET / HTTP/1.1\r\n\r\n")
	if got != "" {
		t.Errorf("received %q, want no response once stopping", got)
	}

	waitStopped(t, errCh)
}

type countingConnServer struct {
	served atomic.Int32
}

func (c *countingConnServer) ServeConn(_ context.Context, conn net.Conn) error {
	c.served.Add(1)
	buf := make([]byte, 64)
	if _, err := conn.Read(buf); err != nil {
		return err
	}
	_, err := conn.Write([]byte("custom"))
	return err
}

func TestNewWithConnServer(t *testing.T) {
	conns := &countingConnServer{}
	srv, err := NewWithConnServer(&Config{Host: "127.0.0.1"}, conns)
	if err != nil {
		t.Fatalf("NewWithConnServer() error = %v", err)
	}

	errCh := startServer(t, srv)
	defer waitStopped(t, errCh)
	defer srv.Stop()

	if got := exchange(t, srv.Addr(), "anything"); got != "custom" {
		t.Errorf("received %q, want custom", got)
	}
	if conns.served.Load() != 1 {
		t.Errorf("served = %d, want 1", conns.served.Load())
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(&Config{}, nil); err == nil {
		t.Error("New() should reject a nil handler")
	}
	if _, err := New(nil, statusHandler()); err == nil {
		t.Error("New() should reject a nil config")
	}
	if _, err := New(&Config{Port: 70000}, statusHandler()); err == nil {
		t.Error("New() should reject an out of range port")
	}
	if _, err := NewWithConnServer(&Config{}, nil); err == nil {
		t.Error("NewWithConnServer() should reject a nil connection server")
	}

	srv, err := New(&Config{Port: 8080}, statusHandler())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if srv.config.MaxRequestSize != DefaultMaxRequestSize {
		t.Errorf("MaxRequestSize = %d, want %d", srv.config.MaxRequestSize, DefaultMaxRequestSize)
	}
	if srv.config.Backlog != DefaultBacklog {
		t.Errorf("Backlog = %d, want %d", srv.config.Backlog, DefaultBacklog)
	}
}

func TestConfig_Addr(t *testing.T) {
	tests := []struct {
		config Config
		want   string
	}{
		{Config{Host: "", Port: 80}, ":80"},
		{Config{Host: "192.168.4.1", Port: 8080}, "192.168.4.1:8080"},
		{Config{Host: "::1", Port: 80}, "[::1]:80"},
	}

	for _, tt := range tests {
		if got := tt.config.Addr(); got != tt.want {
			t.Errorf("Addr() = %q, want %q", got, tt.want)
		}
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "stopped"},
		{StateStarting, "starting"},
		{StateRunning, "running"},
		{StateStopping, "stopping"},
		{State(9), "State(9)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestNextRetryDelay(t *testing.T) {
	delay := nextRetryDelay(0)
	if delay != minAcceptRetryDelay {
		t.Errorf("first delay = %v, want %v", delay, minAcceptRetryDelay)
	}
	for i := 0; i < 20; i++ {
		delay = nextRetryDelay(delay)
	}
	if delay != maxAcceptRetryDelay {
		t.Errorf("delay = %v, want cap %v", delay, maxAcceptRetryDelay)
	}
}
