package device

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/json-iterator/go"

	"github.com/jobinpa/tinyhttp/internal/server"
)

func newTestLEDs() *RGB {
	return &RGB{
		Red:   NewMemoryPin(18, "red"),
		Green: NewMemoryPin(19, "green"),
		Blue:  NewMemoryPin(20, "blue"),
	}
}

func mustParse(t *testing.T, line string) *server.Request {
	t.Helper()
	req, err := server.ParseRequest([]byte(line + "\r\n\r\n"))
	if err != nil {
		t.Fatalf("ParseRequest(%q) error = %v", line, err)
	}
	return req
}

func TestLEDHandler(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		start     string
		wantNil   bool
		wantColor string
	}{
		{"index page", "GET / HTTP/1.1", ColorOff, false, ColorOff},
		{"red", "GET /?color=red HTTP/1.1", ColorOff, false, ColorRed},
		{"green replaces red", "GET /?color=green HTTP/1.1", ColorRed, false, ColorGreen},
		{"blue", "GET /?color=blue HTTP/1.1", ColorGreen, false, ColorBlue},
		{"off", "GET /?color=off HTTP/1.1", ColorBlue, false, ColorOff},
		{"unknown color keeps state", "GET /?color=purple HTTP/1.1", ColorRed, false, ColorRed},
		{"other query keeps state", "GET /?x=1 HTTP/1.1", ColorGreen, false, ColorGreen},
		{"other path declined", "GET /favicon.ico HTTP/1.1", ColorOff, true, ColorOff},
		{"POST declined", "POST /?color=red HTTP/1.1", ColorOff, true, ColorOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leds := newTestLEDs()
			if err := leds.SetColor(tt.start); err != nil {
				t.Fatalf("SetColor() error = %v", err)
			}

			resp := NewLEDHandler(leds, "").Handle(mustParse(t, tt.line))

			if tt.wantNil {
				if resp != nil {
					t.Errorf("Handle() = %d, want nil", resp.Code())
				}
			} else {
				if resp == nil {
					t.Fatal("Handle() = nil, want page")
				}
				if resp.Code() != 200 {
					t.Errorf("Code() = %d, want 200", resp.Code())
				}
				if resp.ContentType() != "text/html" {
					t.Errorf("ContentType() = %q, want text/html", resp.ContentType())
				}
				if body, _ := resp.Content(); !strings.Contains(body, "/?color=red") {
					t.Error("page should link to the color switches")
				}
			}

			if got := leds.Color(); got != tt.wantColor {
				t.Errorf("Color() = %q, want %q", got, tt.wantColor)
			}
		})
	}
}

func TestLEDHandler_IndexFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(path, []byte("<p>custom</p>"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	h := NewLEDHandler(newTestLEDs(), path)
	resp := h.Handle(mustParse(t, "GET / HTTP/1.1"))
	if body, _ := resp.Content(); body != "<p>custom</p>" {
		t.Errorf("body = %q, want file content", body)
	}

	// The file is read per request.
	if err := os.WriteFile(path, []byte("<p>edited</p>"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	resp = h.Handle(mustParse(t, "GET / HTTP/1.1"))
	if body, _ := resp.Content(); body != "<p>edited</p>" {
		t.Errorf("body = %q, want edited content", body)
	}
}

func TestLEDHandler_MissingIndexFile(t *testing.T) {
	h := NewLEDHandler(newTestLEDs(), filepath.Join(t.TempDir(), "missing.html"))

	resp := h.Handle(mustParse(t, "GET /?color=red HTTP/1.1"))
	if resp == nil || resp.Code() != 500 {
		t.Fatalf("Handle() = %v, want 500", resp)
	}
	if h.leds.Color() != ColorRed {
		t.Error("color switch should still be applied")
	}
}

func TestStatusHandler(t *testing.T) {
	leds := newTestLEDs()
	if err := leds.SetColor(ColorBlue); err != nil {
		t.Fatalf("SetColor() error = %v", err)
	}

	h := NewStatusHandler(leds)
	start := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	h.started = start
	h.now = func() time.Time { return start.Add(90 * time.Second) }

	resp := h.Handle(mustParse(t, "GET /status HTTP/1.1"))
	if resp == nil {
		t.Fatal("Handle() = nil, want status")
	}
	if resp.ContentType() != "application/json" {
		t.Errorf("ContentType() = %q, want application/json", resp.ContentType())
	}

	body, _ := resp.Content()
	var status Status
	if err := json.ConfigDefault.Unmarshal([]byte(body), &status); err != nil {
		t.Fatalf("Unmarshal(%q) error = %v", body, err)
	}

	if !status.Blue || status.Red || status.Green {
		t.Errorf("status = %+v, want only blue on", status)
	}
	if status.Color != ColorBlue {
		t.Errorf("Color = %q, want blue", status.Color)
	}
	if status.UptimeSeconds != 90 {
		t.Errorf("UptimeSeconds = %d, want 90", status.UptimeSeconds)
	}

	if h.Handle(mustParse(t, "GET /statuses HTTP/1.1")) != nil {
		t.Error("other paths should be declined")
	}
	if h.Handle(mustParse(t, "DELETE /status HTTP/1.1")) != nil {
		t.Error("other methods should be declined")
	}
}

func TestHandlersChained(t *testing.T) {
	leds := newTestLEDs()
	handler := server.Chain(NewLEDHandler(leds, ""), NewStatusHandler(leds))

	if resp := handler.Handle(mustParse(t, "GET /?color=green HTTP/1.1")); resp == nil || resp.ContentType() != "text/html" {
		t.Error("chain should serve the LED page")
	}
	resp := handler.Handle(mustParse(t, "GET /status HTTP/1.1"))
	if resp == nil {
		t.Fatal("chain should serve status")
	}
	if body, _ := resp.Content(); !strings.Contains(body, `"green":true`) {
		t.Errorf("status body = %s, want green on", body)
	}
	if handler.Handle(mustParse(t, "GET /nope HTTP/1.1")) != nil {
		t.Error("chain should decline unknown paths")
	}
}
