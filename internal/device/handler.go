package device

import (
	_ "embed"
	"os"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/jobinpa/tinyhttp/internal/logging"
	"github.com/jobinpa/tinyhttp/internal/server"
)

//go:embed index.html
var defaultIndexPage string

// LEDHandler serves the control page and switches the LEDs.
//
//	GET /              serve the page
//	GET /?color=red    light red, then serve the page (green, blue, off alike)
//
// An unknown color leaves the LEDs unchanged. Every other request is
// declined.
type LEDHandler struct {
	leds *RGB

	// IndexPath is read on every request when set; otherwise the built-in
	// page is served.
	IndexPath string
}

// NewLEDHandler creates a handler driving leds
func NewLEDHandler(leds *RGB, indexPath string) *LEDHandler {
	return &LEDHandler{leds: leds, IndexPath: indexPath}
}

// Handle implements server.Handler.
func (h *LEDHandler) Handle(req *server.Request) *server.Response {
	if req.Method() != "GET" || req.Path() != "/" {
		return nil
	}

	if color := req.Query().Get("color"); color != "" {
		if err := h.leds.SetColor(color); err != nil {
			logging.Debug("Ignoring color", zap.String("color", color), zap.Error(err))
		}
	}

	page, err := h.indexPage()
	if err != nil {
		logging.Error("Failed to read index page",
			zap.String("path", h.IndexPath),
			zap.Error(err),
		)
		return server.NewResponse(500, "Internal Server Error")
	}

	return server.OK("text/html", page)
}

func (h *LEDHandler) indexPage() (string, error) {
	if h.IndexPath == "" {
		return defaultIndexPage, nil
	}
	data, err := os.ReadFile(h.IndexPath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Status is the JSON document served at /status
type Status struct {
	Red           bool   `json:"red"`
	Green         bool   `json:"green"`
	Blue          bool   `json:"blue"`
	Color         string `json:"color"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// StatusHandler reports the LED levels and uptime at GET /status.
type StatusHandler struct {
	leds    *RGB
	started time.Time
	now     func() time.Time
}

// NewStatusHandler creates a status handler; uptime counts from now
func NewStatusHandler(leds *RGB) *StatusHandler {
	return &StatusHandler{
		leds:    leds,
		started: time.Now(),
		now:     time.Now,
	}
}

// Handle implements server.Handler.
func (h *StatusHandler) Handle(req *server.Request) *server.Response {
	if req.Method() != "GET" || req.Path() != "/status" {
		return nil
	}

	status := Status{
		Red:           h.leds.Red.IsOn(),
		Green:         h.leds.Green.IsOn(),
		Blue:          h.leds.Blue.IsOn(),
		Color:         h.leds.Color(),
		UptimeSeconds: int64(h.now().Sub(h.started) / time.Second),
	}

	body, err := json.ConfigDefault.Marshal(status)
	if err != nil {
		logging.Error("Failed to encode status", zap.Error(err))
		return server.NewResponse(500, "Internal Server Error")
	}

	return server.OK("application/json", string(body))
}
