package client

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/jobinpa/tinyhttp/internal/device"
	"github.com/jobinpa/tinyhttp/internal/logging"
	"github.com/jobinpa/tinyhttp/internal/version"
)

const (
	// DefaultTimeout bounds one connect-write-read exchange
	DefaultTimeout = 5 * time.Second

	// DefaultMaxRetries is the default number of retry attempts
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the delay before the first retry
	DefaultRetryDelay = 200 * time.Millisecond

	// DefaultMaxRetryDelay caps the exponential backoff
	DefaultMaxRetryDelay = 2 * time.Second

	// maxResponseSize caps how much of a reply is read
	maxResponseSize = 64 << 10
)

// Client talks to a running server. Each call opens a connection, sends
// one request and reads until the server closes, the way the server answers
// every request. The server has a backlog of one, so refused connections
// are retried with exponential backoff.
type Client struct {
	// BaseURL is the server root (e.g., "http://192.168.4.16:80")
	BaseURL string

	Timeout time.Duration

	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// New creates a client for the server at baseURL
func New(baseURL string) *Client {
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		Timeout:       DefaultTimeout,
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// Status fetches /status
func (c *Client) Status(ctx context.Context) (*device.Status, error) {
	body, err := c.get(ctx, "/status")
	if err != nil {
		return nil, err
	}

	var status device.Status
	if err := json.ConfigDefault.Unmarshal(body, &status); err != nil {
		return nil, newParseError("failed to parse status", err)
	}
	return &status, nil
}

// SetColor lights one LED (or none for "off") through the index page
func (c *Client) SetColor(ctx context.Context, color string) error {
	switch color {
	case device.ColorRed, device.ColorGreen, device.ColorBlue, device.ColorOff:
	default:
		return fmt.Errorf("unknown color %q", color)
	}
	_, err := c.get(ctx, "/?color="+url.QueryEscape(color))
	return err
}

// get performs a GET with retries and returns the body of a 200 response
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var lastErr error
	delay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			logging.Debug("Retrying request",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.MaxRetryDelay {
				delay = c.MaxRetryDelay
			}
		}

		body, err := c.getAttempt(ctx, path)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *Client) getAttempt(ctx context.Context, path string) ([]byte, error) {
	target, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	if target.Scheme != "http" || target.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: want http://host[:port]", c.BaseURL)
	}
	addr := target.Host
	if target.Port() == "" {
		addr = net.JoinHostPort(target.Hostname(), "80")
	}
	requestTarget := strings.TrimRight(target.Path, "/") + path

	dialer := net.Dialer{Timeout: c.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyNetworkError("connect to "+addr+" failed", err)
	}
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(c.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := io.WriteString(conn, buildRequest(target.Host, requestTarget)); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyNetworkError("GET "+requestTarget+" failed", err)
	}

	raw, err := io.ReadAll(io.LimitReader(conn, maxResponseSize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyNetworkError("failed to read response", err)
	}

	resp, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}
	if resp.Code != 200 {
		return nil, newHTTPError(resp.Code, resp.Status)
	}
	return resp.Body, nil
}

func buildRequest(host, target string) string {
	var b strings.Builder
	b.WriteString("GET " + target + " HTTP/1.1\r\n")
	b.WriteString("Host: " + host + "\r\n")
	b.WriteString("User-Agent: " + version.UserAgent() + "\r\n")
	b.WriteString("Connection: close\r\n")
	b.WriteString("\r\n")
	return b.String()
}
