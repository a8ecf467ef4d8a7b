package client

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening on the address
	ErrTypeConnectionRefused
	// ErrTypeHTTP indicates a non-200 status code
	ErrTypeHTTP
	// ErrTypeParse indicates a body that could not be decoded
	ErrTypeParse
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError represents an error that occurred talking to a server
type DeviceError struct {
	Type       ErrorType
	Message    string
	StatusCode int // HTTP status code, for ErrTypeHTTP
	Err        error
	Retryable  bool
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// classifyNetworkError wraps a transport error. Timeouts and refused
// connections are retryable; a board rebooting refuses briefly.
func classifyNetworkError(message string, err error) *DeviceError {
	switch {
	case os.IsTimeout(err):
		return &DeviceError{Type: ErrTypeTimeout, Message: message, Err: err, Retryable: true}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &DeviceError{Type: ErrTypeConnectionRefused, Message: message, Err: err, Retryable: true}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &DeviceError{Type: ErrTypeNetwork, Message: message, Err: err, Retryable: dnsErr.Temporary()}
	}
	return &DeviceError{Type: ErrTypeNetwork, Message: message, Err: err, Retryable: true}
}

// newHTTPError reports an unexpected status. Server errors are retryable.
func newHTTPError(code int, status string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeHTTP,
		Message:    fmt.Sprintf("unexpected status: %s", status),
		StatusCode: code,
		Retryable:  code >= 500 && code != 505,
	}
}

func newParseError(message string, err error) *DeviceError {
	return &DeviceError{Type: ErrTypeParse, Message: message, Err: err}
}

// IsRetryable reports whether err is worth another attempt
func IsRetryable(err error) bool {
	var de *DeviceError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}
