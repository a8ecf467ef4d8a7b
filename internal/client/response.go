package client

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Response is a reply as read off the wire
type Response struct {
	Code   int
	Status string // e.g. "404 Not Found"
	Body   []byte
}

// parseResponse reads a complete reply. The server omits the blank line
// after the headers when there is no body, so a reply may end right after
// its last header line.
func parseResponse(raw []byte) (*Response, error) {
	if len(raw) == 0 {
		return nil, &DeviceError{Type: ErrTypeNetwork, Message: "empty reply", Retryable: true}
	}

	head, body, hasBody := bytes.Cut(raw, []byte("\r\n\r\n"))
	lines := strings.Split(strings.TrimSuffix(string(head), "\r\n"), "\r\n")

	proto, status, ok := strings.Cut(lines[0], " ")
	if !ok || !strings.HasPrefix(proto, "HTTP/1.") {
		return nil, newParseError(fmt.Sprintf("malformed status line %q", lines[0]), nil)
	}
	codeText, _, _ := strings.Cut(status, " ")
	code, err := strconv.Atoi(codeText)
	if err != nil || len(codeText) != 3 {
		return nil, newParseError(fmt.Sprintf("malformed status code %q", codeText), err)
	}

	resp := &Response{Code: code, Status: status}
	if !hasBody {
		return resp, nil
	}

	length := -1
	for _, line := range lines[1:] {
		name, value, _ := strings.Cut(line, ":")
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return nil, newParseError(fmt.Sprintf("malformed Content-Length %q", value), err)
			}
			length = n
		}
	}

	switch {
	case length < 0:
		resp.Body = body
	case len(body) < length:
		return nil, &DeviceError{
			Type:      ErrTypeNetwork,
			Message:   fmt.Sprintf("body truncated: got %d of %d bytes", len(body), length),
			Retryable: true,
		}
	default:
		resp.Body = body[:length]
	}
	return resp, nil
}
