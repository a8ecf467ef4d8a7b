package server

import (
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"
)

// ErrMalformedRequest is returned by ParseRequest when the bytes are not valid
// UTF-8 or the request line does not have exactly three tokens.
var ErrMalformedRequest = errors.New("malformed request")

// httpVersionPrefix is the only version family the server answers.
const httpVersionPrefix = "HTTP/1."

// Request is the decoded start line of an HTTP request. Headers and body are
// not parsed. A Request is only produced by ParseRequest and never changes.
type Request struct {
	method  string
	target  string
	version string
}

// Method returns the request method token (e.g. "GET")
func (r *Request) Method() string { return r.method }

// Target returns the request target, typically a path with an optional query string
func (r *Request) Target() string { return r.target }

// Version returns the protocol version token (e.g. "HTTP/1.1")
func (r *Request) Version() string { return r.version }

// Path returns the target without its query string.
func (r *Request) Path() string {
	path, _, _ := strings.Cut(r.target, "?")
	return path
}

// Query returns the decoded query string of the target. Malformed pairs are
// skipped.
func (r *Request) Query() url.Values {
	_, rawQuery, found := strings.Cut(r.target, "?")
	if !found {
		return url.Values{}
	}
	values, _ := url.ParseQuery(rawQuery)
	return values
}

// IsHTTP1 reports whether the version belongs to the HTTP/1.x family.
func (r *Request) IsHTTP1() bool {
	return strings.HasPrefix(r.version, httpVersionPrefix)
}

// String returns the request line as it would appear on the wire
func (r *Request) String() string {
	return r.method + " " + r.target + " " + r.version
}

// ParseRequest decodes the request line from the raw bytes of a single read.
//
// Both "\r\n" and "\n" are accepted as line separators. Only the first line
// is examined; it must split on single spaces into exactly method, target and
// version. Each token is trimmed of surrounding whitespace.
func ParseRequest(data []byte) (*Request, error) {
	if !utf8.Valid(data) {
		return nil, ErrMalformedRequest
	}

	text := strings.ReplaceAll(string(data), "\r", "")
	line, _, _ := strings.Cut(text, "\n")

	tokens := strings.Split(line, " ")
	if len(tokens) != 3 {
		return nil, ErrMalformedRequest
	}

	return &Request{
		method:  strings.TrimSpace(tokens[0]),
		target:  strings.TrimSpace(tokens[1]),
		version: strings.TrimSpace(tokens[2]),
	}, nil
}
