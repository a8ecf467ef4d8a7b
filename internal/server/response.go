package server

import (
	"strconv"
	"strings"
	"time"
)

const (
	// ServerName is sent in the Server header of every response
	ServerName = "TinyHttpServer"

	// DefaultContentType is used when a response has no content type
	DefaultContentType = "text/plain"

	// dateLayout renders "<Day>, <DD> <Mon> <YYYY> <HH>:<MM>:<SS> GMT"
	dateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"
)

// Response is a status line plus an optional text body. Build one with
// NewResponse, WithContent and WithContentType; a Response never changes once built.
type Response struct {
	code          int
	statusMessage string
	content       string
	hasContent    bool
	contentType   string
}

// NewResponse creates a response without a body.
func NewResponse(code int, statusMessage string) *Response {
	return &Response{
		code:          code,
		statusMessage: statusMessage,
	}
}

// WithContent returns a copy of r carrying the given body. An empty
// contentType is sent as text/plain.
func (r *Response) WithContent(contentType, content string) *Response {
	c := *r
	c.content = content
	c.hasContent = true
	c.contentType = contentType
	return &c
}

// WithContentType returns a copy of r declaring contentType without
// attaching a body. Content-Length stays 0 and no blank line is written.
func (r *Response) WithContentType(contentType string) *Response {
	c := *r
	c.contentType = contentType
	return &c
}

// OK is shorthand for a 200 response with a body.
func OK(contentType, content string) *Response {
	return NewResponse(200, "OK").WithContent(contentType, content)
}

// Code returns the HTTP status code
func (r *Response) Code() int { return r.code }

// StatusMessage returns the reason phrase of the status line
func (r *Response) StatusMessage() string { return r.statusMessage }

// Content returns the body and whether one is present
func (r *Response) Content() (string, bool) { return r.content, r.hasContent }

// ContentType returns the declared content type, empty if none was given
func (r *Response) ContentType() string { return r.contentType }

// Responses synthesized by the server itself. None carries a body.
var (
	responseBadRequest          = NewResponse(400, "Bad Request")
	responseNotFound            = NewResponse(404, "Not Found")
	responseInternalServerError = NewResponse(500, "Internal Server Error")
	responseVersionNotSupported = NewResponse(505, "HTTP Version Not Supported")
)

// EncodeResponse serializes r with a Date header computed from now.
//
// The header set and order are fixed:
//
//	HTTP/1.1 <code> <status>\r\n
//	Content-Type: <type or text/plain>\r\n
//	Content-Length: <byte length of body or 0>\r\n
//	Server: TinyHttpServer\r\n
//	Date: <date>\r\n
//	Connection: close\r\n
//	Cache-Control: no-cache\r\n
//
// followed by "\r\n" and the body only when a body is present.
func EncodeResponse(r *Response, now time.Time) []byte {
	contentType := r.contentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	var b strings.Builder
	b.Grow(160 + len(r.content))

	b.WriteString("HTTP/1.1 ")
	b.WriteString(strconv.Itoa(r.code))
	b.WriteByte(' ')
	b.WriteString(r.statusMessage)
	b.WriteString("\r\n")

	writeHeader(&b, "Content-Type", contentType)
	// len of a Go string is its UTF-8 byte length
	writeHeader(&b, "Content-Length", strconv.Itoa(len(r.content)))
	writeHeader(&b, "Server", ServerName)
	writeHeader(&b, "Date", FormatDate(now))
	writeHeader(&b, "Connection", "close")
	writeHeader(&b, "Cache-Control", "no-cache")

	if r.hasContent {
		b.WriteString("\r\n")
		b.WriteString(r.content)
	}

	return []byte(b.String())
}

func writeHeader(b *strings.Builder, name, value string) {
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\r\n")
}

// FormatDate renders t in UTC using three-letter day and month names, e.g.
// "Tue, 15 Nov 1994 08:12:31 GMT".
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
