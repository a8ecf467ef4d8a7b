package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/jobinpa/tinyhttp/internal/logging"
	"go.uber.org/zap"
)

// ConnServer processes one accepted connection from its first read to its
// last write. The caller owns the connection and closes it afterwards.
//
// ctx is canceled when the server leaves the running state; implementations
// must not write a response once it is done.
type ConnServer interface {
	ServeConn(ctx context.Context, conn net.Conn) error
}

// Pipeline is the default ConnServer: one bounded read, parse, dispatch to a
// Handler, encode and one write.
type Pipeline struct {
	handler        Handler
	maxRequestSize int
	now            func() time.Time
}

// NewPipeline creates a pipeline reading at most maxRequestSize bytes per
// request. Larger requests are truncated, not rejected.
func NewPipeline(handler Handler, maxRequestSize int) *Pipeline {
	if maxRequestSize <= 0 {
		maxRequestSize = DefaultMaxRequestSize
	}
	return &Pipeline{
		handler:        handler,
		maxRequestSize: maxRequestSize,
		now:            time.Now,
	}
}

// ServeConn implements ConnServer.
func (p *Pipeline) ServeConn(ctx context.Context, conn net.Conn) error {
	remoteAddr := conn.RemoteAddr().String()

	buf := make([]byte, p.maxRequestSize)
	n, err := conn.Read(buf)
	// A peer that closes without sending anything gets a 400 like any other
	// unparseable request.
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read request: %w", err)
	}

	data := buf[:n]
	logging.LogRawBytes("Request bytes", data)

	resp := p.respond(remoteAddr, data)

	if ctx.Err() != nil {
		logging.Debug("Server is stopping, response dropped",
			zap.String("remote_addr", remoteAddr),
			zap.Int("status_code", resp.code),
		)
		return nil
	}

	encoded := EncodeResponse(resp, p.now())
	written, err := conn.Write(encoded)
	if err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	logging.LogHTTPResponse(remoteAddr, resp.code, resp.statusMessage, written)
	return nil
}

// respond maps raw request bytes to the response that must be sent.
func (p *Pipeline) respond(remoteAddr string, data []byte) *Response {
	req, err := ParseRequest(data)
	if err != nil {
		logging.Info("Invalid request",
			zap.String("remote_addr", remoteAddr),
			zap.Int("length", len(data)),
		)
		return responseBadRequest
	}

	logging.LogHTTPRequest(remoteAddr, req.method, req.target, req.version)

	if !req.IsHTTP1() {
		return responseVersionNotSupported
	}

	return p.dispatch(remoteAddr, req)
}

// dispatch calls the handler, turning a declined request into 404 and a
// panic into 500 so that one bad request cannot stop the accept loop.
func (p *Pipeline) dispatch(remoteAddr string, req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Handler panicked",
				zap.String("remote_addr", remoteAddr),
				zap.String("request", req.String()),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			resp = responseInternalServerError
		}
	}()

	resp = p.handler.Handle(req)
	if resp == nil {
		resp = responseNotFound
	}
	return resp
}
