// Package server implements a minimal HTTP/1.x server for small devices.
//
// The server accepts one TCP connection at a time, reads the request once,
// decodes only the request line, asks a Handler for a response and writes it
// back before closing the connection. Headers and bodies sent by clients are
// ignored, connections are never reused and there is no TLS.
//
// # Wire Format
//
// Every response uses the same header set, in this order:
//
//	HTTP/1.1 200 OK\r\n
//	Content-Type: text/html\r\n
//	Content-Length: 1234\r\n
//	Server: TinyHttpServer\r\n
//	Date: Tue, 15 Nov 1994 08:12:31 GMT\r\n
//	Connection: close\r\n
//	Cache-Control: no-cache\r\n
//	\r\n
//	<body>
//
// The blank line and the body are only sent when the response has a body.
//
// # Error Responses
//
// The server answers on its own when it cannot use the handler:
//   - 400 Bad Request: bytes are not UTF-8 or the request line does not have
//     exactly three space-separated tokens
//   - 505 HTTP Version Not Supported: version does not start with "HTTP/1."
//   - 404 Not Found: the handler returned nil
//   - 500 Internal Server Error: the handler panicked
//
// # Lifecycle
//
//	srv, err := server.New(&server.Config{Port: 80}, handler)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	go func() {
//	    <-sigChan
//	    srv.Stop()
//	}()
//
//	// Start blocks until Stop is called
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// Stop closes the listening socket. The pending accept then fails, and the
// loop treats that failure as the shutdown signal because the server is no
// longer running. Accept, read and write failures while running are logged
// and the loop moves on to the next connection.
//
// # Concurrency
//
// Requests are served strictly in acceptance order on the goroutine that
// called Start. A slow handler or a silent client delays everyone else.
// The accept/read/dispatch/write sequence is behind ConnServer so a
// different scheduling strategy can be plugged in with NewWithConnServer.
package server
