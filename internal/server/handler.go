package server

// Handler turns a request into a response. Returning nil declines the
// request and the server answers 404 Not Found.
//
// Handlers run on the accept loop: a slow handler delays every other client.
type Handler interface {
	Handle(req *Request) *Response
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(req *Request) *Response

// Handle calls f(req).
func (f HandlerFunc) Handle(req *Request) *Response {
	return f(req)
}

// Chain returns a Handler that asks each handler in turn and returns the
// first non-nil response.
func Chain(handlers ...Handler) Handler {
	return HandlerFunc(func(req *Request) *Response {
		for _, h := range handlers {
			if resp := h.Handle(req); resp != nil {
				return resp
			}
		}
		return nil
	})
}
