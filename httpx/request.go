package httpx

import "context"

// Request is one parsed HTTP request. The server builds it once per
// connection and hands it to the handler by value; the server does not touch
// it afterwards.
type Request struct {
	Method  Method
	Version Version
	// Target is the raw request target from the request line.
	Target string
	// Path is Target decomposed by ParsePath, without surrounding slashes.
	Path   string
	Header Header
	Body   []byte
	// Params holds the query parameters, undecoded.
	Params     map[string]string
	RemoteAddr string
	// RequestID is generated by the server for this connection.
	RequestID string
	ctx       context.Context
}

// Context returns the request's context. If nil, returns Background.
func (r Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a copy of r with its context changed to ctx.
func (r Request) WithContext(ctx context.Context) Request {
	r.ctx = ctx
	return r
}

// Param returns the query parameter named key.
func (r Request) Param(key string) (string, bool) {
	v, ok := r.Params[key]
	return v, ok
}
