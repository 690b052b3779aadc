// Package httpx is a minimal HTTP/1.1 server substrate meant to be embedded
// in a host program.
//
// Each accepted connection carries exactly one request. The request head is
// parsed, the target is decomposed into a path and query parameters, and the
// (path, method) pair is looked up in a route table by exact match. The
// matched handler's Response is encoded with fresh Date and Content-Length
// headers and the connection is closed.
//
// There is no keep-alive, chunked encoding, TLS or pattern routing. A request
// that cannot be parsed or routed, or whose handler returns nil, gets no bytes
// back at all: the connection is simply closed.
//
// Quick start:
//
//	app := httpx.NewApp()
//	app.HandleFunc("hello", httpx.MethodGET, func(r httpx.Request) *httpx.Response {
//	    return httpx.Text(200, "OK", "hi "+r.Params["name"])
//	})
//	if err := app.Start(8080, true); err != nil { log.Fatal(err) }
package httpx
