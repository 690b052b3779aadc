package httpx

import (
	"strings"
	"sync"
)

// Handler answers one request. Returning nil closes the connection without
// writing anything.
type Handler interface {
	ServeHTTP(Request) *Response
}

type HandlerFunc func(Request) *Response

func (f HandlerFunc) ServeHTTP(r Request) *Response {
	return f(r)
}

// Endpoint is one registered (path, method, handler) triple.
type Endpoint struct {
	Path    string
	Method  Method
	Handler Handler
}

// Router is the ordered route table. Lookups are first-match in registration
// order on exact path and method equality, so a later registration of an
// already registered (path, method) is never reached.
//
// A Server snapshots the table when it starts serving; endpoints registered
// afterwards are not seen by that server.
type Router struct {
	mu        sync.RWMutex
	endpoints []Endpoint
}

func NewRouter() *Router {
	return &Router{}
}

// Register appends an endpoint. Leading and trailing slashes are trimmed
// from path. It panics on a nil handler or a method outside the recognized
// set, since such a route could never be matched.
func (rt *Router) Register(path string, m Method, h Handler) {
	if h == nil {
		panic("httpx: nil handler")
	}
	if !m.Known() {
		panic("httpx: unrecognized method " + string(m))
	}
	rt.mu.Lock()
	rt.endpoints = append(rt.endpoints, Endpoint{
		Path:    strings.Trim(path, "/"),
		Method:  m,
		Handler: h,
	})
	rt.mu.Unlock()
}

// HandleFunc registers f as the handler for (path, m).
func (rt *Router) HandleFunc(path string, m Method, f func(Request) *Response) {
	if f == nil {
		panic("httpx: nil handler")
	}
	rt.Register(path, m, HandlerFunc(f))
}

// Match returns the first endpoint registered for exactly (path, m).
func (rt *Router) Match(path string, m Method) (Endpoint, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return routeTable(rt.endpoints).match(path, m)
}

// Endpoints returns a copy of the table in registration order.
func (rt *Router) Endpoints() []Endpoint {
	return rt.table()
}

func (rt *Router) Len() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.endpoints)
}

func (rt *Router) table() routeTable {
	if rt == nil {
		return nil
	}
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	t := make(routeTable, len(rt.endpoints))
	copy(t, rt.endpoints)
	return t
}

// routeTable is an immutable snapshot shared by every connection goroutine.
type routeTable []Endpoint

func (t routeTable) match(path string, m Method) (Endpoint, bool) {
	if !m.Known() {
		return Endpoint{}, false
	}
	for _, ep := range t {
		if ep.Path == path && ep.Method == m {
			return ep, true
		}
	}
	return Endpoint{}, false
}
