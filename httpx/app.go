package httpx

import (
	"fmt"
	"net"
	"strconv"
	"sync"

	"dqx0.com/go/tinyhttp/internal/obs"
)

// App is the host-facing entry point: register endpoints, then Start.
type App struct {
	Router *Router
	Logger obs.Logger
	Meter  obs.Meter

	mu     sync.Mutex
	srv    *Server
	closed bool
}

func NewApp() *App {
	return &App{Router: NewRouter()}
}

// Register adds an endpoint; see Router.Register.
func (a *App) Register(path string, m Method, h Handler) {
	a.Router.Register(path, m, h)
}

// HandleFunc adds an endpoint backed by a function.
func (a *App) HandleFunc(path string, m Method, f func(Request) *Response) {
	a.Router.HandleFunc(path, m, f)
}

// Start binds 127.0.0.1:port and serves until Close. A bind failure is
// returned immediately; the caller decides whether it is fatal.
func (a *App) Start(port int, verbose bool) error {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("httpx: bind %s: %w", addr, err)
	}
	return a.Serve(ln, verbose)
}

// Serve serves the registered endpoints on ln.
func (a *App) Serve(ln net.Listener, verbose bool) error {
	srv := &Server{
		Addr:    ln.Addr().String(),
		Router:  a.Router,
		Verbose: verbose,
		Logger:  a.Logger,
		Meter:   a.Meter,
	}
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	a.srv = srv
	a.mu.Unlock()
	srv.logger().Logf(obs.Info, "listening at %s with %d endpoints", srv.Addr, a.Router.Len())
	return srv.Serve(ln)
}

// Close stops the running server, if any.
func (a *App) Close() error {
	a.mu.Lock()
	a.closed = true
	srv := a.srv
	a.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Close()
}
