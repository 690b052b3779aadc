package httpx

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"dqx0.com/go/tinyhttp/httpx/internal/http1"
	"dqx0.com/go/tinyhttp/internal/obs"
)

// Server accepts connections and serves one request on each.
//
// Every failure after accept (unparsable head, unknown route, nil response,
// handler panic, write error) is local to its connection: the connection is
// closed, nothing is sent to the peer, and the event is logged when Verbose
// is set.
type Server struct {
	Addr   string
	Router *Router
	// Verbose enables diagnostics. With Logger nil they go to stderr.
	Verbose bool
	Logger  obs.Logger
	Meter   obs.Meter
	// ReadTimeout and WriteTimeout bound the read of the request and the
	// write of the response. Zero means no deadline.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxHeaderBytes bounds a single head line. Defaults to 8 KiB.
	MaxHeaderBytes int
	// MaxBodyBytes rejects a declared Content-Length above it. Zero means
	// no limit.
	MaxBodyBytes int64

	mu     sync.Mutex
	ln     net.Listener
	closed atomic.Bool
}

// ListenAndServe listens on s.Addr, defaulting to 127.0.0.1:8080, and serves.
func (s *Server) ListenAndServe() error {
	addr := s.Addr
	if addr == "" {
		addr = "127.0.0.1:8080"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on l until Close is called. The route table is
// snapshotted before the first accept. Accept errors are logged and the loop
// keeps going; it returns ErrServerClosed after Close.
func (s *Server) Serve(l net.Listener) error {
	defer l.Close()
	s.mu.Lock()
	s.ln = l
	s.mu.Unlock()
	if s.closed.Load() {
		return ErrServerClosed
	}

	table := s.Router.table()
	logger := s.logger()
	meter := s.meter()

	var tempDelay time.Duration
	for {
		c, err := l.Accept()
		if err != nil {
			if s.closed.Load() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else if tempDelay *= 2; tempDelay > time.Second {
				tempDelay = time.Second
			}
			logger.Logf(obs.Warn, "accept error: %v; retrying in %v", err, tempDelay)
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0
		meter.Counter("connections_total", 1)
		go s.serveConn(c, table, logger, meter)
	}
}

// Close stops the accept loop. Connections already accepted run to
// completion.
func (s *Server) Close() error {
	s.closed.Store(true)
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return nil
	}
	return ln.Close()
}

func (s *Server) serveConn(c net.Conn, table routeTable, logger obs.Logger, meter obs.Meter) {
	start := time.Now()
	id := genID()
	defer c.Close()
	defer func() {
		if p := recover(); p != nil {
			meter.Counter("handler_panics_total", 1)
			logger.Logf(obs.Error, "conn=%s handler panic: %v", id, p)
		}
	}()

	if s.ReadTimeout > 0 {
		_ = c.SetReadDeadline(time.Now().Add(s.ReadTimeout))
	}
	br := bufio.NewReader(c)
	lines, err := http1.ReadHead(br, s.MaxHeaderBytes)
	if err != nil {
		meter.Counter("parse_errors_total", 1)
		logger.Logf(obs.Warn, "conn=%s read head: %v", id, err)
		return
	}
	head, err := http1.ParseHead(lines)
	if err != nil {
		meter.Counter("parse_errors_total", 1)
		logger.Logf(obs.Warn, "conn=%s parse head: %v", id, err)
		return
	}
	if head.Target == "" {
		return
	}

	method := ParseMethod(head.Method)
	version := Version(head.Proto)
	if !version.Supported() {
		logger.Logf(obs.Debug, "conn=%s unsupported version %q", id, head.Proto)
	}
	path, hasPath := ParsePath(head.Target)
	params := ParseQuery(head.Target)
	if !hasPath {
		meter.Counter("route_misses_total", 1)
		logger.Logf(obs.Debug, "conn=%s no path in target %q", id, head.Target)
		return
	}
	ep, ok := table.match(path, method)
	if !ok {
		meter.Counter("route_misses_total", 1)
		logger.Logf(obs.Info, "conn=%s no endpoint for %s %s", id, method, path)
		return
	}

	n := http1.ContentLength(lines)
	if s.MaxBodyBytes > 0 && n > s.MaxBodyBytes {
		meter.Counter("parse_errors_total", 1)
		logger.Logf(obs.Warn, "conn=%s %v: %d > %d", id, ErrBodyTooLarge, n, s.MaxBodyBytes)
		return
	}
	body, err := http1.ReadBody(br, n)
	if err != nil {
		meter.Counter("parse_errors_total", 1)
		logger.Logf(obs.Warn, "conn=%s read body: %v", id, err)
		return
	}
	if int64(len(body)) < n {
		logger.Logf(obs.Debug, "conn=%s short body: %d of %d bytes", id, len(body), n)
	}

	hdr := Header(head.Header)
	ctx := WithRequestID(context.Background(), id)
	if cid, ok := hdr.Lookup("X-Request-ID"); ok {
		ctx = WithCorrelationID(ctx, cid)
	}
	req := Request{
		Method:     method,
		Version:    version,
		Target:     head.Target,
		Path:       path,
		Header:     hdr,
		Body:       body,
		Params:     params,
		RemoteAddr: c.RemoteAddr().String(),
		RequestID:  id,
		ctx:        ctx,
	}

	res := ep.Handler.ServeHTTP(req)
	if res == nil {
		logger.Logf(obs.Debug, "conn=%s %s %s: no response", id, method, path)
		return
	}

	if s.WriteTimeout > 0 {
		_ = c.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
	}
	if err := res.Write(c, time.Now()); err != nil {
		meter.Counter("write_errors_total", 1)
		logger.Logf(obs.Error, "conn=%s write response: %v", id, err)
		return
	}
	meter.Counter("responses_total", 1, obs.Label{Key: "status", Value: strconv.Itoa(res.StatusCode)})
	meter.Histogram("request_duration_seconds", time.Since(start).Seconds())
	logger.Logf(obs.Info, "conn=%s %s %s -> %d", id, method, path, res.StatusCode)
}

func (s *Server) logger() obs.Logger {
	if !s.Verbose {
		return obs.NopLogger{}
	}
	if s.Logger != nil {
		return s.Logger
	}
	return obs.NewStderrLogger(obs.Debug, "httpx ")
}

func (s *Server) meter() obs.Meter {
	if s.Meter == nil {
		return obs.NopMeter{}
	}
	return s.Meter
}
