package httpx

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"golang.org/x/sync/errgroup"

	"dqx0.com/go/tinyhttp/internal/obs"
)

func startServer(t *testing.T, rt *Router, cfg func(*Server)) (*Server, *fasthttputil.InmemoryListener) {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	s := &Server{Router: rt}
	if cfg != nil {
		cfg(s)
	}
	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()
	t.Cleanup(func() {
		_ = s.Close()
		select {
		case err := <-done:
			if !errors.Is(err, ErrServerClosed) {
				t.Errorf("Serve returned %v, want ErrServerClosed", err)
			}
		case <-time.After(5 * time.Second):
			t.Errorf("Serve did not return after Close")
		}
	})
	return s, ln
}

type dialer interface {
	Dial() (net.Conn, error)
}

// roundTrip writes raw and returns everything the server sends before closing.
func roundTrip(t *testing.T, d dialer, raw string) string {
	t.Helper()
	c, err := d.Dial()
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	_ = c.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := io.WriteString(c, raw); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := io.ReadAll(c)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(b)
}

func hiRouter() *Router {
	rt := NewRouter()
	rt.HandleFunc("test", MethodPOST, func(Request) *Response {
		return &Response{StatusCode: 200, Reason: "Ok", Body: []byte("Hi!"), Header: Header{"Content-Type": "text/plain"}}
	})
	return rt
}

func TestServer_EndToEnd(t *testing.T) {
	_, ln := startServer(t, hiRouter(), nil)
	out := roundTrip(t, ln, "POST /test HTTP/1.1\r\nHost: h\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.1 200 Ok \r\n") {
		t.Fatalf("status line: %q", out)
	}
	if !strings.Contains(out, "\r\nDate: ") || !strings.Contains(out, "\r\nContent-Length: 3\r\n") {
		t.Fatalf("missing generated headers: %q", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\nHi!") {
		t.Fatalf("body: %q", out)
	}
}

func TestServer_FastHTTPClient(t *testing.T) {
	_, ln := startServer(t, hiRouter(), nil)
	c := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}
	req := fasthttp.AcquireRequest()
	res := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(res)
	req.SetRequestURI("http://localhost/test")
	req.Header.SetMethod(fasthttp.MethodPost)
	if err := c.DoTimeout(req, res, 5*time.Second); err != nil {
		t.Fatalf("client do: %v", err)
	}
	if res.StatusCode() != 200 {
		t.Fatalf("status=%d", res.StatusCode())
	}
	if string(res.Body()) != "Hi!" {
		t.Fatalf("body=%q", res.Body())
	}
}

func TestServer_SilentClose(t *testing.T) {
	rt := hiRouter()
	rt.HandleFunc("nothing", MethodGET, func(Request) *Response { return nil })
	_, ln := startServer(t, rt, nil)

	tests := []struct {
		name string
		raw  string
	}{
		{"unregistered path", "POST /missing HTTP/1.1\r\nHost: h\r\n\r\n"},
		{"wrong method", "GET /test HTTP/1.1\r\n\r\n"},
		{"unrecognized method", "BREW /test HTTP/1.1\r\n\r\n"},
		{"lower-case method", "post /test HTTP/1.1\r\n\r\n"},
		{"no path", "GET / HTTP/1.1\r\n\r\n"},
		{"missing version", "POST /test\r\n\r\n"},
		{"blank request line", "   \r\n\r\n"},
		{"no headers", "\r\n"},
		{"handler returns nil", "GET /nothing HTTP/1.1\r\n\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out := roundTrip(t, ln, tt.raw); out != "" {
				t.Fatalf("expected no bytes, got %q", out)
			}
		})
	}
}

func TestServer_UnsupportedVersionStillServed(t *testing.T) {
	_, ln := startServer(t, hiRouter(), nil)
	out := roundTrip(t, ln, "POST /test HTTP/1.0\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.1 200 ") {
		t.Fatalf("out=%q", out)
	}
}

func TestServer_RequestFields(t *testing.T) {
	got := make(chan Request, 1)
	rt := NewRouter()
	rt.HandleFunc("api/items", MethodPUT, func(r Request) *Response {
		got <- r
		return Text(201, "Created", string(r.Body))
	})
	_, ln := startServer(t, rt, nil)

	raw := "PUT /api/items/?id=7&tag=a%20b&id=9 HTTP/1.1\r\n" +
		"Host: h\r\n" +
		"content-length: 5\r\n" +
		"X-Request-ID: abc\r\n" +
		"X-Dup: 1\r\n" +
		"X-Dup: 2\r\n" +
		"\r\n" +
		"hello"
	out := roundTrip(t, ln, raw)
	if !strings.HasPrefix(out, "HTTP/1.1 201 Created \r\n") || !strings.HasSuffix(out, "hello") {
		t.Fatalf("out=%q", out)
	}

	r := <-got
	if r.Method != MethodPUT || r.Version != HTTP11 {
		t.Fatalf("method=%q version=%q", r.Method, r.Version)
	}
	if r.Target != "/api/items/?id=7&tag=a%20b&id=9" || r.Path != "api/items" {
		t.Fatalf("target=%q path=%q", r.Target, r.Path)
	}
	if r.Params["id"] != "9" || r.Params["tag"] != "a%20b" {
		t.Fatalf("params=%v", r.Params)
	}
	if string(r.Body) != "hello" {
		t.Fatalf("body=%q", r.Body)
	}
	if r.Header.Get("X-Dup") != "2" || r.Header.Get("content-length") != "5" {
		t.Fatalf("header=%v", r.Header)
	}
	id, ok := RequestIDFrom(r.Context())
	if !ok || id != r.RequestID || len(id) != 16 {
		t.Fatalf("request id=%q ctx=%q", r.RequestID, id)
	}
	if cid, ok := CorrelationIDFrom(r.Context()); !ok || cid != "abc" {
		t.Fatalf("correlation id=%q", cid)
	}
	if r.RemoteAddr == "" {
		t.Fatalf("remote addr not set")
	}
}

func echoRouter() *Router {
	rt := NewRouter()
	rt.HandleFunc("echo", MethodPOST, func(r Request) *Response {
		return Text(200, "OK", fmt.Sprintf("%d:%s", len(r.Body), r.Body))
	})
	return rt
}

func TestServer_LenientContentLength(t *testing.T) {
	_, ln := startServer(t, echoRouter(), nil)
	out := roundTrip(t, ln, "POST /echo HTTP/1.1\r\nContent-Length: abc\r\n\r\nhello")
	if !strings.HasSuffix(out, "\r\n\r\n0:") {
		t.Fatalf("unparsable length should give an empty body: %q", out)
	}
	out = roundTrip(t, ln, "POST /echo HTTP/1.1\r\n\r\nhello")
	if !strings.HasSuffix(out, "\r\n\r\n0:") {
		t.Fatalf("missing length should give an empty body: %q", out)
	}
}

func TestServer_MaxBodyBytes(t *testing.T) {
	_, ln := startServer(t, echoRouter(), func(s *Server) { s.MaxBodyBytes = 4 })
	if out := roundTrip(t, ln, "POST /echo HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"); out != "" {
		t.Fatalf("oversized body should be dropped, got %q", out)
	}
	out := roundTrip(t, ln, "POST /echo HTTP/1.1\r\nContent-Length: 4\r\n\r\nhell")
	if !strings.HasSuffix(out, "4:hell") {
		t.Fatalf("out=%q", out)
	}
}

func TestServer_HeaderLineLimit(t *testing.T) {
	_, ln := startServer(t, hiRouter(), func(s *Server) { s.MaxHeaderBytes = 64 })
	raw := "POST /test HTTP/1.1\r\nX-Long: " + strings.Repeat("x", 128) + "\r\n\r\n"
	if out := roundTrip(t, ln, raw); out != "" {
		t.Fatalf("expected no bytes, got %q", out)
	}
}

func TestServer_HandlerPanic(t *testing.T) {
	rt := hiRouter()
	rt.HandleFunc("boom", MethodGET, func(Request) *Response { panic("boom") })
	_, ln := startServer(t, rt, nil)
	if out := roundTrip(t, ln, "GET /boom HTTP/1.1\r\n\r\n"); out != "" {
		t.Fatalf("expected no bytes, got %q", out)
	}
	if out := roundTrip(t, ln, "POST /test HTTP/1.1\r\n\r\n"); !strings.HasSuffix(out, "Hi!") {
		t.Fatalf("server stopped serving after a panic: %q", out)
	}
}

func TestServer_Concurrent(t *testing.T) {
	rt := NewRouter()
	rt.HandleFunc("who", MethodGET, func(r Request) *Response {
		return Text(200, "OK", r.Params["n"])
	})
	_, ln := startServer(t, rt, nil)

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			c, err := ln.Dial()
			if err != nil {
				return err
			}
			defer c.Close()
			_ = c.SetDeadline(time.Now().Add(5 * time.Second))
			if _, err := fmt.Fprintf(c, "GET /who?n=%d HTTP/1.1\r\n\r\n", i); err != nil {
				return err
			}
			b, err := io.ReadAll(c)
			if err != nil {
				return err
			}
			if want := fmt.Sprintf("\r\n\r\n%d", i); !strings.HasSuffix(string(b), want) {
				return fmt.Errorf("request %d got %q", i, b)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestServer_SnapshotTakenAtStart(t *testing.T) {
	rt := hiRouter()
	_, ln := startServer(t, rt, nil)
	if out := roundTrip(t, ln, "POST /test HTTP/1.1\r\n\r\n"); !strings.HasSuffix(out, "Hi!") {
		t.Fatalf("out=%q", out)
	}
	rt.HandleFunc("late", MethodGET, func(Request) *Response { return Text(200, "OK", "late") })
	if out := roundTrip(t, ln, "GET /late HTTP/1.1\r\n\r\n"); out != "" {
		t.Fatalf("late registration reached a running server: %q", out)
	}
}

// flakyListener fails its first Accept.
type flakyListener struct {
	net.Listener
	once sync.Once
}

func (l *flakyListener) Accept() (net.Conn, error) {
	var failed bool
	l.once.Do(func() { failed = true })
	if failed {
		return nil, errors.New("transient accept failure")
	}
	return l.Listener.Accept()
}

func TestServer_AcceptErrorDoesNotStopLoop(t *testing.T) {
	mem := fasthttputil.NewInmemoryListener()
	s := &Server{Router: hiRouter()}
	done := make(chan error, 1)
	go func() { done <- s.Serve(&flakyListener{Listener: mem}) }()

	if out := roundTrip(t, mem, "POST /test HTTP/1.1\r\n\r\n"); !strings.HasSuffix(out, "Hi!") {
		t.Fatalf("out=%q", out)
	}
	_ = s.Close()
	if err := <-done; !errors.Is(err, ErrServerClosed) {
		t.Fatalf("Serve returned %v", err)
	}
}

func TestServer_CloseBeforeServe(t *testing.T) {
	s := &Server{}
	_ = s.Close()
	if err := s.Serve(fasthttputil.NewInmemoryListener()); !errors.Is(err, ErrServerClosed) {
		t.Fatalf("Serve returned %v", err)
	}
}

type recordLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordLogger) Logf(level obs.Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level.String()+" "+fmt.Sprintf(format, args...))
}

func (l *recordLogger) contains(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

func TestServer_VerboseLogging(t *testing.T) {
	quiet := &recordLogger{}
	_, ln := startServer(t, hiRouter(), func(s *Server) { s.Logger = quiet })
	roundTrip(t, ln, "GET /missing HTTP/1.1\r\n\r\n")
	if quiet.contains("no endpoint") {
		t.Fatalf("non-verbose server logged: %v", quiet.lines)
	}

	loud := &recordLogger{}
	_, ln = startServer(t, hiRouter(), func(s *Server) { s.Logger = loud; s.Verbose = true })
	roundTrip(t, ln, "GET /missing HTTP/1.1\r\n\r\n")
	roundTrip(t, ln, "POST /test\r\n\r\n")
	if !loud.contains("no endpoint for GET missing") {
		t.Fatalf("routing miss not logged: %v", loud.lines)
	}
	if !loud.contains(ErrInvalidVersion.Error()) {
		t.Fatalf("parse error not logged: %v", loud.lines)
	}
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, ln := startServer(t, hiRouter(), func(s *Server) { s.Meter = obs.NewPromMeter("tinyhttp", reg) })
	roundTrip(t, ln, "POST /test HTTP/1.1\r\n\r\n")
	roundTrip(t, ln, "GET /missing HTTP/1.1\r\n\r\n")
	roundTrip(t, ln, "\r\n")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	got := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				got[mf.GetName()] += c.GetValue()
			}
		}
	}
	want := map[string]float64{
		"tinyhttp_connections_total":  3,
		"tinyhttp_responses_total":    1,
		"tinyhttp_route_misses_total": 1,
		"tinyhttp_parse_errors_total": 1,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s=%v, want %v (all: %v)", name, got[name], v, got)
		}
	}
}
