package httpx

import (
	"io"
	"time"

	json "github.com/goccy/go-json"

	"dqx0.com/go/tinyhttp/httpx/internal/http1"
)

// Response is what a handler returns. A nil Body sends no body bytes. Date
// and Content-Length are always computed at encode time and replace any value
// set here.
type Response struct {
	StatusCode int
	Reason     string
	Header     Header
	Body       []byte
}

// Text returns a text/plain response.
func Text(code int, reason, body string) *Response {
	return &Response{
		StatusCode: code,
		Reason:     reason,
		Header:     Header{"Content-Type": "text/plain; charset=utf-8"},
		Body:       []byte(body),
	}
}

// JSON returns a response whose body is v encoded as JSON.
func JSON(code int, reason string, v any) (*Response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: code,
		Reason:     reason,
		Header:     Header{"Content-Type": "application/json"},
		Body:       b,
	}, nil
}

// Write encodes r onto w in a single write. r.Header is left untouched.
func (r *Response) Write(w io.Writer, now time.Time) error {
	return http1.WriteResponse(w, r.StatusCode, r.Reason, r.Header, r.Body, now)
}
