package http1

import (
	"errors"
	"strings"
)

var (
	ErrNoHeaders          = errors.New("http1: no headers to parse")
	ErrInvalidRequestLine = errors.New("http1: invalid request line")
	ErrInvalidVersion     = errors.New("http1: invalid HTTP version")
	ErrHeaderTooLarge     = errors.New("http1: header line too large")
)

// Proto11 is the only protocol version the server claims to speak.
const Proto11 = "HTTP/1.1"

// Head is the request line and header block of one request, as tokens.
// Method and Proto are not validated here beyond presence.
type Head struct {
	Method string
	Target string
	Proto  string
	Header map[string]string
}

// ParseHead turns the lines returned by ReadHead into a Head.
//
// The request line is split on whitespace: a missing method token fails with
// ErrInvalidRequestLine and a missing version token with ErrInvalidVersion.
// An unknown method or version is not an error. Header lines are split at the
// first ": "; lines without it are dropped, and a repeated name keeps the last
// value. Names keep the case they were received in.
func ParseHead(lines []string) (Head, error) {
	if len(lines) == 0 {
		return Head{}, ErrNoHeaders
	}
	fields := strings.Fields(lines[0])
	if len(fields) == 0 {
		return Head{}, ErrInvalidRequestLine
	}
	if len(fields) < 3 {
		return Head{}, ErrInvalidVersion
	}
	h := Head{
		Method: fields[0],
		Target: fields[1],
		Proto:  fields[2],
		Header: make(map[string]string, len(lines)-1),
	}
	for _, line := range lines[1:] {
		k, v, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		h.Header[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return h, nil
}
