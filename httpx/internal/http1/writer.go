package http1

import (
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"
)

// TimeFormat is the HTTP-date layout used for the Date header.
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// WriteResponse encodes a complete response and writes it to w in a single
// Write call.
//
// The status line keeps a space between the reason and CRLF. Date (from now)
// and Content-Length (len(body)) replace any caller value with the same name
// in any case. hdr itself is not modified. A nil body writes no body bytes and
// reports Content-Length: 0.
func WriteResponse(w io.Writer, status int, reason string, hdr map[string]string, body []byte, now time.Time) error {
	if reason == "" {
		reason = defaultReason(status)
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString("HTTP/1.1 ")
	buf.B = strconv.AppendInt(buf.B, int64(status), 10)
	buf.WriteString(" ")
	buf.WriteString(sanitizeHeaderValue(reason))
	buf.WriteString(" \r\n")

	for _, k := range slices.Sorted(maps.Keys(hdr)) {
		if strings.EqualFold(k, "Date") || strings.EqualFold(k, "Content-Length") {
			continue
		}
		if !validHeaderName(k) {
			continue
		}
		writeHeader(buf, k, sanitizeHeaderValue(hdr[k]))
	}
	writeHeader(buf, "Date", now.UTC().Format(TimeFormat))
	writeHeader(buf, "Content-Length", strconv.Itoa(len(body)))
	buf.WriteString("\r\n")
	buf.Write(body)

	_, err := w.Write(buf.B)
	return err
}

func writeHeader(buf *bytebufferpool.ByteBuffer, k, v string) {
	buf.WriteString(k)
	buf.WriteString(": ")
	buf.WriteString(v)
	buf.WriteString("\r\n")
}

func defaultReason(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 202:
		return "Accepted"
	case 204:
		return "No Content"
	case 301:
		return "Moved Permanently"
	case 302:
		return "Found"
	case 304:
		return "Not Modified"
	case 400:
		return "Bad Request"
	case 401:
		return "Unauthorized"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	case 503:
		return "Service Unavailable"
	default:
		return ""
	}
}

// validHeaderName reports whether k is a non-empty RFC 7230 token.
func validHeaderName(k string) bool {
	if k == "" {
		return false
	}
	for i := 0; i < len(k); i++ {
		c := k[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			continue
		}
		switch c {
		case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
			continue
		default:
			return false
		}
	}
	return true
}

func sanitizeHeaderValue(v string) string {
	if v == "" {
		return v
	}
	// Remove CR/LF and other control chars except HTAB
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\r' || c == '\n' || c == 0x7f {
			continue
		}
		if c < 0x20 && c != '\t' {
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
