package http1

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/valyala/bytebufferpool"
)

// DefaultMaxLineBytes bounds a single request or header line when the caller
// passes no limit.
const DefaultMaxLineBytes = 8 << 10

// ReadHead reads header lines up to, and excluding, the first empty line.
// Lines end at '\n'; a preceding '\r' is dropped. EOF before the empty line
// ends the head with whatever was read; the parser reports an empty result.
func ReadHead(br *bufio.Reader, maxLine int) ([]string, error) {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	var lines []string
	for {
		line, err := readLine(br, maxLine)
		if err == io.EOF {
			if line != "" {
				lines = append(lines, line)
			}
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
		if line == "" {
			return lines, nil
		}
		lines = append(lines, line)
	}
}

// readLine returns one line without its terminator. On EOF the partial line
// read so far is returned along with io.EOF.
func readLine(br *bufio.Reader, maxLine int) (string, error) {
	var sb strings.Builder
	for {
		b, err := br.ReadByte()
		if err != nil {
			return sb.String(), err
		}
		if b == '\n' {
			break
		}
		if b != '\r' {
			sb.WriteByte(b)
		}
		if sb.Len() > maxLine {
			return "", ErrHeaderTooLarge
		}
	}
	return sb.String(), nil
}

// ContentLength scans the header lines (request line excluded) for
// Content-Length, matching the name case-insensitively. The last occurrence
// wins. A missing, negative or unparsable value yields 0.
func ContentLength(lines []string) int64 {
	var n int64
	for i := 1; i < len(lines); i++ {
		name, value, ok := strings.Cut(lines[i], ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSpace(value), 10, 63)
		if err != nil {
			n = 0
			continue
		}
		n = int64(v)
	}
	return n
}

// ReadBody reads up to n bytes from r. A stream that ends early yields the
// bytes read so far and no error; any other read error is returned together
// with the partial body.
func ReadBody(r io.Reader, n int64) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, err := io.CopyN(buf, r, n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	if buf.Len() == 0 {
		return nil, err
	}
	body := make([]byte, buf.Len())
	copy(body, buf.B)
	return body, err
}
