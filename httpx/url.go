package httpx

import "strings"

// ParsePath extracts the routing path from a request target or URL.
//
// A scheme ("https://") is skipped when present but not required, so
// "example.com/a/b" and "/a/b" both give "a/b". The path starts after the
// first '/', ends before the first '?', and has leading and trailing slashes
// trimmed. ok is false when there is no '/' or nothing is left after
// trimming. The Host header is never consulted.
func ParsePath(target string) (path string, ok bool) {
	s := target
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	_, p, found := strings.Cut(s, "/")
	if !found {
		return "", false
	}
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	p = strings.Trim(p, "/")
	if p == "" {
		return "", false
	}
	return p, true
}

// ParseQuery extracts key=value pairs after the first '?'. Pairs are split on
// '&' and then on the first '='; segments without '=' are dropped and a
// repeated key keeps its last value. Nothing is percent-decoded.
// The result is never nil.
func ParseQuery(target string) map[string]string {
	params := make(map[string]string)
	_, q, found := strings.Cut(target, "?")
	if !found {
		return params
	}
	for _, seg := range strings.Split(q, "&") {
		k, v, ok := strings.Cut(seg, "=")
		if !ok {
			continue
		}
		params[k] = v
	}
	return params
}
