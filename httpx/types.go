package httpx

import "strings"

// Header maps a header name to its single value. Names keep the case they
// were received or set in; a repeated name keeps the last value.
type Header map[string]string

// Get returns the value stored under exactly key.
func (h Header) Get(key string) string {
	return h[key]
}

// Lookup finds key ignoring ASCII case. An exact match is preferred.
func (h Header) Lookup(key string) (string, bool) {
	if v, ok := h[key]; ok {
		return v, true
	}
	for k, v := range h {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

func (h Header) Set(key, value string) {
	if h == nil {
		return
	}
	h[key] = value
}

func (h Header) Del(key string) {
	delete(h, key)
}

// Clone returns an independent copy of h. Clone of nil is nil.
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	h2 := make(Header, len(h))
	for k, v := range h {
		h2[k] = v
	}
	return h2
}
