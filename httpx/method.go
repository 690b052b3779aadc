package httpx

// Method is a request method token. The nine methods below form the closed
// set the router accepts; any other token parsed off the wire is kept
// verbatim and reports Known() == false.
type Method string

const (
	MethodGET     Method = "GET"
	MethodHEAD    Method = "HEAD"
	MethodPOST    Method = "POST"
	MethodPUT     Method = "PUT"
	MethodPATCH   Method = "PATCH"
	MethodDELETE  Method = "DELETE"
	MethodCONNECT Method = "CONNECT"
	MethodOPTIONS Method = "OPTIONS"
	MethodTRACE   Method = "TRACE"
)

// ParseMethod classifies a request-line token. Matching is exact and
// case-sensitive, so "get" is an unrecognized method.
func ParseMethod(tok string) Method {
	return Method(tok)
}

// Known reports whether m is one of the recognized methods.
func (m Method) Known() bool {
	switch m {
	case MethodGET, MethodHEAD, MethodPOST, MethodPUT, MethodPATCH,
		MethodDELETE, MethodCONNECT, MethodOPTIONS, MethodTRACE:
		return true
	}
	return false
}

func (m Method) String() string { return string(m) }

// Version is the protocol token of the request line.
type Version string

const HTTP11 Version = "HTTP/1.1"

// Supported reports whether v is HTTP/1.1. Other versions are still served;
// the value is informational.
func (v Version) Supported() bool { return v == HTTP11 }
