package traffic

import (
	"net/http"
	"strings"
)

// Header is a case-insensitive header map.
type Header map[string]string

// Get returns the value for key, matching case-insensitively.
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	return h[strings.ToLower(key)]
}

// Set stores value under the lowercased key.
func (h Header) Set(key, value string) {
	h[strings.ToLower(key)] = value
}

// Del removes key.
func (h Header) Del(key string) {
	delete(h, strings.ToLower(key))
}

// Clone returns an independent copy of h.
func (h Header) Clone() Header {
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Request is a neutral model of one observed outgoing network call.
// Instances are created once per captured call and not mutated afterwards.
type Request struct {
	URL          string
	Method       string
	ResourceType string // CDP resource type, e.g. XHR, Fetch, Document
	Headers      Header
	Body         string // raw post data, empty for GET
	Seq          int    // observation order within one capture window
}

// Response is a neutral model of a replayed request's outcome.
type Response struct {
	StatusCode int
	Headers    Header
	Body       []byte
}

// NewRequest returns a Request with an initialized header map.
func NewRequest() *Request {
	return &Request{Headers: make(Header)}
}

// NewResponse returns a Response with an initialized header map.
func NewResponse() *Response {
	return &Response{StatusCode: http.StatusOK, Headers: make(Header)}
}
