package proxy

import (
	"io"
	"net/http"
)

// Request carries the parts of an inbound request that are forwarded.
// Path is the routed path that was matched against the table, which may
// differ from the URL path the client used.
type Request struct {
	Method        string
	Path          string
	RawQuery      string
	Header        http.Header
	Body          io.Reader
	ContentLength int64
	Host          string
	RemoteAddr    string
	TLS           bool
}

// NewRequest builds a Request from an inbound HTTP request and the path
// that was routed.
func NewRequest(r *http.Request, routedPath string) *Request {
	return &Request{
		Method:        r.Method,
		Path:          routedPath,
		RawQuery:      r.URL.RawQuery,
		Header:        r.Header,
		Body:          r.Body,
		ContentLength: r.ContentLength,
		Host:          r.Host,
		RemoteAddr:    r.RemoteAddr,
		TLS:           r.TLS != nil,
	}
}
