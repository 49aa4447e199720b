package proxy

import (
	"net"
	"net/http"
	"strings"
)

// RequestIDHeader carries the gateway request ID to the upstream.
const RequestIDHeader = "X-Request-ID"

// hopHeaders are headers that should not be forwarded.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// transportHeaders are negotiated by http.Transport itself. The client's
// Accept-Encoding is dropped so that the transport asks for gzip and
// decompresses the reply before the body is decoded as text.
var transportHeaders = []string{
	"Accept-Encoding",
}

// copyEndToEndHeaders copies src into dst, leaving out hop-by-hop headers,
// any header named in src's Connection header and the headers the
// transport negotiates.
func copyEndToEndHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}

	for _, f := range src.Values("Connection") {
		for _, token := range strings.Split(f, ",") {
			if token = strings.TrimSpace(token); token != "" {
				dst.Del(token)
			}
		}
	}

	for _, h := range hopHeaders {
		dst.Del(h)
	}
	for _, h := range transportHeaders {
		dst.Del(h)
	}
}

// setForwardedHeaders adds the X-Forwarded-* headers describing the
// inbound connection.
func setForwardedHeaders(h http.Header, req *Request) {
	if clientIP, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		if prior := h.Get("X-Forwarded-For"); prior != "" {
			clientIP = prior + ", " + clientIP
		}
		h.Set("X-Forwarded-For", clientIP)
	}

	if req.TLS {
		h.Set("X-Forwarded-Proto", "https")
	} else {
		h.Set("X-Forwarded-Proto", "http")
	}

	if req.Host != "" {
		h.Set("X-Forwarded-Host", req.Host)
	}
}
