package proxy

import "net/http"

// Kind classifies the result of a dispatch.
type Kind int

// Outcome kinds.
const (
	Forwarded Kind = iota
	UpstreamTimeout
	UpstreamUnreachable
	UpstreamDecodeFailed
)

// String implements fmt.Stringer. The values double as metric labels.
func (k Kind) String() string {
	switch k {
	case Forwarded:
		return "forwarded"
	case UpstreamTimeout:
		return "timeout"
	case UpstreamUnreachable:
		return "unreachable"
	case UpstreamDecodeFailed:
		return "decode_failed"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of forwarding one request.
type Outcome struct {
	Kind Kind

	// Body is the decoded upstream body. Set only for Forwarded.
	Body string

	// UpstreamStatus is the status the upstream answered with, or 0 when
	// no response was received.
	UpstreamStatus int

	// Err describes the failure for every kind except Forwarded.
	Err error
}

// HTTPStatus maps the outcome to the status the gateway answers with.
// A forwarded response is always 200, whatever the upstream returned.
func (o Outcome) HTTPStatus() int {
	switch o.Kind {
	case Forwarded:
		return http.StatusOK
	case UpstreamDecodeFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// Message returns the plain-text body sent to the client for failures.
func (o Outcome) Message() string {
	switch o.Kind {
	case Forwarded:
		return o.Body
	case UpstreamTimeout:
		return "Upstream request timed out"
	case UpstreamDecodeFailed:
		return "Failed to read upstream response"
	default:
		return "Upstream unavailable"
	}
}
