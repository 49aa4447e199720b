// Package proxy forwards a matched request to its route's upstream and
// classifies the result.
//
// Every call yields an Outcome rather than an error so that the caller
// can map it to an HTTP status without inspecting transport errors:
//
//	Forwarded             200, upstream body returned verbatim
//	UpstreamTimeout       502, route timeout elapsed
//	UpstreamUnreachable   502, transport failure, cancellation or open breaker
//	UpstreamDecodeFailed  500, body is not valid text in its declared charset
//
// The dispatcher never retries. The only state it keeps is the pooled
// transport and, when enabled, one circuit breaker per route.
package proxy
