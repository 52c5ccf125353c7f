// Package message defines the request/response model shared by the serializer,
// parser, and redirect controller.
package message

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/httpwire/httpc/pkg/buffer"
	"github.com/httpwire/httpc/pkg/errors"
	"github.com/httpwire/httpc/pkg/header"
	"github.com/httpwire/httpc/pkg/timing"
)

// Protocol versions understood by the engine.
const (
	ProtoHTTP11 = "HTTP/1.1"
	ProtoHTTP10 = "HTTP/1.0"
)

// Request is an outgoing HTTP/1.1 message.
type Request struct {
	Method string
	URL    *url.URL
	Proto  string
	Header *header.Set
	Body   []byte // nil means no body; empty means a present, zero-length body
}

// NewRequest builds a request for an absolute http(s) URL.
func NewRequest(method, rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid URL %q: %v", rawURL, err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.NewValidationError(fmt.Sprintf("unsupported scheme %q (must be http or https)", u.Scheme))
	}
	if u.Host == "" {
		return nil, errors.NewValidationError(fmt.Sprintf("URL %q has no host", rawURL))
	}
	return &Request{
		Method: method,
		URL:    u,
		Proto:  ProtoHTTP11,
		Header: header.New(),
	}, nil
}

// Target returns the origin-form request-target: path plus optional query,
// defaulting to "/". Fragments never reach the wire.
func (r *Request) Target() string {
	target := r.URL.EscapedPath()
	if target == "" {
		target = "/"
	}
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return target
}

// Authority returns the host[:port] component exactly as the URL spells it,
// for use as the Host header.
func (r *Request) Authority() string {
	return r.URL.Host
}

// Clone returns an independent copy; the body slice is shared (bodies are
// treated as immutable once attached).
func (r *Request) Clone() *Request {
	u := *r.URL
	return &Request{
		Method: r.Method,
		URL:    &u,
		Proto:  r.Proto,
		Header: r.Header.Clone(),
		Body:   r.Body,
	}
}

// BodyMode records how a response body was delimited on the wire.
type BodyMode uint8

const (
	// BodyEmpty means the message carries no body by status or method context.
	BodyEmpty BodyMode = iota
	// BodyFixed means the body length came from Content-Length.
	BodyFixed
	// BodyChunked means the body used chunked transfer-encoding.
	BodyChunked
	// BodyUntilClose means the body ran until the peer closed the connection.
	BodyUntilClose
)

// String names the mode for display and diagnostics.
func (m BodyMode) String() string {
	switch m {
	case BodyEmpty:
		return "empty"
	case BodyFixed:
		return "fixed-length"
	case BodyChunked:
		return "chunked"
	case BodyUntilClose:
		return "until-close"
	default:
		return fmt.Sprintf("body-mode(%d)", uint8(m))
	}
}

// ConnInfo describes the connection a response arrived on.
type ConnInfo struct {
	ConnectedIP   string
	ConnectedPort int
	TLSVersion    string
	TLSCipher     string
	TLSServerName string
	Proxied       bool
}

// Response is a fully parsed HTTP/1.1 message. It is immutable once the
// parser hands it over; ownership (including the body buffer) moves to the
// caller, which must Close it.
type Response struct {
	Proto      string
	StatusCode int
	Reason     string
	Header     *header.Set
	Body       *buffer.Buffer
	BodyMode   BodyMode
	Conn       ConnInfo
}

// IsRedirect reports whether the status is one the redirect controller follows.
func (r *Response) IsRedirect() bool {
	switch r.StatusCode {
	case 301, 302, 303, 307, 308:
		return true
	}
	return false
}

// StatusText renders "code reason", omitting the reason when the peer sent none.
func (r *Response) StatusText() string {
	if r.Reason == "" {
		return fmt.Sprintf("%d", r.StatusCode)
	}
	return fmt.Sprintf("%d %s", r.StatusCode, r.Reason)
}

// ContentType returns the media type portion of the Content-Type header.
func (r *Response) ContentType() string {
	v, _ := r.Header.Get("Content-Type")
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// Close releases the body buffer.
func (r *Response) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// Hop is one request/response cycle within a chain.
type Hop struct {
	Request  *Request
	Response *Response
	Metrics  timing.Metrics
}

// Chain is the ordered sequence of hops produced while following redirects.
// The final hop holds the response the caller asked for; earlier hops are the
// redirects that led there.
type Chain struct {
	Hops []Hop
}

// Len returns the number of completed hops.
func (c *Chain) Len() int {
	return len(c.Hops)
}

// Final returns the last response, or nil for an empty chain.
func (c *Chain) Final() *Response {
	if len(c.Hops) == 0 {
		return nil
	}
	return c.Hops[len(c.Hops)-1].Response
}

// Close releases every hop's body buffer.
func (c *Chain) Close() error {
	var first error
	for i := range c.Hops {
		if resp := c.Hops[i].Response; resp != nil {
			if err := resp.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
