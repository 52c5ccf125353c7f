// Package httpc is an HTTP/1.1 client built directly on TCP and TLS sockets:
// requests are serialized byte by byte, responses are decoded by a resumable
// streaming parser (fixed-length, chunked, and read-until-close framing), and
// redirects are followed over fresh connections with per-hop timing.
package httpc

import (
	"context"

	"github.com/httpwire/httpc/pkg/buffer"
	"github.com/httpwire/httpc/pkg/client"
	"github.com/httpwire/httpc/pkg/constants"
	"github.com/httpwire/httpc/pkg/errors"
	"github.com/httpwire/httpc/pkg/header"
	"github.com/httpwire/httpc/pkg/message"
	"github.com/httpwire/httpc/pkg/timing"
)

// Version is the current version of the httpc library.
const Version = constants.Version

// Re-export key types for easier usage
type (
	// Request is an outgoing HTTP request under full caller control.
	Request = message.Request

	// Response is a parsed HTTP response with its stored body.
	Response = message.Response

	// Chain records every hop of a followed redirect sequence.
	Chain = message.Chain

	// Hop pairs one request with its response and timing metrics.
	Hop = message.Hop

	// Header is an ordered header collection that preserves duplicates.
	Header = header.Set

	// Options controls transport, TLS, timeouts, and redirect behavior.
	Options = client.Options

	// Client executes requests over fresh connections.
	Client = client.Client

	// RewriteRule decides the method and body of a redirected request.
	RewriteRule = client.RewriteRule

	// Buffer stores response bodies, spilling to disk above a memory limit.
	Buffer = buffer.Buffer

	// Metrics captures per-phase timing for one hop.
	Metrics = timing.Metrics

	// Error is the structured error type returned by the engine.
	Error = errors.Error

	// Kind classifies engine errors.
	Kind = errors.Kind
)

// Re-export error kinds so callers can match without importing pkg/errors.
const (
	KindInvalidHeaderName        = errors.KindInvalidHeaderName
	KindInvalidHeaderValue       = errors.KindInvalidHeaderValue
	KindInvalidTarget            = errors.KindInvalidTarget
	KindMalformedStatusLine      = errors.KindMalformedStatusLine
	KindMalformedHeaderLine      = errors.KindMalformedHeaderLine
	KindMalformedContentLength   = errors.KindMalformedContentLength
	KindConflictingContentLength = errors.KindConflictingContentLength
	KindMalformedChunkSize       = errors.KindMalformedChunkSize
	KindChunkLengthMismatch      = errors.KindChunkLengthMismatch
	KindMissingLocationHeader    = errors.KindMissingLocationHeader
	KindTooManyRedirects         = errors.KindTooManyRedirects
	KindTransport                = errors.KindTransport
	KindValidation               = errors.KindValidation
)

// Redirect rewrite policies for Options.Rewrite.
var (
	// DefaultRewrite follows browser practice: 303 switches to GET and drops
	// the body, 301/302 do the same for POST, 307/308 preserve everything.
	DefaultRewrite = client.DefaultRewrite

	// PreserveMethod keeps the method and body on every redirect status.
	PreserveMethod = client.PreserveMethod
)

// New returns a client using the default network dialer.
func New() *Client {
	return client.New()
}

// NewRequest builds a request for an http or https URL.
func NewRequest(method, rawURL string) (*Request, error) {
	return message.NewRequest(method, rawURL)
}

// DefaultOptions returns options with the engine's default timeouts and limits.
func DefaultOptions() Options {
	return client.DefaultOptions()
}

// Do sends req with a fresh default client.
func Do(ctx context.Context, req *Request, opts Options) (*Chain, error) {
	return client.New().Do(ctx, req, opts)
}

// Get fetches rawURL with default options, following redirects.
func Get(ctx context.Context, rawURL string) (*Chain, error) {
	req, err := NewRequest("GET", rawURL)
	if err != nil {
		return nil, err
	}
	opts := DefaultOptions()
	opts.FollowRedirects = true
	return Do(ctx, req, opts)
}

// Post sends body to rawURL with the given Content-Type and default options.
func Post(ctx context.Context, rawURL, contentType string, body []byte) (*Chain, error) {
	req, err := NewRequest("POST", rawURL)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		if err := req.Header.Add("Content-Type", contentType); err != nil {
			return nil, err
		}
	}
	if body == nil {
		body = []byte{}
	}
	req.Body = body
	return Do(ctx, req, DefaultOptions())
}

// KindOf returns the kind of a structured error, or "" for foreign errors.
func KindOf(err error) Kind {
	return errors.KindOf(err)
}

// IsTimeout reports whether err stems from a stream or context deadline.
func IsTimeout(err error) bool {
	return errors.IsTimeout(err)
}
