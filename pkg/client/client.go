// Package client runs request/response exchanges over fresh connections and
// follows redirects.
package client

import (
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/idna"

	"github.com/httpwire/httpc/pkg/constants"
	"github.com/httpwire/httpc/pkg/errors"
	"github.com/httpwire/httpc/pkg/header"
	"github.com/httpwire/httpc/pkg/message"
	"github.com/httpwire/httpc/pkg/timing"
	"github.com/httpwire/httpc/pkg/transport"
	"github.com/httpwire/httpc/pkg/wire"
)

// Options controls connection establishment, redirect policy, and default
// header injection.
type Options struct {
	// FollowRedirects enables the redirect loop. MaxRedirects bounds how many
	// redirects are followed; with a non-positive value the first response is
	// returned as-is even when it is a redirect.
	FollowRedirects bool
	MaxRedirects    int
	// Rewrite decides method and body handling per redirect status. Nil means
	// DefaultRewrite.
	Rewrite RewriteRule

	// Connection knobs, applied to every hop.
	ConnectIP   string
	SNI         string
	DisableSNI  bool
	InsecureTLS bool
	UnixPath    string
	ProxyURL    string

	TLSMinVersion uint16
	RootCAs       []byte

	ConnTimeout  time.Duration
	DNSTimeout   time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// BodyMemLimit is the per-response in-memory body threshold before
	// spilling to disk. Zero means constants.DefaultBodyMemLimit.
	BodyMemLimit int64

	// UserAgent overrides the default User-Agent header value.
	UserAgent string
}

// DefaultOptions returns the options used when callers pass the zero value.
func DefaultOptions() Options {
	return Options{
		MaxRedirects: constants.DefaultMaxRedirects,
		ConnTimeout:  constants.DefaultConnTimeout,
		DNSTimeout:   constants.DefaultDNSTimeout,
		ReadTimeout:  constants.DefaultReadTimeout,
		WriteTimeout: constants.DefaultWriteTimeout,
	}
}

// Client executes HTTP exchanges. Each hop dials a fresh connection and
// closes it after the response completes.
type Client struct {
	dialer transport.Dialer
}

// New returns a Client backed by the production dialer.
func New() *Client {
	return &Client{dialer: transport.NewDialer()}
}

// NewWithDialer returns a Client using a custom dialer.
func NewWithDialer(d transport.Dialer) *Client {
	return &Client{dialer: d}
}

// Do sends req and returns the chain of hops it produced. Without redirect
// following the chain has exactly one hop. The caller owns the chain and must
// Close it to release response bodies.
func (c *Client) Do(ctx context.Context, req *message.Request, opts Options) (*message.Chain, error) {
	if c.dialer == nil {
		return nil, errors.NewValidationError("client has no dialer")
	}
	if req == nil || req.URL == nil {
		return nil, errors.NewValidationError("request has no URL")
	}

	var proxyConfig *transport.ProxyConfig
	if opts.ProxyURL != "" {
		pc, err := transport.ParseProxyURL(opts.ProxyURL)
		if err != nil {
			return nil, err
		}
		proxyConfig = pc
	}

	rewrite := opts.Rewrite
	if rewrite == nil {
		rewrite = DefaultRewrite
	}
	follow := opts.FollowRedirects && opts.MaxRedirects > 0

	chain := &message.Chain{}
	current, err := c.prepare(req, opts)
	if err != nil {
		return nil, err
	}
	for {
		resp, metrics, err := c.exchange(ctx, current, opts, proxyConfig)
		if err != nil {
			chain.Close()
			return nil, err
		}
		chain.Hops = append(chain.Hops, message.Hop{Request: current, Response: resp, Metrics: metrics})

		if !follow || !resp.IsRedirect() {
			return chain, nil
		}
		if chain.Len() > opts.MaxRedirects {
			chain.Close()
			return nil, errors.NewTooManyRedirects(opts.MaxRedirects)
		}
		next, err := nextRequest(current, resp, rewrite)
		if err != nil {
			chain.Close()
			return nil, err
		}
		current, err = c.prepare(next, opts)
		if err != nil {
			chain.Close()
			return nil, err
		}
	}
}

// exchange performs one request/response cycle on a fresh connection.
func (c *Client) exchange(ctx context.Context, req *message.Request, opts Options, proxyConfig *transport.ProxyConfig) (*message.Response, timing.Metrics, error) {
	scheme, host, port, err := endpointOf(req)
	if err != nil {
		return nil, timing.Metrics{}, err
	}

	config := transport.Config{
		Scheme:        scheme,
		Host:          host,
		Port:          port,
		ConnectIP:     opts.ConnectIP,
		UnixPath:      opts.UnixPath,
		Proxy:         proxyConfig,
		SNI:           opts.SNI,
		DisableSNI:    opts.DisableSNI,
		InsecureTLS:   opts.InsecureTLS,
		TLSMinVersion: opts.TLSMinVersion,
		RootCAs:       opts.RootCAs,
		ConnTimeout:   opts.ConnTimeout,
		DNSTimeout:    opts.DNSTimeout,
	}

	timer := timing.NewTimer()
	stream, info, err := c.dialer.Dial(ctx, config, timer)
	if err != nil {
		return nil, timer.Metrics(), err
	}
	defer stream.Close()

	if opts.WriteTimeout > 0 {
		stream.SetWriteDeadline(time.Now().Add(opts.WriteTimeout))
	}
	if err := wire.WriteRequest(stream, req); err != nil {
		return nil, timer.Metrics(), err
	}

	resp, err := c.readResponse(stream, req.Method, opts, timer)
	if err != nil {
		return nil, timer.Metrics(), err
	}
	resp.Conn = message.ConnInfo{
		ConnectedIP:   info.ConnectedIP,
		ConnectedPort: info.ConnectedPort,
		TLSVersion:    info.TLSVersion,
		TLSCipher:     info.TLSCipher,
		TLSServerName: info.TLSServerName,
		Proxied:       info.Proxied,
	}
	return resp, timer.Metrics(), nil
}

// readResponse drives the parser off the stream, timing the wait for the
// first response byte.
func (c *Client) readResponse(stream transport.Stream, method string, opts Options, timer *timing.Timer) (*message.Response, error) {
	if opts.ReadTimeout > 0 {
		stream.SetReadDeadline(time.Now().Add(opts.ReadTimeout))
	}

	parser := wire.NewParser(wire.ParserOptions{
		RequestMethod: method,
		BodyMemLimit:  opts.BodyMemLimit,
	})
	timer.StartTTFB()
	sawFirstByte := false
	buf := make([]byte, 32*1024)
	for !parser.Done() {
		n, rerr := stream.Read(buf)
		if n > 0 {
			if !sawFirstByte {
				timer.EndTTFB()
				sawFirstByte = true
			}
			if _, err := parser.Feed(buf[:n]); err != nil {
				return nil, err
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				if err := parser.CloseInput(); err != nil {
					return nil, err
				}
				break
			}
			parser.Abort()
			return nil, errors.NewTransportError("read response", rerr)
		}
	}
	if !sawFirstByte {
		timer.EndTTFB()
	}
	return parser.Response(), nil
}

// prepare clones req and injects the engine-owned headers: Host (first),
// User-Agent, Connection: close, and a recomputed Content-Length whenever a
// body is present. Caller-supplied values for the first three win; a caller
// Content-Length is always replaced.
func (c *Client) prepare(req *message.Request, opts Options) (*message.Request, error) {
	out := req.Clone()
	if out.Header == nil {
		out.Header = header.New()
	}

	rebuilt := header.New()
	if !out.Header.Has("Host") {
		authority, err := asciiAuthority(out.Authority())
		if err != nil {
			return nil, err
		}
		if err := rebuilt.Add("Host", authority); err != nil {
			return nil, err
		}
	}
	if !out.Header.Has("User-Agent") {
		ua := opts.UserAgent
		if ua == "" {
			ua = constants.DefaultUserAgent
		}
		if err := rebuilt.Add("User-Agent", ua); err != nil {
			return nil, err
		}
	}
	if !out.Header.Has("Connection") {
		if err := rebuilt.Add("Connection", "close"); err != nil {
			return nil, err
		}
	}
	for _, f := range out.Header.Fields() {
		if strings.EqualFold(f.Name, "Content-Length") {
			continue
		}
		if err := rebuilt.Add(f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	if out.Body != nil {
		if err := rebuilt.Add("Content-Length", strconv.Itoa(len(out.Body))); err != nil {
			return nil, err
		}
	}
	out.Header = rebuilt
	return out, nil
}

// endpointOf extracts the connection endpoint from the request URL.
func endpointOf(req *message.Request) (scheme, host string, port int, err error) {
	scheme = strings.ToLower(req.URL.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", "", 0, errors.NewValidationError("unsupported scheme " + strconv.Quote(req.URL.Scheme))
	}
	host = req.URL.Hostname()
	if host == "" {
		return "", "", 0, errors.NewValidationError("request URL has no host")
	}
	if portStr := req.URL.Port(); portStr != "" {
		port, err = strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, errors.NewValidationError("invalid port " + strconv.Quote(portStr))
		}
	} else if scheme == "https" {
		port = constants.DefaultHTTPSPort
	} else {
		port = constants.DefaultHTTPPort
	}
	return scheme, host, port, nil
}

// asciiAuthority converts the hostname part of host[:port] to punycode for
// the wire, leaving IP literals and the port untouched.
func asciiAuthority(authority string) (string, error) {
	if strings.HasPrefix(authority, "[") {
		// IPv6 literal, with or without port.
		return authority, nil
	}
	host, port, err := net.SplitHostPort(authority)
	if err != nil {
		host, port = authority, ""
	}
	if net.ParseIP(host) != nil {
		return authority, nil
	}
	ascii, aerr := idna.Lookup.ToASCII(host)
	if aerr != nil {
		return "", errors.NewValidationError("invalid host name " + strconv.Quote(host))
	}
	if port != "" {
		return net.JoinHostPort(ascii, port), nil
	}
	return ascii, nil
}
