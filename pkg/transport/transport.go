// Package transport establishes the plain-TCP and TLS streams the engine
// writes requests to. Every connection serves exactly one exchange.
package transport

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/idna"

	"github.com/httpwire/httpc/pkg/constants"
	"github.com/httpwire/httpc/pkg/errors"
	"github.com/httpwire/httpc/pkg/timing"
	"github.com/httpwire/httpc/pkg/tlsconfig"
)

// Stream is the byte-level connection contract the engine reads and writes.
// net.Conn satisfies it.
type Stream interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Config describes one connection attempt.
type Config struct {
	Scheme string
	Host   string
	Port   int

	// ConnectIP overrides DNS resolution with a fixed address.
	ConnectIP string
	// UnixPath dials a unix domain socket instead of TCP.
	UnixPath string
	// Proxy routes the connection through an upstream proxy.
	Proxy *ProxyConfig

	SNI           string
	DisableSNI    bool
	InsecureTLS   bool
	TLSMinVersion uint16
	RootCAs       []byte

	ConnTimeout time.Duration
	DNSTimeout  time.Duration
}

// Info records where a connection actually landed and what the TLS layer
// negotiated.
type Info struct {
	ConnectedIP   string
	ConnectedPort int
	TLSVersion    string
	TLSCipher     string
	TLSServerName string
	Proxied       bool
}

// Dialer establishes streams. Implementations fill the timer's DNS, TCP and
// TLS phases as they pass through them.
type Dialer interface {
	Dial(ctx context.Context, config Config, timer *timing.Timer) (Stream, *Info, error)
}

// NetDialer is the production Dialer: resolver lookup, TCP (or unix socket,
// or proxy tunnel), then a TLS upgrade for https.
type NetDialer struct {
	resolver *net.Resolver
}

// NewDialer returns a NetDialer backed by the default resolver.
func NewDialer() *NetDialer {
	return &NetDialer{resolver: net.DefaultResolver}
}

// NewDialerWithResolver returns a NetDialer using a custom resolver.
func NewDialerWithResolver(resolver *net.Resolver) *NetDialer {
	return &NetDialer{resolver: resolver}
}

// Dial connects per config and returns the stream plus connection metadata.
func (d *NetDialer) Dial(ctx context.Context, config Config, timer *timing.Timer) (Stream, *Info, error) {
	if err := validateConfig(config); err != nil {
		return nil, nil, err
	}

	info := &Info{}
	var conn net.Conn
	var err error
	switch {
	case config.UnixPath != "":
		conn, err = d.dialUnix(ctx, config, timer)
		if err != nil {
			return nil, nil, err
		}
		info.ConnectedIP = config.UnixPath
	case config.Proxy != nil:
		conn, err = d.dialViaProxy(ctx, config, timer)
		if err != nil {
			return nil, nil, err
		}
		info.Proxied = true
		fillRemoteAddr(conn, info)
	default:
		addr, rerr := d.resolveAddress(ctx, config, timer)
		if rerr != nil {
			return nil, nil, rerr
		}
		conn, err = d.dialTCP(ctx, addr, connTimeout(config), timer)
		if err != nil {
			return nil, nil, errors.NewDialError(config.Host, config.Port, err)
		}
		fillRemoteAddr(conn, info)
	}

	if strings.EqualFold(config.Scheme, "https") {
		tlsConn, terr := d.upgradeTLS(ctx, conn, config, timer)
		if terr != nil {
			conn.Close()
			return nil, nil, errors.NewTLSError(config.Host, config.Port, terr)
		}
		state := tlsConn.ConnectionState()
		info.TLSVersion = tlsconfig.VersionName(state.Version)
		info.TLSCipher = tlsconfig.CipherSuiteName(state.CipherSuite)
		info.TLSServerName = state.ServerName
		conn = tlsConn
	}

	return conn, info, nil
}

func validateConfig(config Config) error {
	if config.Host == "" {
		return errors.NewValidationError("host cannot be empty")
	}
	if config.Port <= 0 || config.Port > 65535 {
		return errors.NewValidationError("port must be between 1 and 65535")
	}
	if config.Scheme != "http" && config.Scheme != "https" {
		return errors.NewValidationError("scheme must be http or https")
	}
	if config.UnixPath != "" && config.Proxy != nil {
		return errors.NewValidationError("unix socket and proxy cannot be combined")
	}
	return nil
}

func connTimeout(config Config) time.Duration {
	if config.ConnTimeout > 0 {
		return config.ConnTimeout
	}
	return constants.DefaultConnTimeout
}

// asciiHost converts an international hostname to its DNS (punycode) form.
// IP literals pass through untouched.
func asciiHost(host string) (string, error) {
	if net.ParseIP(host) != nil {
		return host, nil
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", errors.NewValidationError("invalid host name " + strconv.Quote(host))
	}
	return ascii, nil
}

func (d *NetDialer) resolveAddress(ctx context.Context, config Config, timer *timing.Timer) (string, error) {
	port := strconv.Itoa(config.Port)
	if config.ConnectIP != "" {
		return net.JoinHostPort(config.ConnectIP, port), nil
	}

	host, err := asciiHost(config.Host)
	if err != nil {
		return "", err
	}
	if net.ParseIP(host) != nil {
		return net.JoinHostPort(host, port), nil
	}

	timer.StartDNS()
	defer timer.EndDNS()

	dnsTimeout := config.DNSTimeout
	if dnsTimeout <= 0 {
		dnsTimeout = constants.DefaultDNSTimeout
	}
	lookupCtx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()

	addrs, err := d.resolver.LookupIPAddr(lookupCtx, host)
	if err != nil {
		return "", errors.NewResolveError(config.Host, err)
	}
	if len(addrs) == 0 {
		return "", errors.NewResolveError(config.Host, errors.NewValidationError("no IP addresses found"))
	}
	return net.JoinHostPort(addrs[0].IP.String(), port), nil
}

func (d *NetDialer) dialTCP(ctx context.Context, addr string, timeout time.Duration, timer *timing.Timer) (net.Conn, error) {
	timer.StartTCP()
	defer timer.EndTCP()

	dialer := &net.Dialer{Timeout: timeout}
	return dialer.DialContext(ctx, "tcp", addr)
}

func (d *NetDialer) dialUnix(ctx context.Context, config Config, timer *timing.Timer) (net.Conn, error) {
	timer.StartTCP()
	defer timer.EndTCP()

	dialer := &net.Dialer{Timeout: connTimeout(config)}
	conn, err := dialer.DialContext(ctx, "unix", config.UnixPath)
	if err != nil {
		return nil, errors.NewTransportError("connect to unix socket "+config.UnixPath, err)
	}
	return conn, nil
}

func (d *NetDialer) upgradeTLS(ctx context.Context, conn net.Conn, config Config, timer *timing.Timer) (*tls.Conn, error) {
	timer.StartTLS()
	defer timer.EndTLS()

	serverName := config.SNI
	if serverName == "" {
		name, err := asciiHost(config.Host)
		if err != nil {
			return nil, err
		}
		serverName = name
	}
	cfg, err := tlsconfig.Client(tlsconfig.Options{
		ServerName:         serverName,
		DisableSNI:         config.DisableSNI,
		InsecureSkipVerify: config.InsecureTLS,
		MinVersion:         config.TLSMinVersion,
		RootCAs:            config.RootCAs,
	})
	if err != nil {
		return nil, err
	}

	handshakeCtx, cancel := context.WithTimeout(ctx, connTimeout(config))
	defer cancel()

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(handshakeCtx); err != nil {
		return nil, err
	}
	return tlsConn, nil
}

func fillRemoteAddr(conn net.Conn, info *Info) {
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		info.ConnectedIP = addr.IP.String()
		info.ConnectedPort = addr.Port
	}
}
