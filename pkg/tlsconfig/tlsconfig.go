// Package tlsconfig builds the client TLS configuration and names negotiated
// parameters for display.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/httpwire/httpc/pkg/errors"
)

// Supported protocol versions.
const (
	VersionTLS10 uint16 = tls.VersionTLS10
	VersionTLS11 uint16 = tls.VersionTLS11
	VersionTLS12 uint16 = tls.VersionTLS12
	VersionTLS13 uint16 = tls.VersionTLS13
)

// Options selects how the TLS client configuration is built.
type Options struct {
	// ServerName is the SNI value and certificate verification name.
	ServerName string
	// DisableSNI leaves the server_name extension out of the handshake.
	DisableSNI bool
	// InsecureSkipVerify disables certificate chain and hostname checks.
	InsecureSkipVerify bool
	// MinVersion bounds the negotiated version from below. Zero means TLS 1.2.
	MinVersion uint16
	// RootCAs is a PEM bundle replacing the system trust store when set.
	RootCAs []byte
}

// Client builds a tls.Config for one HTTPS connection.
func Client(opts Options) (*tls.Config, error) {
	minVersion := opts.MinVersion
	if minVersion == 0 {
		minVersion = VersionTLS12
	}
	cfg := &tls.Config{
		MinVersion:         minVersion,
		InsecureSkipVerify: opts.InsecureSkipVerify,
		NextProtos:         []string{"http/1.1"},
	}
	if !opts.DisableSNI {
		cfg.ServerName = opts.ServerName
	}
	if len(opts.RootCAs) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(opts.RootCAs) {
			return nil, errors.NewValidationError("no certificates found in CA bundle")
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

// VersionName returns a human-readable name for a TLS version.
func VersionName(version uint16) string {
	switch version {
	case VersionTLS10:
		return "TLS 1.0"
	case VersionTLS11:
		return "TLS 1.1"
	case VersionTLS12:
		return "TLS 1.2"
	case VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("0x%04x", version)
	}
}

// CipherSuiteName returns the IANA name of a cipher suite.
func CipherSuiteName(suite uint16) string {
	return tls.CipherSuiteName(suite)
}
