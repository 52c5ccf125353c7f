// Package timing measures the phases of a single request/response hop.
package timing

import (
	"fmt"
	"time"
)

// Metrics captures per-phase durations for one hop.
type Metrics struct {
	DNSLookup    time.Duration
	TCPConnect   time.Duration
	TLSHandshake time.Duration
	TTFB         time.Duration
	Total        time.Duration
}

// String renders the metrics on one line for verbose output.
func (m Metrics) String() string {
	return fmt.Sprintf("dns %v, connect %v, tls %v, ttfb %v, total %v",
		m.DNSLookup, m.TCPConnect, m.TLSHandshake, m.TTFB, m.Total)
}

// ConnectionTime returns the combined connection establishment time.
func (m Metrics) ConnectionTime() time.Duration {
	return m.DNSLookup + m.TCPConnect + m.TLSHandshake
}

// Timer records phase boundaries for a hop in progress.
type Timer struct {
	start     time.Time
	dnsStart  time.Time
	dnsEnd    time.Time
	tcpStart  time.Time
	tcpEnd    time.Time
	tlsStart  time.Time
	tlsEnd    time.Time
	ttfbStart time.Time
	ttfbEnd   time.Time
}

// NewTimer starts timing a hop.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// StartDNS marks the beginning of name resolution.
func (t *Timer) StartDNS() { t.dnsStart = time.Now() }

// EndDNS marks the end of name resolution.
func (t *Timer) EndDNS() { t.dnsEnd = time.Now() }

// StartTCP marks the beginning of the TCP connect.
func (t *Timer) StartTCP() { t.tcpStart = time.Now() }

// EndTCP marks the end of the TCP connect.
func (t *Timer) EndTCP() { t.tcpEnd = time.Now() }

// StartTLS marks the beginning of the TLS handshake.
func (t *Timer) StartTLS() { t.tlsStart = time.Now() }

// EndTLS marks the end of the TLS handshake.
func (t *Timer) EndTLS() { t.tlsEnd = time.Now() }

// StartTTFB marks the moment the request was fully written.
func (t *Timer) StartTTFB() { t.ttfbStart = time.Now() }

// EndTTFB marks the arrival of the first response byte.
func (t *Timer) EndTTFB() { t.ttfbEnd = time.Now() }

// Metrics returns the durations measured so far; unvisited phases stay zero.
func (t *Timer) Metrics() Metrics {
	m := Metrics{Total: time.Since(t.start)}
	if !t.dnsStart.IsZero() && !t.dnsEnd.IsZero() {
		m.DNSLookup = t.dnsEnd.Sub(t.dnsStart)
	}
	if !t.tcpStart.IsZero() && !t.tcpEnd.IsZero() {
		m.TCPConnect = t.tcpEnd.Sub(t.tcpStart)
	}
	if !t.tlsStart.IsZero() && !t.tlsEnd.IsZero() {
		m.TLSHandshake = t.tlsEnd.Sub(t.tlsStart)
	}
	if !t.ttfbStart.IsZero() && !t.ttfbEnd.IsZero() {
		m.TTFB = t.ttfbEnd.Sub(t.ttfbStart)
	}
	return m
}
