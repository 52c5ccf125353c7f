// Package errors provides the structured error types surfaced by the httpc engine.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind classifies an engine error.
type Kind string

const (
	// KindInvalidHeaderName reports a caller-supplied header name that is not a valid field-name token.
	KindInvalidHeaderName Kind = "invalid_header_name"
	// KindInvalidHeaderValue reports a caller-supplied header value containing forbidden bytes.
	KindInvalidHeaderValue Kind = "invalid_header_value"
	// KindInvalidTarget reports a request-target with bytes the caller should have percent-encoded.
	KindInvalidTarget Kind = "invalid_target"
	// KindMalformedStatusLine reports an unparsable response status line.
	KindMalformedStatusLine Kind = "malformed_status_line"
	// KindMalformedHeaderLine reports an unparsable response header line (including obs-fold continuations).
	KindMalformedHeaderLine Kind = "malformed_header_line"
	// KindMalformedContentLength reports a Content-Length value that is not a non-negative integer.
	KindMalformedContentLength Kind = "malformed_content_length"
	// KindConflictingContentLength reports multiple Content-Length headers that disagree.
	KindConflictingContentLength Kind = "conflicting_content_length"
	// KindMalformedChunkSize reports a chunk-size line that is not hexadecimal.
	KindMalformedChunkSize Kind = "malformed_chunk_size"
	// KindChunkLengthMismatch reports chunk data not terminated by CRLF where required.
	KindChunkLengthMismatch Kind = "chunk_length_mismatch"
	// KindMissingLocationHeader reports a redirect response without a Location header.
	KindMissingLocationHeader Kind = "missing_location_header"
	// KindTooManyRedirects reports a redirect chain exceeding the configured budget.
	KindTooManyRedirects Kind = "too_many_redirects"
	// KindTransport reports an I/O failure on the underlying stream, wrapping its cause.
	KindTransport Kind = "transport"
	// KindValidation reports malformed engine configuration or caller input.
	KindValidation Kind = "validation"
)

// Error carries the kind plus whatever endpoint context was known when it occurred.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Host    string
	Port    int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors of the same kind, so errors.Is works against a kind template.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// NewInvalidHeaderName creates an invalid header name error.
func NewInvalidHeaderName(name string) *Error {
	return &Error{
		Kind:    KindInvalidHeaderName,
		Message: fmt.Sprintf("invalid header name %q", name),
	}
}

// NewInvalidHeaderValue creates an invalid header value error.
func NewInvalidHeaderValue(name, value string) *Error {
	return &Error{
		Kind:    KindInvalidHeaderValue,
		Message: fmt.Sprintf("invalid value %q for header %q", value, name),
	}
}

// NewInvalidTarget creates an invalid request-target error.
func NewInvalidTarget(target, reason string) *Error {
	return &Error{
		Kind:    KindInvalidTarget,
		Message: fmt.Sprintf("request-target %q %s", target, reason),
	}
}

// NewMalformedStatusLine creates a malformed status line error.
func NewMalformedStatusLine(detail string) *Error {
	return &Error{
		Kind:    KindMalformedStatusLine,
		Message: detail,
	}
}

// NewMalformedHeaderLine creates a malformed header line error.
func NewMalformedHeaderLine(detail string) *Error {
	return &Error{
		Kind:    KindMalformedHeaderLine,
		Message: detail,
	}
}

// NewMalformedContentLength creates a malformed Content-Length error.
func NewMalformedContentLength(value string, cause error) *Error {
	return &Error{
		Kind:    KindMalformedContentLength,
		Message: fmt.Sprintf("invalid Content-Length %q", value),
		Cause:   cause,
	}
}

// NewConflictingContentLength creates an error for disagreeing Content-Length headers.
func NewConflictingContentLength(values []string) *Error {
	return &Error{
		Kind:    KindConflictingContentLength,
		Message: fmt.Sprintf("conflicting Content-Length headers: %s", strings.Join(values, ", ")),
	}
}

// NewMalformedChunkSize creates a malformed chunk-size error.
func NewMalformedChunkSize(line string) *Error {
	return &Error{
		Kind:    KindMalformedChunkSize,
		Message: fmt.Sprintf("invalid chunk size line %q", line),
	}
}

// NewChunkLengthMismatch creates a chunk framing error.
func NewChunkLengthMismatch(detail string) *Error {
	return &Error{
		Kind:    KindChunkLengthMismatch,
		Message: detail,
	}
}

// NewMissingLocationHeader creates an error for a redirect without Location.
func NewMissingLocationHeader(status int) *Error {
	return &Error{
		Kind:    KindMissingLocationHeader,
		Message: fmt.Sprintf("status %d response has no Location header", status),
	}
}

// NewTooManyRedirects creates a redirect budget error.
func NewTooManyRedirects(max int) *Error {
	return &Error{
		Kind:    KindTooManyRedirects,
		Message: fmt.Sprintf("redirect chain exceeded %d hops", max),
	}
}

// NewTransportError creates a transport I/O error.
func NewTransportError(operation string, cause error) *Error {
	return &Error{
		Kind:    KindTransport,
		Message: operation,
		Cause:   cause,
	}
}

// NewResolveError creates a transport error for a failed host lookup.
func NewResolveError(host string, cause error) *Error {
	return &Error{
		Kind:    KindTransport,
		Message: fmt.Sprintf("failed to resolve %s", host),
		Cause:   cause,
		Host:    host,
	}
}

// NewDialError creates a transport error for a failed connection attempt.
func NewDialError(host string, port int, cause error) *Error {
	return &Error{
		Kind:    KindTransport,
		Message: fmt.Sprintf("failed to connect to %s:%d", host, port),
		Cause:   cause,
		Host:    host,
		Port:    port,
	}
}

// NewTLSError creates a transport error for a failed TLS handshake.
func NewTLSError(host string, port int, cause error) *Error {
	return &Error{
		Kind:    KindTransport,
		Message: fmt.Sprintf("TLS handshake with %s:%d failed", host, port),
		Cause:   cause,
		Host:    host,
		Port:    port,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
	}
}

// KindOf returns the kind of a structured error, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is a structured error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsTimeout reports whether err stems from a deadline, either on the stream or the context.
func IsTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
