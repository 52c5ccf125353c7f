package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  NewValidationError("port out of range"),
			want: "[validation] port out of range",
		},
		{
			name: "with cause",
			err:  NewTransportError("read response", fmt.Errorf("connection reset")),
			want: "[transport] read response: connection reset",
		},
		{
			name: "dial carries endpoint",
			err:  NewDialError("example.com", 443, fmt.Errorf("refused")),
			want: "[transport] failed to connect to example.com:443: refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindMatchingWithIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewTooManyRedirects(5))

	if !stderrors.Is(err, &Error{Kind: KindTooManyRedirects}) {
		t.Error("Is failed to match the kind through wrapping")
	}
	if stderrors.Is(err, &Error{Kind: KindValidation}) {
		t.Error("Is matched a different kind")
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(NewMissingLocationHeader(302)); got != KindMissingLocationHeader {
		t.Errorf("KindOf = %q", got)
	}
	if got := KindOf(fmt.Errorf("wrapped: %w", NewMalformedChunkSize("xyz"))); got != KindMalformedChunkSize {
		t.Errorf("KindOf through wrapping = %q", got)
	}
	if got := KindOf(fmt.Errorf("plain")); got != "" {
		t.Errorf("KindOf(plain) = %q", got)
	}
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf(nil) = %q", got)
	}
}

func TestIsKind(t *testing.T) {
	err := NewConflictingContentLength([]string{"5", "6"})
	if !IsKind(err, KindConflictingContentLength) {
		t.Error("IsKind rejected the matching kind")
	}
	if IsKind(err, KindMalformedContentLength) {
		t.Error("IsKind accepted the wrong kind")
	}
	if !strings.Contains(err.Error(), "5, 6") {
		t.Errorf("values missing from message: %q", err)
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := NewTLSError("example.com", 443, cause)

	if !stderrors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if err.Host != "example.com" || err.Port != 443 {
		t.Errorf("endpoint context lost: %s:%d", err.Host, err.Port)
	}
}

type fakeTimeoutError struct{}

func (fakeTimeoutError) Error() string   { return "i/o timeout" }
func (fakeTimeoutError) Timeout() bool   { return true }
func (fakeTimeoutError) Temporary() bool { return false }

func TestIsTimeout(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "net timeout", err: fakeTimeoutError{}, want: true},
		{
			name: "wrapped net timeout",
			err:  NewTransportError("read response", &net.OpError{Op: "read", Err: fakeTimeoutError{}}),
			want: true,
		},
		{name: "context deadline", err: context.DeadlineExceeded, want: true},
		{
			name: "wrapped context deadline",
			err:  NewTransportError("dial", context.DeadlineExceeded),
			want: true,
		},
		{name: "plain failure", err: fmt.Errorf("boom"), want: false},
		{name: "validation", err: NewValidationError("bad"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTimeout(tt.err); got != tt.want {
				t.Fatalf("IsTimeout = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConstructorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want Kind
	}{
		{name: "header name", err: NewInvalidHeaderName("bad name"), want: KindInvalidHeaderName},
		{name: "header value", err: NewInvalidHeaderValue("X", "\x00"), want: KindInvalidHeaderValue},
		{name: "target", err: NewInvalidTarget("/a b", "contains whitespace"), want: KindInvalidTarget},
		{name: "status line", err: NewMalformedStatusLine("too short"), want: KindMalformedStatusLine},
		{name: "header line", err: NewMalformedHeaderLine("no colon"), want: KindMalformedHeaderLine},
		{name: "content length", err: NewMalformedContentLength("abc", nil), want: KindMalformedContentLength},
		{name: "chunk mismatch", err: NewChunkLengthMismatch("missing CRLF"), want: KindChunkLengthMismatch},
		{name: "resolve", err: NewResolveError("x.invalid", fmt.Errorf("no host")), want: KindTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.want {
				t.Fatalf("kind = %q, want %q", tt.err.Kind, tt.want)
			}
		})
	}
}

func TestTimeoutErrorsKeepKind(t *testing.T) {
	// A deadline on the stream surfaces as a transport error whose cause
	// still answers IsTimeout.
	cause := &net.OpError{Op: "read", Err: fakeTimeoutError{}}
	err := NewTransportError("read response", cause)

	if !IsKind(err, KindTransport) {
		t.Error("kind lost")
	}
	if !IsTimeout(err) {
		t.Error("timeout not detected through the structured error")
	}
}
