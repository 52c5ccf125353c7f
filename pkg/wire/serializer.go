// Package wire implements the HTTP/1.1 byte-level codec: request
// serialization and incremental response parsing.
package wire

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/httpwire/httpc/pkg/errors"
	"github.com/httpwire/httpc/pkg/message"
)

// WriteRequest serializes req to w exactly as modeled: request line, header
// fields in sequence order, a blank line, then the body bytes verbatim. No
// headers are invented or reordered here; default-header injection happens
// before serialization.
func WriteRequest(w io.Writer, req *message.Request) error {
	if req.URL == nil {
		return errors.NewValidationError("request has no URL")
	}
	if err := validateMethod(req.Method); err != nil {
		return err
	}
	target := req.Target()
	if err := validateTarget(target); err != nil {
		return err
	}
	proto := req.Proto
	if proto == "" {
		proto = message.ProtoHTTP11
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(req.Method)
	bw.WriteByte(' ')
	bw.WriteString(target)
	bw.WriteByte(' ')
	bw.WriteString(proto)
	bw.WriteString("\r\n")
	if req.Header != nil {
		for _, f := range req.Header.Fields() {
			bw.WriteString(f.Name)
			bw.WriteString(": ")
			bw.WriteString(f.Value)
			bw.WriteString("\r\n")
		}
	}
	bw.WriteString("\r\n")
	if req.Body != nil {
		bw.Write(req.Body)
	}
	if err := bw.Flush(); err != nil {
		return errors.NewTransportError("write request", err)
	}
	return nil
}

// EncodeRequest serializes req into a byte slice.
func EncodeRequest(req *message.Request) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteRequest(&buf, req); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func validateMethod(method string) error {
	if method == "" {
		return errors.NewValidationError("request method is empty")
	}
	for _, r := range method {
		if !httpguts.IsTokenRune(r) {
			return errors.NewValidationError(fmt.Sprintf("invalid request method %q", method))
		}
	}
	return nil
}

// validateTarget rejects targets that would corrupt the request line. The
// request-target is a single token on the wire; whitespace, control bytes,
// and characters that only exist percent-encoded in a URI have no raw form
// there. The engine never rewrites the target, so an unescaped byte is the
// caller's error.
func validateTarget(target string) error {
	for i := 0; i < len(target); i++ {
		c := target[i]
		switch {
		case c <= ' ' || c >= 0x7f:
			return errors.NewInvalidTarget(target, "contains whitespace, control, or non-ASCII bytes")
		case strings.IndexByte("\"<>\\^`{|}", c) >= 0:
			return errors.NewInvalidTarget(target, fmt.Sprintf("%q must be percent-encoded", c))
		}
	}
	return nil
}
