package wire

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/httpwire/httpc/pkg/buffer"
	"github.com/httpwire/httpc/pkg/constants"
	"github.com/httpwire/httpc/pkg/errors"
	"github.com/httpwire/httpc/pkg/header"
	"github.com/httpwire/httpc/pkg/message"
)

// ParserOptions configures a response parse.
type ParserOptions struct {
	// RequestMethod is the method of the request this response answers.
	// HEAD responses never carry a body regardless of framing headers.
	RequestMethod string
	// BodyMemLimit is the in-memory body threshold before spilling to disk.
	// Zero means constants.DefaultBodyMemLimit.
	BodyMemLimit int64
}

type parseState uint8

const (
	stStatusLine parseState = iota
	stHeaders
	stBodyFixed
	stBodyUntilClose
	stChunkSize
	stChunkData
	stChunkDataCR
	stChunkDataLF
	stTrailers
	stDone
	stFailed
)

// Parser is an incremental HTTP/1.1 response parser. Bytes arrive through
// Feed in arbitrary slices; the split points never change the outcome. Once
// Done reports true the parsed response is available from Response and
// further input is left unconsumed. A parse error is terminal: every later
// call returns the same error.
type Parser struct {
	opts ParserOptions

	state parseState
	line  []byte
	hdr   *header.Set
	body  *buffer.Buffer

	proto     string
	status    int
	reason    string
	mode      message.BodyMode
	remaining int64

	headerBytes int
	sawInput    bool
	resp        *message.Response
	err         error
}

// NewParser returns a parser ready to receive the status line.
func NewParser(opts ParserOptions) *Parser {
	if opts.BodyMemLimit <= 0 {
		opts.BodyMemLimit = constants.DefaultBodyMemLimit
	}
	return &Parser{opts: opts, hdr: header.New()}
}

// Feed consumes bytes from b and advances the parse. It returns how many
// bytes it consumed; once the message is complete the parser stops consuming,
// so n may be less than len(b) and trailing bytes stay with the caller.
func (p *Parser) Feed(b []byte) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	if len(b) > 0 {
		p.sawInput = true
	}
	n := 0
	for n < len(b) && p.state != stDone {
		var consumed int
		var err error
		switch p.state {
		case stStatusLine:
			consumed, err = p.feedStatusLine(b[n:])
		case stHeaders:
			consumed, err = p.feedFieldLine(b[n:], false)
		case stBodyFixed:
			consumed, err = p.feedFixed(b[n:])
		case stBodyUntilClose:
			consumed, err = p.feedUntilClose(b[n:])
		case stChunkSize:
			consumed, err = p.feedChunkSize(b[n:])
		case stChunkData:
			consumed, err = p.feedChunkData(b[n:])
		case stChunkDataCR, stChunkDataLF:
			consumed, err = p.feedChunkTerminator(b[n:])
		case stTrailers:
			consumed, err = p.feedFieldLine(b[n:], true)
		}
		n += consumed
		if err != nil {
			p.fail(err)
			return n, p.err
		}
	}
	return n, nil
}

// CloseInput signals that the peer closed the connection. For a read-until-
// close body this completes the message; anywhere else before completion it
// is a truncation error.
func (p *Parser) CloseInput() error {
	if p.err != nil {
		return p.err
	}
	switch p.state {
	case stDone:
		return nil
	case stBodyUntilClose:
		return p.finish()
	case stStatusLine:
		if !p.sawInput {
			p.fail(errors.NewTransportError("read status line", fmt.Errorf("%w: connection closed before any response byte", io.ErrUnexpectedEOF)))
		} else {
			p.fail(errors.NewTransportError("read status line", io.ErrUnexpectedEOF))
		}
	case stHeaders, stTrailers:
		p.fail(errors.NewTransportError("read header section", io.ErrUnexpectedEOF))
	case stBodyFixed:
		got := p.body.Size()
		p.fail(errors.NewTransportError("read response body",
			fmt.Errorf("%w: got %d of %d body bytes", io.ErrUnexpectedEOF, got, got+p.remaining)))
	default:
		p.fail(errors.NewTransportError("read chunked body", io.ErrUnexpectedEOF))
	}
	return p.err
}

// Abort abandons an in-flight parse and releases the partial body buffer.
// After Done the buffer belongs to the response and Abort leaves it alone.
func (p *Parser) Abort() {
	if p.state == stDone || p.state == stFailed {
		return
	}
	p.fail(errors.NewTransportError("response abandoned", nil))
}

// Done reports whether a complete response has been parsed.
func (p *Parser) Done() bool {
	return p.state == stDone
}

// Err returns the terminal parse error, if any.
func (p *Parser) Err() error {
	return p.err
}

// Response returns the parsed response once Done reports true, nil before
// that. Ownership of the response and its body buffer passes to the caller.
func (p *Parser) Response() *message.Response {
	return p.resp
}

func (p *Parser) fail(err error) {
	p.err = err
	p.state = stFailed
	if p.body != nil {
		p.body.Close()
		p.body = nil
	}
}

func (p *Parser) finish() error {
	if p.body == nil {
		p.body = buffer.FromBytes(nil)
	}
	p.resp = &message.Response{
		Proto:      p.proto,
		StatusCode: p.status,
		Reason:     p.reason,
		Header:     p.hdr,
		Body:       p.body,
		BodyMode:   p.mode,
	}
	p.state = stDone
	return nil
}

// accumLine gathers bytes into the pending line until LF, enforcing limit on
// the line length. A returned line has its terminator (and one optional
// preceding CR) stripped.
func (p *Parser) accumLine(b []byte, limit int) (line []byte, consumed int, complete, overflow bool) {
	j := bytes.IndexByte(b, '\n')
	if j < 0 {
		p.line = append(p.line, b...)
		return nil, len(b), false, len(p.line) > limit
	}
	p.line = append(p.line, b[:j]...)
	consumed = j + 1
	if len(p.line) > limit {
		return nil, consumed, false, true
	}
	line = p.line
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	p.line = p.line[:0]
	return line, consumed, true, false
}

func (p *Parser) feedStatusLine(b []byte) (int, error) {
	line, consumed, complete, overflow := p.accumLine(b, constants.MaxStatusLineBytes)
	if overflow {
		return consumed, errors.NewMalformedStatusLine(fmt.Sprintf("status line exceeds %d bytes", constants.MaxStatusLineBytes))
	}
	if !complete {
		return consumed, nil
	}
	if err := p.parseStatusLine(string(line)); err != nil {
		return consumed, err
	}
	p.state = stHeaders
	return consumed, nil
}

func (p *Parser) parseStatusLine(s string) error {
	sp := strings.IndexByte(s, ' ')
	if sp < 0 {
		return errors.NewMalformedStatusLine(fmt.Sprintf("no space after HTTP version in %q", s))
	}
	version := s[:sp]
	rest := s[sp+1:]
	if version != message.ProtoHTTP11 && version != message.ProtoHTTP10 {
		return errors.NewMalformedStatusLine(fmt.Sprintf("unrecognized HTTP version %q", version))
	}

	code := rest
	reason := ""
	if sp2 := strings.IndexByte(rest, ' '); sp2 >= 0 {
		code, reason = rest[:sp2], rest[sp2+1:]
	}
	if len(code) != 3 || !isDigit(code[0]) || !isDigit(code[1]) || !isDigit(code[2]) {
		return errors.NewMalformedStatusLine(fmt.Sprintf("status code %q is not three digits", code))
	}
	status := int(code[0]-'0')*100 + int(code[1]-'0')*10 + int(code[2]-'0')
	if status < 100 || status > 599 {
		return errors.NewMalformedStatusLine(fmt.Sprintf("status code %d outside 100-599", status))
	}

	p.proto = version
	p.status = status
	p.reason = reason
	return nil
}

// feedFieldLine parses one header or trailer line. Trailer fields are
// appended to the same header sequence after the originals.
func (p *Parser) feedFieldLine(b []byte, trailer bool) (int, error) {
	limit := constants.MaxHeaderBytes - p.headerBytes
	if limit < 0 {
		limit = 0
	}
	line, consumed, complete, overflow := p.accumLine(b, limit)
	if overflow {
		return consumed, errors.NewMalformedHeaderLine(fmt.Sprintf("header section exceeds %d bytes", constants.MaxHeaderBytes))
	}
	if !complete {
		return consumed, nil
	}
	p.headerBytes += len(line) + 2

	if len(line) == 0 {
		if trailer {
			return consumed, p.finish()
		}
		return consumed, p.beginBody()
	}
	if line[0] == ' ' || line[0] == '\t' {
		return consumed, errors.NewMalformedHeaderLine("obsolete line folding is not supported")
	}
	colon := bytes.IndexByte(line, ':')
	if colon < 0 {
		return consumed, errors.NewMalformedHeaderLine(fmt.Sprintf("no colon in field line %q", line))
	}
	name := string(line[:colon])
	value := string(line[colon+1:])
	if name == "" || !httpguts.ValidHeaderFieldName(name) {
		return consumed, errors.NewMalformedHeaderLine(fmt.Sprintf("invalid field name %q", name))
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return consumed, errors.NewMalformedHeaderLine(fmt.Sprintf("invalid value for field %q", name))
	}
	if err := p.hdr.Add(name, value); err != nil {
		return consumed, errors.NewMalformedHeaderLine(err.Error())
	}
	return consumed, nil
}

// beginBody picks the body framing once the header section ends: status and
// method context first, then Transfer-Encoding: chunked, then Content-Length,
// and read-until-close when nothing declares a length.
func (p *Parser) beginBody() error {
	if strings.EqualFold(p.opts.RequestMethod, "HEAD") ||
		(p.status >= 100 && p.status < 200) || p.status == 204 || p.status == 304 {
		p.mode = message.BodyEmpty
		return p.finish()
	}
	// A successful CONNECT starts the tunnel right after the header section.
	if strings.EqualFold(p.opts.RequestMethod, "CONNECT") && p.status >= 200 && p.status < 300 {
		p.mode = message.BodyEmpty
		return p.finish()
	}

	if encodings := p.hdr.Values("Transfer-Encoding"); len(encodings) > 0 {
		if finalEncodingIsChunked(encodings) {
			p.mode = message.BodyChunked
			p.body = buffer.New(p.opts.BodyMemLimit)
			p.state = stChunkSize
			return nil
		}
		// An encoding other than chunked leaves the length unknowable.
		p.mode = message.BodyUntilClose
		p.body = buffer.New(p.opts.BodyMemLimit)
		p.state = stBodyUntilClose
		return nil
	}

	if values := p.hdr.Values("Content-Length"); len(values) > 0 {
		length, err := collapseContentLength(values)
		if err != nil {
			return err
		}
		p.mode = message.BodyFixed
		if length == 0 {
			return p.finish()
		}
		p.remaining = length
		p.body = buffer.New(p.opts.BodyMemLimit)
		p.state = stBodyFixed
		return nil
	}

	p.mode = message.BodyUntilClose
	p.body = buffer.New(p.opts.BodyMemLimit)
	p.state = stBodyUntilClose
	return nil
}

func finalEncodingIsChunked(values []string) bool {
	last := ""
	for _, v := range values {
		for _, tok := range strings.Split(v, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				last = tok
			}
		}
	}
	return strings.EqualFold(last, "chunked")
}

// collapseContentLength reduces every Content-Length occurrence (including
// comma-separated members) to a single value. Values that agree collapse;
// values that disagree are a conflict.
func collapseContentLength(values []string) (int64, error) {
	var members []string
	for _, v := range values {
		for _, m := range strings.Split(v, ",") {
			members = append(members, strings.Trim(m, " \t"))
		}
	}
	first := members[0]
	for _, m := range members {
		if m != first {
			return 0, errors.NewConflictingContentLength(members)
		}
	}
	if first == "" {
		return 0, errors.NewMalformedContentLength(first, nil)
	}
	for i := 0; i < len(first); i++ {
		if !isDigit(first[i]) {
			return 0, errors.NewMalformedContentLength(first, nil)
		}
	}
	length, err := strconv.ParseInt(first, 10, 64)
	if err != nil {
		return 0, errors.NewMalformedContentLength(first, err)
	}
	if length > constants.MaxContentLength {
		return 0, errors.NewMalformedContentLength(first, fmt.Errorf("exceeds %d byte limit", constants.MaxContentLength))
	}
	return length, nil
}

func (p *Parser) feedFixed(b []byte) (int, error) {
	n := int64(len(b))
	if n > p.remaining {
		n = p.remaining
	}
	if _, err := p.body.Write(b[:n]); err != nil {
		return int(n), errors.NewTransportError("buffer response body", err)
	}
	p.remaining -= n
	if p.remaining == 0 {
		return int(n), p.finish()
	}
	return int(n), nil
}

func (p *Parser) feedUntilClose(b []byte) (int, error) {
	if _, err := p.body.Write(b); err != nil {
		return len(b), errors.NewTransportError("buffer response body", err)
	}
	return len(b), nil
}

func (p *Parser) feedChunkSize(b []byte) (int, error) {
	line, consumed, complete, overflow := p.accumLine(b, constants.MaxStatusLineBytes)
	if overflow {
		return consumed, errors.NewMalformedChunkSize("chunk-size line too long")
	}
	if !complete {
		return consumed, nil
	}
	size, err := parseChunkSize(line)
	if err != nil {
		return consumed, err
	}
	if size == 0 {
		p.state = stTrailers
		return consumed, nil
	}
	p.remaining = size
	p.state = stChunkData
	return consumed, nil
}

// parseChunkSize reads the hex chunk size, ignoring any extensions after the
// first semicolon.
func parseChunkSize(line []byte) (int64, error) {
	digits := line
	if i := bytes.IndexByte(digits, ';'); i >= 0 {
		digits = digits[:i]
	}
	digits = bytes.Trim(digits, " \t")
	if len(digits) == 0 {
		return 0, errors.NewMalformedChunkSize(string(line))
	}
	if len(digits) > constants.MaxChunkSizeDigits {
		return 0, errors.NewMalformedChunkSize(string(line))
	}
	var size uint64
	for _, c := range digits {
		v := hexValue(c)
		if v < 0 {
			return 0, errors.NewMalformedChunkSize(string(line))
		}
		size = size<<4 | uint64(v)
	}
	if size > uint64(constants.MaxContentLength) {
		return 0, errors.NewMalformedChunkSize(string(line))
	}
	return int64(size), nil
}

func (p *Parser) feedChunkData(b []byte) (int, error) {
	n := int64(len(b))
	if n > p.remaining {
		n = p.remaining
	}
	if _, err := p.body.Write(b[:n]); err != nil {
		return int(n), errors.NewTransportError("buffer response body", err)
	}
	p.remaining -= n
	if p.remaining == 0 {
		p.state = stChunkDataCR
	}
	return int(n), nil
}

// feedChunkTerminator consumes the CRLF that must follow chunk data. Any
// other byte means the chunk ran past its declared length.
func (p *Parser) feedChunkTerminator(b []byte) (int, error) {
	switch c := b[0]; {
	case p.state == stChunkDataCR && c == '\r':
		p.state = stChunkDataLF
		return 1, nil
	case c == '\n':
		p.state = stChunkSize
		return 1, nil
	default:
		return 0, errors.NewChunkLengthMismatch(fmt.Sprintf("chunk data not terminated by CRLF (got %q)", c))
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func hexValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return -1
	}
}

// ReadResponse drives a Parser from src until the message completes. An EOF
// from src is forwarded as CloseInput, so read-until-close bodies terminate
// cleanly and truncation anywhere else surfaces as an error.
func ReadResponse(src io.Reader, opts ParserOptions) (*message.Response, error) {
	p := NewParser(opts)
	buf := make([]byte, 32*1024)
	for !p.Done() {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, err := p.Feed(buf[:n]); err != nil {
				return nil, err
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				if err := p.CloseInput(); err != nil {
					return nil, err
				}
				break
			}
			p.Abort()
			return nil, errors.NewTransportError("read response", rerr)
		}
	}
	return p.Response(), nil
}
