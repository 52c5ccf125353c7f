// Package output renders exchanges for the command line: response heads at -v,
// full request/response traces with per-hop timing at -vv, ANSI color when the
// destination is a terminal, and body display gated by content type.
package output

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/httpwire/httpc/pkg/constants"
	"github.com/httpwire/httpc/pkg/errors"
	"github.com/httpwire/httpc/pkg/message"
	"github.com/httpwire/httpc/pkg/timing"
)

// ColorMode selects when ANSI escapes are emitted.
type ColorMode string

const (
	ColorAlways ColorMode = "always"
	ColorAuto   ColorMode = "auto"
	ColorNever  ColorMode = "never"
)

// ParseColorMode converts a --color flag value. The empty string means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(s) {
	case "always":
		return ColorAlways, nil
	case "auto", "":
		return ColorAuto, nil
	case "never":
		return ColorNever, nil
	}
	return "", errors.NewValidationError(fmt.Sprintf("unknown color mode %q (use always, auto, or never)", s))
}

// Verbosity levels: each level includes everything below it.
const (
	// Verbose prints the final response status line and headers before the body.
	Verbose = 1
	// VeryVerbose additionally prints every outgoing request, every hop of a
	// redirect chain, connection details, and per-hop timing.
	VeryVerbose = 2
)

const (
	ansiReset   = "\x1b[0m"
	ansiGreen   = "\x1b[32m"
	ansiYellow  = "\x1b[33m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
	ansiRed     = "\x1b[31m"
	ansiDim     = "\x1b[90m"
)

// Renderer writes human-readable exchange output. Response heads and bodies go
// to out; request traces, connection details, and timing go to errOut so that
// redirected stdout stays clean.
type Renderer struct {
	out       io.Writer
	errOut    io.Writer
	verbosity int
	color     bool
}

// NewRenderer builds a renderer. With ColorAuto, escapes are emitted only when
// out is a terminal.
func NewRenderer(out, errOut io.Writer, verbosity int, mode ColorMode) *Renderer {
	r := &Renderer{out: out, errOut: errOut, verbosity: verbosity}
	switch mode {
	case ColorAlways:
		r.color = true
	case ColorNever:
		r.color = false
	default:
		if f, ok := out.(*os.File); ok {
			r.color = isTerminal(f.Fd())
		}
	}
	return r
}

func (r *Renderer) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + ansiReset
}

// Render writes a completed exchange according to the verbosity level. The
// body of the final response is always rendered (or withheld with a notice
// when it is not displayable text).
func (r *Renderer) Render(chain *message.Chain) error {
	if chain == nil || chain.Len() == 0 {
		return nil
	}
	r.RenderMeta(chain)
	return r.showBody(chain.Final())
}

// RenderMeta writes request traces, response heads, and timing per the
// verbosity level but never the body. Used with -o, where the body goes to a
// file instead of the terminal.
func (r *Renderer) RenderMeta(chain *message.Chain) {
	if chain == nil || chain.Len() == 0 {
		return
	}
	for i, hop := range chain.Hops {
		last := i == chain.Len()-1
		if r.verbosity >= VeryVerbose {
			r.showRequest(hop.Request)
		}
		if r.verbosity >= Verbose && (last || r.verbosity >= VeryVerbose) {
			r.showResponseHead(hop.Response)
		}
		if r.verbosity >= VeryVerbose {
			r.showHopDetails(hop.Response.Conn, hop.Metrics)
		}
	}
}

// showRequest prints the outgoing request the way it went on the wire,
// reconstructed from the prepared message rather than echoed bytes.
func (r *Renderer) showRequest(req *message.Request) {
	fmt.Fprintln(r.errOut, r.paint(ansiYellow, "→ Sending"))
	fmt.Fprintf(r.errOut, "%s %s %s\n",
		r.paint(ansiGreen, req.Method),
		r.paint(ansiBlue, req.Target()),
		r.paint(ansiDim, req.Proto))
	for _, f := range req.Header.Fields() {
		fmt.Fprintf(r.errOut, "%s: %s\n",
			r.paint(ansiCyan, f.Name),
			r.paint(ansiMagenta, f.Value))
	}
	fmt.Fprintln(r.errOut)
	if len(req.Body) > 0 {
		if utf8.Valid(req.Body) {
			fmt.Fprintf(r.errOut, "%s\n\n", req.Body)
		} else {
			fmt.Fprintln(r.errOut, "[request body is not valid UTF-8]")
		}
	}
}

func (r *Renderer) showResponseHead(resp *message.Response) {
	fmt.Fprintf(r.out, "%s %s\n",
		r.paint(ansiDim, resp.Proto),
		r.paint(statusColor(resp.StatusCode), resp.StatusText()))
	for _, f := range resp.Header.Fields() {
		fmt.Fprintf(r.out, "%s: %s\n",
			r.paint(ansiCyan, f.Name),
			r.paint(ansiMagenta, f.Value))
	}
	fmt.Fprintln(r.out)
}

func (r *Renderer) showHopDetails(conn message.ConnInfo, m timing.Metrics) {
	if conn.ConnectedIP != "" {
		addr := net.JoinHostPort(conn.ConnectedIP, strconv.Itoa(conn.ConnectedPort))
		line := "← " + addr
		if conn.Proxied {
			line += " via proxy"
		}
		if conn.TLSVersion != "" {
			line += fmt.Sprintf(" (%s, %s)", conn.TLSVersion, conn.TLSCipher)
		}
		fmt.Fprintln(r.errOut, r.paint(ansiDim, line))
	}
	fmt.Fprintln(r.errOut, r.paint(ansiDim, "← "+m.String()))
}

func statusColor(code int) string {
	switch {
	case code >= 200 && code < 300:
		return ansiGreen
	case code >= 300 && code < 400:
		return ansiYellow
	case code >= 100 && code < 200:
		return ansiCyan
	default:
		return ansiRed
	}
}

// showBody prints the final body when its content type marks it as text.
// Oversized bodies are cut at the preview limit with a pointer to -o.
func (r *Renderer) showBody(resp *message.Response) error {
	if resp.Body == nil || resp.Body.Size() == 0 {
		return nil
	}
	ct := resp.ContentType()
	if ct == "" {
		fmt.Fprintln(r.out, "No content type header, not displaying anything.")
		return nil
	}
	if !DisplayableContentType(ct) {
		fmt.Fprintln(r.out, "Binary data, not displaying.")
		return nil
	}

	reader, err := resp.Body.Reader()
	if err != nil {
		return err
	}
	defer reader.Close()

	limit := int64(constants.DisplayPreviewBytes)
	if _, err := io.Copy(r.out, io.LimitReader(reader, limit)); err != nil {
		return errors.NewTransportError("writing body to output", err)
	}
	if resp.Body.Size() > limit {
		fmt.Fprintf(r.errOut, "\n%s\n", r.paint(ansiDim,
			fmt.Sprintf("← body truncated after %d of %d bytes, use -o to save it all", limit, resp.Body.Size())))
	}
	return nil
}

// DisplayableContentType reports whether a media type is printed as text.
func DisplayableContentType(ct string) bool {
	return strings.HasPrefix(ct, "text/") || ct == "application/json"
}

// WriteFile copies the final body verbatim to path, regardless of content type.
func WriteFile(resp *message.Response, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewTransportError("creating output file", err)
	}
	if resp.Body != nil {
		if _, err := resp.Body.WriteTo(f); err != nil {
			f.Close()
			return errors.NewTransportError("writing output file", err)
		}
	}
	if err := f.Close(); err != nil {
		return errors.NewTransportError("closing output file", err)
	}
	return nil
}
