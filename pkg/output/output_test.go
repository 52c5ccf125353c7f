package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/httpwire/httpc/pkg/buffer"
	"github.com/httpwire/httpc/pkg/constants"
	"github.com/httpwire/httpc/pkg/header"
	"github.com/httpwire/httpc/pkg/message"
	"github.com/httpwire/httpc/pkg/timing"
)

func testResponse(t *testing.T, contentType string, body []byte) *message.Response {
	t.Helper()
	h := header.New()
	if contentType != "" {
		if err := h.Add("Content-Type", contentType); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	return &message.Response{
		Proto:      message.ProtoHTTP11,
		StatusCode: 200,
		Reason:     "OK",
		Header:     h,
		Body:       buffer.FromBytes(body),
		BodyMode:   message.BodyFixed,
	}
}

func testChain(t *testing.T, resp *message.Response) *message.Chain {
	t.Helper()
	req, err := message.NewRequest("GET", "http://example.com/data")
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if err := req.Header.Add("Host", "example.com"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	resp.Conn = message.ConnInfo{ConnectedIP: "192.0.2.10", ConnectedPort: 80}
	return &message.Chain{Hops: []message.Hop{{
		Request:  req,
		Response: resp,
		Metrics:  timing.Metrics{TCPConnect: time.Millisecond, TTFB: 2 * time.Millisecond, Total: 3 * time.Millisecond},
	}}}
}

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    ColorMode
		wantErr bool
	}{
		{name: "always", in: "always", want: ColorAlways},
		{name: "mixed case", in: "Never", want: ColorNever},
		{name: "auto", in: "auto", want: ColorAuto},
		{name: "empty means auto", in: "", want: ColorAuto},
		{name: "unknown", in: "sometimes", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColorMode(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseColorMode(%q) accepted", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColorMode(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseColorMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRenderBodyOnly(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, 0, ColorNever)

	chain := testChain(t, testResponse(t, "text/plain", []byte("hello world")))
	if err := r.Render(chain); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.String() != "hello world" {
		t.Errorf("stdout = %q", out.String())
	}
	if errOut.Len() != 0 {
		t.Errorf("stderr not empty: %q", errOut.String())
	}
}

func TestRenderVerboseHead(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, Verbose, ColorNever)

	chain := testChain(t, testResponse(t, "text/plain", []byte("hello")))
	if err := r.Render(chain); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "HTTP/1.1 200 OK\nContent-Type: text/plain\n\nhello"
	if out.String() != want {
		t.Errorf("stdout = %q, want %q", out.String(), want)
	}
	if errOut.Len() != 0 {
		t.Errorf("stderr not empty at -v: %q", errOut.String())
	}
}

func TestRenderVeryVerboseTrace(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, VeryVerbose, ColorNever)

	chain := testChain(t, testResponse(t, "text/plain", []byte("hello")))
	if err := r.Render(chain); err != nil {
		t.Fatalf("Render: %v", err)
	}

	trace := errOut.String()
	for _, want := range []string{
		"→ Sending\n",
		"GET /data HTTP/1.1\n",
		"Host: example.com\n",
		"← 192.0.2.10:80\n",
		"← dns 0s, connect 1ms, tls 0s, ttfb 2ms, total 3ms\n",
	} {
		if !strings.Contains(trace, want) {
			t.Errorf("trace missing %q:\n%s", want, trace)
		}
	}
	if !strings.HasPrefix(out.String(), "HTTP/1.1 200 OK\n") {
		t.Errorf("stdout head missing: %q", out.String())
	}
}

func TestRenderColorAlways(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, VeryVerbose, ColorAlways)

	chain := testChain(t, testResponse(t, "text/plain", []byte("x")))
	if err := r.Render(chain); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(errOut.String(), "\x1b[32mGET\x1b[0m") {
		t.Errorf("method not painted green:\n%q", errOut.String())
	}
	if !strings.Contains(out.String(), "\x1b[32m200 OK\x1b[0m") {
		t.Errorf("2xx status not painted green:\n%q", out.String())
	}
}

func TestRenderColorNeverHasNoEscapes(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, VeryVerbose, ColorNever)

	chain := testChain(t, testResponse(t, "text/plain", []byte("x")))
	if err := r.Render(chain); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(out.String(), "\x1b") || strings.Contains(errOut.String(), "\x1b") {
		t.Error("escapes emitted with color disabled")
	}
}

func TestRenderBinaryBodyWithheld(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, 0, ColorNever)

	chain := testChain(t, testResponse(t, "application/octet-stream", []byte{0x00, 0x01, 0x02}))
	if err := r.Render(chain); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.String() != "Binary data, not displaying.\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestRenderMissingContentType(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, 0, ColorNever)

	chain := testChain(t, testResponse(t, "", []byte("mystery")))
	if err := r.Render(chain); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.String() != "No content type header, not displaying anything.\n" {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestRenderTruncatesLongBodies(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, 0, ColorNever)

	body := bytes.Repeat([]byte("a"), constants.DisplayPreviewBytes+5)
	chain := testChain(t, testResponse(t, "text/plain", body))
	if err := r.Render(chain); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Len() != constants.DisplayPreviewBytes {
		t.Errorf("stdout length = %d, want %d", out.Len(), constants.DisplayPreviewBytes)
	}
	if !strings.Contains(errOut.String(), "truncated") {
		t.Errorf("no truncation notice: %q", errOut.String())
	}
}

func TestDisplayableContentType(t *testing.T) {
	tests := []struct {
		name string
		ct   string
		want bool
	}{
		{name: "plain text", ct: "text/plain", want: true},
		{name: "html", ct: "text/html", want: true},
		{name: "json", ct: "application/json", want: true},
		{name: "octet stream", ct: "application/octet-stream", want: false},
		{name: "image", ct: "image/png", want: false},
		{name: "xml is not text", ct: "application/xml", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayableContentType(tt.ct); got != tt.want {
				t.Fatalf("DisplayableContentType(%q) = %v, want %v", tt.ct, got, tt.want)
			}
		})
	}
}

func TestWriteFile(t *testing.T) {
	resp := testResponse(t, "application/octet-stream", []byte{0xDE, 0xAD, 0xBE, 0xEF})
	path := filepath.Join(t.TempDir(), "body.bin")

	if err := WriteFile(resp, path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(data, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("file contents = %x", data)
	}
}
