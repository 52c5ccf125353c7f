// Package cli parses the httpc command line: an action word followed by
// options and a URL, resolved into a prepared request plus engine options.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/httpwire/httpc/pkg/client"
	"github.com/httpwire/httpc/pkg/constants"
	"github.com/httpwire/httpc/pkg/errors"
	"github.com/httpwire/httpc/pkg/message"
	"github.com/httpwire/httpc/pkg/output"
)

const usage = `
httpc (%s)
================================================================================

  httpc ACTION [OPTIONS] URL

ACTION
------

  get          # send a GET request to URL and print the response
  post         # send a POST request to URL, with -d or -f as the body
  help         # show this message
  version      # show version info

OPTIONS
-------

  -v                   # print the response status line and headers
  -vv                  # also print each outgoing request, hop, and timing
  -H <name: value>     # add a request header (repeatable)
  -d <data>            # request body from the command line (post only)
  -f <path>            # request body read from a file (post only)
  -o <path>            # write the response body to a file instead of stdout
  -L                   # follow redirects
  -max-redirects <n>   # redirect budget for -L (default: 10)
  -k, -insecure        # skip TLS certificate verification
  -proxy <url>         # forward through an http, https, or socks5 proxy
  -unix-socket <path>  # connect through a unix domain socket
  -connect-ip <ip>     # dial this IP instead of resolving the host
  -sni <name>          # TLS server name when it differs from the URL host
  -cacert <path>       # PEM bundle of trusted root certificates
  -timeout <dur>       # connect/read/write timeout, e.g. 15s
  -color <mode>        # colorize output: always, auto, never (default: auto)
  -version             # show version info

  Options go before the URL. "-d" and "-f" are mutually exclusive.
`

// Usage returns the help text with the version filled in.
func Usage() string {
	return fmt.Sprintf(usage, constants.Version)
}

// Actions accepted as the first argument.
const (
	ActionGet     = "get"
	ActionPost    = "post"
	ActionHelp    = "help"
	ActionVersion = "version"
)

// Invocation is a fully parsed command line, ready to execute.
type Invocation struct {
	Action     string
	Request    *message.Request // nil for help and version
	Options    client.Options
	Verbosity  int
	ColorMode  output.ColorMode
	OutputFile string
}

// headerList collects repeated -H flags in order.
type headerList []string

func (h *headerList) String() string {
	return strings.Join(*h, ", ")
}

func (h *headerList) Set(v string) error {
	*h = append(*h, v)
	return nil
}

// Parse turns os.Args[1:] into an Invocation. The first argument is the
// action word; everything after it is flags, then the URL.
func Parse(args []string) (*Invocation, error) {
	action := ""
	rest := args
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		action = args[0]
		rest = args[1:]
	}

	fs := flag.NewFlagSet("httpc", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		verbose      = fs.Bool("v", false, "")
		veryVerbose  = fs.Bool("vv", false, "")
		headers      headerList
		data         = fs.String("d", "", "")
		bodyFile     = fs.String("f", "", "")
		outFile      = fs.String("o", "", "")
		follow       = fs.Bool("L", false, "")
		maxRedirects = fs.Int("max-redirects", constants.DefaultMaxRedirects, "")
		insecure     bool
		proxyURL     = fs.String("proxy", "", "")
		unixSocket   = fs.String("unix-socket", "", "")
		connectIP    = fs.String("connect-ip", "", "")
		sni          = fs.String("sni", "", "")
		caCert       = fs.String("cacert", "", "")
		timeout      = fs.Duration("timeout", 0, "")
		colorFlag    = fs.String("color", "auto", "")
		showVersion  = fs.Bool("version", false, "")
	)
	fs.Var(&headers, "H", "")
	fs.BoolVar(&insecure, "k", false, "")
	fs.BoolVar(&insecure, "insecure", false, "")

	if err := fs.Parse(rest); err != nil {
		if err == flag.ErrHelp {
			return &Invocation{Action: ActionHelp}, nil
		}
		return nil, errors.NewValidationError(err.Error())
	}
	if *showVersion {
		return &Invocation{Action: ActionVersion}, nil
	}

	switch action {
	case ActionHelp:
		return &Invocation{Action: ActionHelp}, nil
	case ActionVersion:
		return &Invocation{Action: ActionVersion}, nil
	case ActionGet, ActionPost:
	case "":
		return nil, errors.NewValidationError("missing action: use get, post, or help")
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unknown action %q: use get, post, or help", action))
	}

	positional := fs.Args()
	if len(positional) == 0 {
		return nil, errors.NewValidationError("missing URL")
	}
	if len(positional) > 1 {
		return nil, errors.NewValidationError(
			fmt.Sprintf("unexpected argument %q (options go before the URL)", positional[1]))
	}

	colorMode, err := output.ParseColorMode(*colorFlag)
	if err != nil {
		return nil, err
	}

	body, err := resolveBody(action, *data, *bodyFile)
	if err != nil {
		return nil, err
	}

	req, err := buildRequest(action, positional[0], headers, body)
	if err != nil {
		return nil, err
	}

	opts := client.DefaultOptions()
	opts.FollowRedirects = *follow
	opts.MaxRedirects = *maxRedirects
	opts.InsecureTLS = insecure
	opts.ProxyURL = *proxyURL
	opts.UnixPath = *unixSocket
	opts.ConnectIP = *connectIP
	opts.SNI = *sni
	if *timeout > 0 {
		opts.ConnTimeout = *timeout
		opts.ReadTimeout = *timeout
		opts.WriteTimeout = *timeout
	}
	if *caCert != "" {
		pem, err := os.ReadFile(*caCert)
		if err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("reading CA bundle %s: %v", *caCert, err))
		}
		opts.RootCAs = pem
	}

	return &Invocation{
		Action:     action,
		Request:    req,
		Options:    opts,
		Verbosity:  verbosityLevel(*verbose, *veryVerbose),
		ColorMode:  colorMode,
		OutputFile: *outFile,
	}, nil
}

func verbosityLevel(verbose, veryVerbose bool) int {
	switch {
	case veryVerbose:
		return output.VeryVerbose
	case verbose:
		return output.Verbose
	default:
		return 0
	}
}

// resolveBody picks the request body from -d or -f. A bare post sends an
// explicit zero-length body so the request still carries Content-Length: 0.
func resolveBody(action, data, bodyFile string) ([]byte, error) {
	if action != ActionPost {
		if data != "" || bodyFile != "" {
			return nil, errors.NewValidationError("-d and -f apply to post only")
		}
		return nil, nil
	}
	if data != "" && bodyFile != "" {
		return nil, errors.NewValidationError("-d and -f are mutually exclusive")
	}
	if bodyFile != "" {
		contents, err := os.ReadFile(bodyFile)
		if err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("reading body file %s: %v", bodyFile, err))
		}
		return contents, nil
	}
	if data == "" {
		return []byte{}, nil
	}
	return []byte(data), nil
}

func buildRequest(action, rawURL string, headers headerList, body []byte) (*message.Request, error) {
	method := "GET"
	if action == ActionPost {
		method = "POST"
	}
	// A bare host is taken as http, the way curl does.
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	req, err := message.NewRequest(method, rawURL)
	if err != nil {
		return nil, err
	}
	for _, raw := range headers {
		name, value, err := splitHeaderArg(raw)
		if err != nil {
			return nil, err
		}
		if err := req.Header.Add(name, value); err != nil {
			return nil, err
		}
	}
	req.Body = body
	return req, nil
}

// splitHeaderArg parses a -H argument in "name: value" or "name:value" form.
func splitHeaderArg(raw string) (string, string, error) {
	name, value, ok := strings.Cut(raw, ":")
	if !ok {
		return "", "", errors.NewValidationError(fmt.Sprintf("header %q is missing ':'", raw))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", errors.NewValidationError(fmt.Sprintf("header %q has an empty name", raw))
	}
	return name, strings.TrimSpace(value), nil
}
