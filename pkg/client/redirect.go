package client

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/httpwire/httpc/pkg/errors"
	"github.com/httpwire/httpc/pkg/message"
)

// RewriteRule decides the method and body handling for the request that
// follows a redirect. It returns the next method and whether the body (and
// its content headers) travel along.
type RewriteRule func(status int, method string) (nextMethod string, keepBody bool)

// DefaultRewrite is the conventional browser-compatible policy: 303 always
// switches to GET and drops the body (HEAD stays HEAD), 301 and 302 do the
// same for POST only, 307 and 308 preserve method and body.
func DefaultRewrite(status int, method string) (string, bool) {
	switch status {
	case 303:
		if strings.EqualFold(method, "HEAD") {
			return method, false
		}
		return "GET", false
	case 301, 302:
		if strings.EqualFold(method, "POST") {
			return "GET", false
		}
		return method, true
	default: // 307, 308
		return method, true
	}
}

// PreserveMethod follows every redirect without changing method or body.
func PreserveMethod(status int, method string) (string, bool) {
	return method, true
}

// nextRequest builds the follow-up request for a redirect response: Location
// resolved against the current URL, method and body rewritten per rule, Host
// left for re-injection against the new authority.
func nextRequest(prev *message.Request, resp *message.Response, rule RewriteRule) (*message.Request, error) {
	location, ok := resp.Header.Get("Location")
	if !ok || location == "" {
		return nil, errors.NewMissingLocationHeader(resp.StatusCode)
	}
	ref, err := url.Parse(location)
	if err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid Location %q: %v", location, err))
	}
	target := prev.URL.ResolveReference(ref)
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, errors.NewValidationError(fmt.Sprintf("redirect to unsupported scheme %q", target.Scheme))
	}
	if target.Host == "" {
		return nil, errors.NewValidationError(fmt.Sprintf("redirect target %q has no host", location))
	}

	next := prev.Clone()
	next.URL = target

	method, keepBody := rule(resp.StatusCode, prev.Method)
	next.Method = method
	if !keepBody {
		next.Body = nil
		next.Header.Del("Content-Type")
	}
	// The new hop computes its own Host and Content-Length.
	next.Header.Del("Host")
	return next, nil
}
