// Package constants defines magic numbers and default values used throughout httpc.
package constants

import "time"

// Release version, also embedded in the default User-Agent.
const (
	Version          = "1.0.0"
	DefaultUserAgent = "httpc/" + Version
)

// Connection timeouts
const (
	DefaultConnTimeout  = 10 * time.Second
	DefaultDNSTimeout   = 5 * time.Second
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

// Redirect policy
const (
	DefaultMaxRedirects = 10
)

// HTTP message limits
const (
	MaxStatusLineBytes = 8 * 1024
	MaxHeaderBytes     = 64 * 1024
	MaxChunkSizeDigits = 16 // caps chunk sizes at 16 hex digits
	MaxContentLength   = 1024 * 1024 * 1024 * 1024 // 1TB
)

// Buffer limits
const (
	DefaultBodyMemLimit = 4 * 1024 * 1024 // 4MB before spilling to disk
	DisplayPreviewBytes = 512 * 1024      // body bytes shown on a terminal before truncating
)

// Default ports by scheme
const (
	DefaultHTTPPort  = 80
	DefaultHTTPSPort = 443
)
