// Package constants provides shared constants used across the application
// to avoid circular dependencies between packages.
package constants

import "time"

const (
	// AppName is used for the config and cache directory names.
	AppName = "sgpt"

	// EphemeralChatID is the reserved chat id for throwaway sessions.
	// Conversations under this id are never written to disk.
	EphemeralChatID = "temp"
)

// Timeout constants used across the application
const (
	// DefaultRequestTimeout is the timeout for completion API requests
	// (streaming can take a while). Overridable via REQUEST_TIMEOUT.
	DefaultRequestTimeout = 60 * time.Second
)

// Application defaults
const (
	DefaultModel          = "gpt-4o-mini"
	DefaultAPIHost        = "https://api.openai.com"
	DefaultTemperature    = 0.1
	DefaultTopProbability = 1.0

	// DefaultCacheLength bounds the completion cache entry count.
	DefaultCacheLength = 100
)
