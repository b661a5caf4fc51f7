// Package constants provides shared constants used across the codebase.
package constants

import "time"

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100
)

// Web constants
const (
	// DefaultWebPort is the default port of the dashboard server
	DefaultWebPort = 8080

	// ControlQueueSize is the number of pending control requests accepted
	// before new requests are rejected
	ControlQueueSize = 8

	// LiveWriteTimeout bounds a single websocket frame write
	LiveWriteTimeout = 2 * time.Second
)
