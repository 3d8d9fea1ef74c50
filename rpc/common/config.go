package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// DefaultSubscriptionBuffer is the event buffer capacity of a single
// subscription. Once the buffer is full the reader goroutine back-pressures
// until the subscriber catches up or abandons the subscription.
const DefaultSubscriptionBuffer = 256

// ClientConfig holds all configuration parameters for a multiplexer client.
// A client owns exactly one connection; run multiple clients for multiple
// connections.
type ClientConfig struct {
	// Endpoint is the address of the server (host:port for tcp, a socket
	// path for unix, a ws:// URL for websocket)
	Endpoint string

	// TimeoutSecond is the dial timeout in seconds (0 means no timeout)
	TimeoutSecond int

	// SubscriptionBuffer is the per-subscription event buffer capacity
	// (defaults to DefaultSubscriptionBuffer if <= 0)
	SubscriptionBuffer int

	// Socket tuning (ignored by transports that do not use raw sockets)
	TCPNoDelay      bool
	ReadBufferSize  int
	WriteBufferSize int

	// Logging configuration
	LogLevel string
}

// SubscriptionBufferOrDefault returns the configured subscription buffer
// capacity, falling back to DefaultSubscriptionBuffer
func (c *ClientConfig) SubscriptionBufferOrDefault() int {
	if c.SubscriptionBuffer > 0 {
		return c.SubscriptionBuffer
	}
	return DefaultSubscriptionBuffer
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Subscription Buffer", strconv.Itoa(c.SubscriptionBufferOrDefault()))

	addSection("Socket Tuning")
	addField("TCP NoDelay", fmt.Sprintf("%t", c.TCPNoDelay))
	addField("Read Buffer (KB)", strconv.Itoa(c.ReadBufferSize/1024))
	addField("Write Buffer (KB)", strconv.Itoa(c.WriteBufferSize/1024))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters for the demo broker and
// the server side of the transport layer.
type ServerConfig struct {
	// Endpoint is the address to listen on
	Endpoint string

	// TimeoutSecond is the handshake timeout in seconds, used by transports
	// that perform one (0 means no timeout)
	TimeoutSecond int

	// Socket tuning (ignored by transports that do not use raw sockets)
	TCPNoDelay      bool
	ReadBufferSize  int
	WriteBufferSize int

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Server Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	addSection("Socket Tuning")
	addField("TCP NoDelay", fmt.Sprintf("%t", c.TCPNoDelay))
	addField("Read Buffer (KB)", strconv.Itoa(c.ReadBufferSize/1024))
	addField("Write Buffer (KB)", strconv.Itoa(c.WriteBufferSize/1024))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
