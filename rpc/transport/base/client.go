package base

import (
	"fmt"
	"net"
	"time"

	"github.com/muxrpc/muxrpc/rpc/common"
	"github.com/muxrpc/muxrpc/rpc/serializer"
	"github.com/muxrpc/muxrpc/rpc/transport"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection
// operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established
	// connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Connect Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// Connect dials the configured endpoint through the given connector and
// wraps the connection in a framed message stream
func Connect(connector IClientConnector, config common.ClientConfig, s serializer.ISerializer) (transport.IMessageStream, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("no endpoint provided")
	}

	timeout := time.Duration(config.TimeoutSecond) * time.Second

	conn, err := connector.Connect(config.Endpoint, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", config.Endpoint, err)
	}

	if err := connector.UpgradeConnection(conn, config); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %w", config.Endpoint, err)
	}

	Logger.Infof("Connected to %s using %s transport", config.Endpoint, connector.GetName())

	return NewMessageStream(conn, s), nil
}
