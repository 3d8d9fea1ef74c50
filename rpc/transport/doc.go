// Package transport defines the interfaces and abstractions for moving
// protocol envelopes between client and server. It provides a common
// contract that all transport implementations must fulfill, enabling
// protocol-agnostic communication.
//
// The package focuses on:
//   - Defining the duplex message stream consumed by the multiplexer client
//   - Defining the server-side accept contract
//   - Enabling multiple transport implementations (TCP, Unix sockets,
//     websocket)
//
// Key Components:
//
//   - IMessageStream: A duplex channel for fully-framed envelopes. The
//     multiplexer client owns the read side through a single reader
//     goroutine; writes are internally serialized so concurrent callers can
//     share the write side.
//
//   - IServerTransport: Interface for server-side transport implementations
//     that accept connections and hand each one to a StreamHandleFunc.
//
//   - StreamHandleFunc: Per-connection callback type.
package transport
