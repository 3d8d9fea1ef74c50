package transport

import (
	"github.com/muxrpc/muxrpc/rpc/common"
)

// --------------------------------------------------------------------------
// Message Stream
// --------------------------------------------------------------------------

// IMessageStream is a duplex channel for fully-framed protocol envelopes.
// WriteMessage and ReadMessage operate on the proto envelope structs; the
// stream owns framing and encoding, nothing else.
//
// WriteMessage is safe for concurrent use. ReadMessage must only be called
// from a single goroutine at a time; the multiplexer client dedicates one
// reader goroutine to it. Close unblocks a pending ReadMessage.
type IMessageStream interface {
	// WriteMessage serializes and writes one envelope
	WriteMessage(v any) error
	// ReadMessage reads the next envelope into the struct pointed to by v.
	// It returns io.EOF when the peer closed the connection cleanly.
	ReadMessage(v any) error
	// Close closes the underlying connection
	Close() error
}

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// StreamHandleFunc is called by a server transport once per accepted
// connection, with the connection wrapped in a message stream. The handler
// owns the stream and must close it.
type StreamHandleFunc func(stream IMessageStream)

// IServerTransport is the interface for the server side of the transport
// layer
type IServerTransport interface {
	// RegisterHandler registers the per-connection handler.
	// Must be called before Listen.
	RegisterHandler(handler StreamHandleFunc)
	// Listen accepts connections until the listener is closed
	Listen(config common.ServerConfig) error
}
