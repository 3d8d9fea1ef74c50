// Package client implements the client-side multiplexer for the RPC
// protocol. Many goroutines share one connection: each issues a request or
// opens a subscription and receives exactly the reply or event stream
// addressed to it, while a single reader goroutine owns the receive side of
// the connection and performs all demultiplexing.
//
// The package focuses on:
//   - Id-based correlation of outgoing messages to incoming responses
//   - Three call shapes: fire-and-forget Send, single-response Request,
//     multi-event Subscribe
//   - A clean shutdown handshake between Close and the reader goroutine
//
// Key Components:
//
//   - Client: The handle callers hold. Owns the write side of the stream,
//     the id counter and the correlation table. One client per connection;
//     ids are scoped to the client, so multiple connections never cross-talk.
//
//   - Request / Subscribe: Generic package-level functions (methods cannot
//     carry type parameters) that tie a request message to its typed
//     response or event shape via the proto conversion interfaces.
//
//   - Subscription: The forward-only event sequence of one subscription,
//     buffered up to the configured capacity; the reader back-pressures
//     beyond that.
//
// Failure behavior:
//
//   - Connection loss fails all pending requests with ErrConnectionClosed
//     and ends all subscriptions. Callers never hang on a dead connection.
//   - A payload that does not decode to the expected shape yields a
//     *ProtocolMismatchError local to that call or event.
//   - Inbound messages without an id, without a payload, or with an id that
//     matches no outstanding entry are logged and dropped.
//
// A subscription abandoned via Subscription.Close is reclaimed lazily: the
// reader drops its correlation entry on the next delivery attempt for that
// id. Until an event arrives the entry lingers, bounded by one entry per
// abandoned subscription.
//
// Thread Safety:
//
//	All operations are safe for concurrent use from multiple goroutines
//	without additional synchronization.
package client
