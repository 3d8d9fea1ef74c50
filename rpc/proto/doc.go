// Package proto defines the message catalog of the multiplexed RPC protocol.
//
// The package focuses on:
//   - The FromClient and FromServer envelopes that carry the correlation id
//   - A flat, tagged Payload struct used as the wire representation of all
//     message kinds
//   - Typed messages (Auth, Ping, Watch, Publish, ...) with conversions
//     between the typed and the generic form
//
// Key Components:
//
//   - SendMessage: Interface for fire-and-forget messages.
//
//   - RequestMessage[R]: Interface for messages expecting exactly one
//     response of type R. The conversion fails cleanly when a payload does
//     not have the expected shape, which the client surfaces as a protocol
//     mismatch.
//
//   - SubscribeMessage[E]: Interface for messages opening a stream of events
//     of type E.
//
// The envelope and payload structs are plain data and are encoded by the
// serializer package; this package knows nothing about framing or transport.
package proto
