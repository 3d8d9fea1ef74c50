// Package serializer provides encoding implementations for the protocol
// envelopes exchanged between client and server.
//
// The package focuses on:
//   - A small ISerializer interface decoupling the transport layer from the
//     concrete encoding
//   - Three interchangeable implementations: JSON (debuggable), GOB
//     (convenient) and a custom binary format (fast, compact)
//
// Both ends of a connection must be configured with the same serializer;
// there is no format negotiation on the wire.
//
// The binary format encodes optional fields behind a flag byte so absent
// fields cost nothing on the wire. It only supports the proto envelope
// types and rejects everything else.
package serializer
