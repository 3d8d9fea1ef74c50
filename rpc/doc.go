// Package rpc implements a multiplexed RPC framework: many concurrent
// requests and subscriptions share a single duplex connection, and every
// inbound message is routed back to its caller by message id.
//
// The package is organized into several subpackages:
//
//   - common: Core configuration structures and logging used across the
//     RPC system.
//
//   - proto: The message catalog and wire envelopes. Requests, responses
//     and events are flat tagged payloads with typed views on top.
//
//   - serializer: Message serialization with multiple format options
//     (Binary, JSON, GOB) for converting between envelopes and byte arrays.
//
//   - transport: Network communication abstractions with pluggable
//     implementations (TCP, Unix sockets, Websocket).
//
//   - client: The multiplexer client. It owns one connection, hands out
//     ids and delivers responses and event sequences to their callers.
//
//   - server: A small message broker used as the counterpart for the CLI
//     and the end-to-end tests.
package rpc
