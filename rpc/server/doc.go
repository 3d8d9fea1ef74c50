// Package server implements a small message broker speaking the multiplexed
// RPC protocol. It exists so the CLI and the end-to-end tests have a real
// peer; the multiplexer client in the client package does not depend on it.
//
// The package focuses on:
//   - Answering the request messages of the catalog (Auth, Ping, Echo)
//   - Fanning Publish messages out to Watch subscribers per channel, with a
//     per-subscription sequence number
//   - Serving any transport that implements transport.IServerTransport
//
// The broker keeps all state in memory and holds its subscriber lock only
// while mutating the hub, never across a network write.
package server
