// Package cmd implements the command-line interface for muxrpc. It provides
// a hierarchical command structure with operations for running the demo
// broker and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Commands for starting and configuring the muxrpc broker
//   - call: Commands for issuing single requests (auth, ping, echo, publish)
//   - watch: Command for subscribing to a channel and streaming its events
//   - perf: Benchmarking tool measuring request throughput and latency
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See muxrpc -help for a list of all commands.
package cmd
