// Package common provides shared configuration and logging infrastructure
// for the RPC multiplexer.
//
// The package focuses on:
//   - Client and server configuration structs with human-readable printers
//   - A custom logger factory with consistent formatting across all packages
//   - Log level parsing and global logger initialization
//
// Key Components:
//
//   - ClientConfig: Configuration for a multiplexer client (endpoint,
//     timeouts, subscription buffering, socket tuning).
//
//   - ServerConfig: Configuration for the server side of the transport layer
//     and the demo broker.
//
//   - InitLoggers: Installs the logger factory and applies the configured
//     log level to all loggers used by this module.
package common
