// Package tcp provides the TCP implementation of the transport layer.
// It contributes connectors for dialing and listening on TCP sockets and
// applies socket tuning (TCP_NODELAY, buffer sizes) from the configuration;
// framing and stream handling live in the base package.
package tcp
