// Package unix provides the Unix domain socket implementation of the
// transport layer. Stale socket files are removed before listening.
// Framing and stream handling live in the base package.
package unix
