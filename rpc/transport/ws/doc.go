// Package ws provides the websocket implementation of the transport layer
// using gorilla/websocket. Every protocol envelope travels as one binary
// websocket message; the serializer still encodes the message body, so any
// serializer works over this transport. The server side accepts connections
// as HTTP upgrade requests instead of using the base accept loop.
package ws
