// Package base implements the transport-agnostic parts of the tcp and unix
// transports: length-prefixed framing over a net.Conn and the shared client
// dial / server accept logic. The concrete transports only contribute small
// connector implementations.
package base
