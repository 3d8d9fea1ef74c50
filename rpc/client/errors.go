package client

import (
	"errors"
	"fmt"

	"github.com/muxrpc/muxrpc/rpc/proto"
)

var (
	// ErrConnectionClosed is returned by Request when the connection ends
	// before the response arrives. Callers must treat it as connection loss,
	// not as a server-side rejection.
	ErrConnectionClosed = errors.New("rpc: connection closed")

	// ErrSubscriptionClosed is returned by Subscription.Recv once the
	// subscription was abandoned or the connection ended.
	ErrSubscriptionClosed = errors.New("rpc: subscription closed")
)

// ProtocolMismatchError reports that a payload was routed to a caller whose
// message type expects a different payload shape. It is local to the one
// call or event that triggered it; the connection and all other callers are
// unaffected.
type ProtocolMismatchError struct {
	Message string            // the issuing message kind
	Got     proto.PayloadType // the payload type that actually arrived
}

func (e *ProtocolMismatchError) Error() string {
	return fmt.Sprintf("rpc: protocol mismatch: payload type %q does not match the shape expected by %s", e.Got, e.Message)
}
