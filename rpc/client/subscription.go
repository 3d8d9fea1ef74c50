package client

import (
	"sync"

	"github.com/muxrpc/muxrpc/rpc/proto"
)

// Subscription is the forward-only event sequence returned by Subscribe.
// It is single-pass: events are consumed by repeated Recv calls and cannot
// be replayed.
type Subscription[E any] struct {
	msg       proto.SubscribeMessage[E]
	entry     *pendingEntry
	closeOnce sync.Once
}

// Recv blocks until the next event arrives or the sequence ends. It returns
// ErrSubscriptionClosed once the subscription was abandoned or the
// connection ended. A *ProtocolMismatchError is local to the one event that
// failed to decode and does not terminate the sequence.
func (s *Subscription[E]) Recv() (E, error) {
	var zero E

	select {
	case payload, ok := <-s.entry.ch:
		if !ok {
			return zero, ErrSubscriptionClosed
		}
		event, ok := s.msg.EventFromPayload(payload)
		if !ok {
			return zero, &ProtocolMismatchError{Message: "subscription event", Got: payload.Type}
		}
		return event, nil
	case <-s.entry.done:
		return zero, ErrSubscriptionClosed
	}
}

// Close abandons the subscription. The reader drops the correlation entry on
// its next delivery attempt for this id and silently absorbs any further
// events the server sends. Safe to call multiple times.
func (s *Subscription[E]) Close() {
	s.closeOnce.Do(func() {
		close(s.entry.done)
	})
}
