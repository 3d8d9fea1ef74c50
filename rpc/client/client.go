package client

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/muxrpc/muxrpc/rpc/common"
	"github.com/muxrpc/muxrpc/rpc/proto"
	"github.com/muxrpc/muxrpc/rpc/transport"
)

var Logger = logger.GetLogger("rpc/client")

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// pendingEntry is the delivery target of one outstanding request or
// subscription. Single-shot entries are retired after their first delivery,
// multi-shot entries stay registered until the subscriber abandons them or
// the connection ends.
type pendingEntry struct {
	ch         chan *proto.Payload
	singleShot bool
	done       chan struct{} // closed when a subscription is abandoned, nil for single-shot
}

// Client multiplexes requests and subscriptions from many goroutines over a
// single message stream. It owns the write side of the stream and a reader
// goroutine that owns the read side and routes every inbound message to the
// operation whose id it carries.
type Client struct {
	stream  transport.IMessageStream
	config  common.ClientConfig
	pending *xsync.MapOf[int32, *pendingEntry]
	nextID  atomic.Int32

	shutdownCh chan struct{} // closed by Close, observed by the reader
	readerDone chan struct{} // closed when the reader goroutine has exited
	closed     atomic.Bool
	closeOnce  sync.Once
}

// New creates a client on top of an established message stream and starts
// its reader goroutine. The client assumes exclusive ownership of the
// stream; use Close to tear both down.
func New(stream transport.IMessageStream, config common.ClientConfig) *Client {
	c := &Client{
		stream:     stream,
		config:     config,
		pending:    xsync.NewMapOf[int32, *pendingEntry](),
		shutdownCh: make(chan struct{}),
		readerDone: make(chan struct{}),
	}

	go c.readLoop()

	return c
}

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

// Send writes a fire-and-forget message. No response is expected; if the
// server replies to the allocated id anyway, the reader logs the reply as
// unroutable and discards it.
func (c *Client) Send(msg proto.SendMessage) error {
	id := c.nextID.Add(1)

	if err := c.stream.WriteMessage(&proto.FromClient{ID: id, Payload: msg.ToPayload()}); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	metricSends.Inc()
	return nil
}

// Request writes a request and blocks until its single response arrives.
// It returns ErrConnectionClosed if the connection dies before the response,
// and a *ProtocolMismatchError if the response payload does not have the
// shape the request expects. The correlation entry is retired on delivery
// regardless of the decode outcome.
func Request[R any](c *Client, req proto.RequestMessage[R]) (R, error) {
	var zero R

	id := c.nextID.Add(1)
	entry := &pendingEntry{
		ch:         make(chan *proto.Payload, 1),
		singleShot: true,
	}
	c.pending.Store(id, entry)

	if err := c.stream.WriteMessage(&proto.FromClient{ID: id, Payload: req.ToPayload()}); err != nil {
		c.pending.Delete(id)
		return zero, fmt.Errorf("write request: %w", err)
	}
	metricRequests.Inc()

	// The reader marks the client closed before failing pending entries, so
	// a registration that races with reader shutdown might never be seen by
	// it. Re-check after registering: if the entry is still ours, the reader
	// will not touch it again.
	if c.closed.Load() {
		if _, loaded := c.pending.LoadAndDelete(id); loaded {
			return zero, ErrConnectionClosed
		}
	}

	payload, ok := <-entry.ch
	if !ok {
		return zero, ErrConnectionClosed
	}

	resp, ok := req.ResponseFromPayload(payload)
	if !ok {
		return zero, &ProtocolMismatchError{Message: fmt.Sprintf("%T", req), Got: payload.Type}
	}
	return resp, nil
}

// Subscribe writes a subscription message and returns the stream of events
// addressed to it. Events are buffered up to the configured subscription
// buffer capacity; beyond that the reader back-pressures. Abandon the
// subscription with Subscription.Close.
func Subscribe[E any](c *Client, sub proto.SubscribeMessage[E]) (*Subscription[E], error) {
	id := c.nextID.Add(1)
	entry := &pendingEntry{
		ch:   make(chan *proto.Payload, c.config.SubscriptionBufferOrDefault()),
		done: make(chan struct{}),
	}
	c.pending.Store(id, entry)

	if err := c.stream.WriteMessage(&proto.FromClient{ID: id, Payload: sub.ToPayload()}); err != nil {
		c.pending.Delete(id)
		return nil, fmt.Errorf("write subscription: %w", err)
	}
	metricSubscriptions.Inc()

	// Same shutdown race as in Request: if the reader is already gone and
	// never saw the entry, end the sequence ourselves.
	if c.closed.Load() {
		if _, loaded := c.pending.LoadAndDelete(id); loaded {
			close(entry.ch)
		}
	}

	return &Subscription[E]{msg: sub, entry: entry}, nil
}

// Close tears the client down: it fires the shutdown signal, closes the
// stream (unblocking a reader mid-read without requiring further inbound
// traffic) and waits for the reader to exit. All outstanding requests fail
// with ErrConnectionClosed and all subscriptions end.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.shutdownCh)
		_ = c.stream.Close()
	})
	<-c.readerDone
	return nil
}

// --------------------------------------------------------------------------
// Reader goroutine
// --------------------------------------------------------------------------

// readLoop exclusively owns the read side of the stream. It terminates
// exactly once: on end-of-stream, on a transport/decode error, or when the
// shutdown signal fires (Close also closes the stream, so a blocked read
// returns immediately).
func (c *Client) readLoop() {
	defer close(c.readerDone)

	for {
		select {
		case <-c.shutdownCh:
			c.terminate()
			return
		default:
		}

		var msg proto.FromServer
		if err := c.stream.ReadMessage(&msg); err != nil {
			select {
			case <-c.shutdownCh:
				// owner is gone, nothing to report
			default:
				if err == io.EOF {
					Logger.Infof("Connection closed by server")
				} else {
					Logger.Errorf("Transport failure: %v", err)
				}
			}
			c.terminate()
			return
		}

		c.route(&msg)
	}
}

// route delivers one inbound message to the entry matching its request id.
// Undeliverable messages are logged and dropped; they are a protocol hygiene
// concern, never a caller-visible fault.
func (c *Client) route(msg *proto.FromServer) {
	if msg.Payload == nil {
		Logger.Warningf("Received message with no payload")
		metricUnroutable.Inc()
		return
	}
	if msg.RequestID == nil {
		Logger.Warningf("Received message with no request id")
		metricUnroutable.Inc()
		return
	}

	id := *msg.RequestID
	entry, found := c.pending.LoadAndDelete(id)
	if !found {
		// Not an error: the request may have completed already, or the
		// server replied to an id this client never issued
		Logger.Warningf("Received response to unknown request id %d", id)
		metricUnroutable.Inc()
		return
	}

	if entry.singleShot {
		// The channel has capacity 1 and the entry just left the table, so
		// this send cannot block and no second delivery can follow
		entry.ch <- msg.Payload
		metricDeliveries.Inc()
		return
	}

	// An abandoned subscription is retired deterministically, never raced
	// against a delivery into remaining buffer space
	select {
	case <-entry.done:
		close(entry.ch)
		return
	default:
	}

	select {
	case entry.ch <- msg.Payload:
		// Keep the subscription registered for subsequent events
		metricDeliveries.Inc()
		c.pending.Store(id, entry)
	case <-entry.done:
		// Subscriber gave up while the buffer was full, retire the entry
		close(entry.ch)
	case <-c.shutdownCh:
		// Close must never wait on a subscriber draining a full buffer.
		// Drop the event and end the sequence; terminate fails the rest.
		close(entry.ch)
	}
}

// terminate marks the client closed and fails every outstanding entry.
// Waiters observe the closed channel as a connection-closed error rather
// than hanging. The closed flag must be set before the entries are failed,
// see the re-check in Request.
func (c *Client) terminate() {
	c.closed.Store(true)

	c.pending.Range(func(id int32, _ *pendingEntry) bool {
		if entry, loaded := c.pending.LoadAndDelete(id); loaded {
			close(entry.ch)
		}
		return true
	})
}
