package client

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muxrpc/muxrpc/rpc/common"
	"github.com/muxrpc/muxrpc/rpc/proto"
	"github.com/muxrpc/muxrpc/rpc/serializer"
	"github.com/muxrpc/muxrpc/rpc/transport"
	"github.com/muxrpc/muxrpc/rpc/transport/base"
)

const testTimeout = 5 * time.Second

// newTestPair connects a client to an in-memory peer stream that tests use
// to play the server side of the protocol
func newTestPair(t *testing.T) (*Client, transport.IMessageStream) {
	t.Helper()

	clientConn, serverConn := net.Pipe()
	s := serializer.NewJSONSerializer()

	c := New(base.NewMessageStream(clientConn, s), common.ClientConfig{})
	t.Cleanup(func() { _ = c.Close() })

	server := base.NewMessageStream(serverConn, s)
	t.Cleanup(func() { _ = server.Close() })

	return c, server
}

// readClient reads the next client envelope on the server side
func readClient(t *testing.T, server transport.IMessageStream) *proto.FromClient {
	t.Helper()
	var msg proto.FromClient
	require.NoError(t, server.ReadMessage(&msg))
	return &msg
}

// reply sends a server envelope addressed to the given id
func reply(t *testing.T, server transport.IMessageStream, id int32, payload *proto.Payload) {
	t.Helper()
	require.NoError(t, server.WriteMessage(&proto.FromServer{RequestID: &id, Payload: payload}))
}

// await guards against a hanging operation; the whole point of the
// multiplexer is that callers never hang silently
func await[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for operation")
		panic("unreachable")
	}
}

type requestResult[R any] struct {
	resp R
	err  error
}

// startRequest issues a request in the background
func startRequest[R any](c *Client, req proto.RequestMessage[R]) <-chan requestResult[R] {
	ch := make(chan requestResult[R], 1)
	go func() {
		resp, err := Request[R](c, req)
		ch <- requestResult[R]{resp, err}
	}()
	return ch
}

// startSubscribe opens a subscription and returns it together with the
// Watch envelope observed on the server side. Subscribe writes
// synchronously, so the envelope must be consumed concurrently.
func startSubscribe(t *testing.T, c *Client, server transport.IMessageStream, channel string) (*Subscription[proto.ChannelEvent], *proto.FromClient) {
	t.Helper()

	msgCh := make(chan *proto.FromClient, 1)
	go func() {
		var msg proto.FromClient
		if err := server.ReadMessage(&msg); err == nil {
			msgCh <- &msg
		}
	}()

	sub, err := Subscribe[proto.ChannelEvent](c, proto.Watch{Channel: channel})
	require.NoError(t, err)

	return sub, await(t, msgCh)
}

// roundTripPing proves the reader goroutine is still routing
func roundTripPing(t *testing.T, c *Client, server transport.IMessageStream) {
	t.Helper()
	resCh := startRequest[proto.Pong](c, proto.Ping{})
	msg := readClient(t, server)
	require.Equal(t, proto.PTPing, msg.Payload.Type)
	reply(t, server, msg.ID, proto.NewPongPayload())
	res := await(t, resCh)
	require.NoError(t, res.err)
}

func TestRequestRoutesResponseByID(t *testing.T) {
	c, server := newTestPair(t)

	resCh := startRequest[proto.AuthResponse](c, proto.Auth{UserID: 42, AccessToken: "token"})

	msg := readClient(t, server)
	require.NotNil(t, msg.Payload)
	require.Equal(t, proto.PTAuth, msg.Payload.Type)
	require.Equal(t, int32(42), msg.Payload.UserID)
	require.Equal(t, "token", msg.Payload.AccessToken)

	// Respond to an id the client never issued first, to ensure requests
	// are properly matched up
	unroutableBefore := metricUnroutable.Get()
	reply(t, server, 999, proto.NewAuthResponsePayload(false))
	reply(t, server, msg.ID, proto.NewAuthResponsePayload(true))

	res := await(t, resCh)
	require.NoError(t, res.err)
	require.True(t, res.resp.CredentialsValid)

	// The stray reply was dropped, not delivered anywhere
	assert.Equal(t, unroutableBefore+1, metricUnroutable.Get())
}

func TestRequestConnectionClosed(t *testing.T) {
	c, server := newTestPair(t)

	resCh := startRequest[proto.AuthResponse](c, proto.Auth{UserID: 1, AccessToken: "t"})

	// Read the request, then kill the connection without answering
	readClient(t, server)
	require.NoError(t, server.Close())

	res := await(t, resCh)
	require.ErrorIs(t, res.err, ErrConnectionClosed)
}

func TestSingleShotEntryRetiredAfterDelivery(t *testing.T) {
	c, server := newTestPair(t)

	resCh := startRequest[proto.Pong](c, proto.Ping{})
	msg := readClient(t, server)

	reply(t, server, msg.ID, proto.NewPongPayload())
	res := await(t, resCh)
	require.NoError(t, res.err)

	// A second reply with the same id is unroutable
	unroutableBefore := metricUnroutable.Get()
	reply(t, server, msg.ID, proto.NewPongPayload())

	roundTripPing(t, c, server)
	assert.Equal(t, unroutableBefore+1, metricUnroutable.Get())
}

func TestRequestProtocolMismatch(t *testing.T) {
	c, server := newTestPair(t)

	resCh := startRequest[proto.AuthResponse](c, proto.Auth{UserID: 7, AccessToken: "t"})
	msg := readClient(t, server)

	// Answer with a payload shape the request does not expect
	reply(t, server, msg.ID, proto.NewPongPayload())

	res := await(t, resCh)
	var mismatch *ProtocolMismatchError
	require.ErrorAs(t, res.err, &mismatch)
	require.Equal(t, proto.PTPong, mismatch.Got)

	// The single-shot contract holds regardless of the decode outcome:
	// the entry is gone, a replay of the same id is unroutable
	unroutableBefore := metricUnroutable.Get()
	reply(t, server, msg.ID, proto.NewAuthResponsePayload(true))

	roundTripPing(t, c, server)
	assert.Equal(t, unroutableBefore+1, metricUnroutable.Get())
}

func TestConcurrentRequests(t *testing.T) {
	c, server := newTestPair(t)

	const numRequests = 32

	results := make([]<-chan requestResult[proto.EchoResponse], numRequests)
	for i := 0; i < numRequests; i++ {
		results[i] = startRequest[proto.EchoResponse](c, proto.Echo{Data: []byte(fmt.Sprintf("req-%d", i))})
	}

	// Collect all requests, then answer them in shuffled order
	msgs := make([]*proto.FromClient, numRequests)
	for i := range msgs {
		msgs[i] = readClient(t, server)
	}
	rand.Shuffle(len(msgs), func(i, j int) { msgs[i], msgs[j] = msgs[j], msgs[i] })
	for _, msg := range msgs {
		reply(t, server, msg.ID, proto.NewEchoResponsePayload(msg.Payload.Data))
	}

	for i, resCh := range results {
		res := await(t, resCh)
		require.NoError(t, res.err)
		require.Equal(t, []byte(fmt.Sprintf("req-%d", i)), res.resp.Data)
	}
}

func TestSubscriptionDeliversEventsInOrder(t *testing.T) {
	c, server := newTestPair(t)

	sub, msg := startSubscribe(t, c, server, "news")
	defer sub.Close()

	require.Equal(t, proto.PTWatch, msg.Payload.Type)
	require.Equal(t, "news", msg.Payload.Channel)

	for seq := uint64(1); seq <= 3; seq++ {
		reply(t, server, msg.ID, proto.NewChannelEventPayload("news", seq, []byte("data")))
	}

	for seq := uint64(1); seq <= 3; seq++ {
		event, err := sub.Recv()
		require.NoError(t, err)
		require.Equal(t, seq, event.Seq)
		require.Equal(t, "news", event.Channel)
	}
}

func TestSubscriptionEventMismatchDoesNotEndSequence(t *testing.T) {
	c, server := newTestPair(t)

	sub, msg := startSubscribe(t, c, server, "news")
	defer sub.Close()

	reply(t, server, msg.ID, proto.NewPongPayload())
	reply(t, server, msg.ID, proto.NewChannelEventPayload("news", 1, nil))

	_, err := sub.Recv()
	var mismatch *ProtocolMismatchError
	require.ErrorAs(t, err, &mismatch)

	// The sequence continues after the bad event
	event, err := sub.Recv()
	require.NoError(t, err)
	require.Equal(t, uint64(1), event.Seq)
}

func TestAbandonedSubscriptionIsDropped(t *testing.T) {
	c, server := newTestPair(t)

	sub, msg := startSubscribe(t, c, server, "news")
	sub.Close()

	_, err := sub.Recv()
	require.ErrorIs(t, err, ErrSubscriptionClosed)

	// The next event addressed to the subscription retires its entry, any
	// event after that is unroutable; the reader absorbs both silently
	reply(t, server, msg.ID, proto.NewChannelEventPayload("news", 1, nil))
	reply(t, server, msg.ID, proto.NewChannelEventPayload("news", 2, nil))

	roundTripPing(t, c, server)
}

func TestSubscriptionEndsOnConnectionLoss(t *testing.T) {
	c, server := newTestPair(t)

	sub, msg := startSubscribe(t, c, server, "news")
	defer sub.Close()

	reply(t, server, msg.ID, proto.NewChannelEventPayload("news", 1, nil))
	require.NoError(t, server.Close())

	// Events delivered before the loss are still drained, then the
	// sequence ends
	event, err := sub.Recv()
	require.NoError(t, err)
	require.Equal(t, uint64(1), event.Seq)

	_, err = sub.Recv()
	require.ErrorIs(t, err, ErrSubscriptionClosed)

	// New requests fail instead of hanging
	_, err = Request[proto.Pong](c, proto.Ping{})
	require.Error(t, err)
}

func TestCloseUnblocksReaderOnFullSubscriptionBuffer(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	s := serializer.NewJSONSerializer()
	server := base.NewMessageStream(serverConn, s)
	defer server.Close()

	c := New(base.NewMessageStream(clientConn, s), common.ClientConfig{SubscriptionBuffer: 1})

	sub, msg := startSubscribe(t, c, server, "news")
	defer sub.Close()

	// The first event fills the buffer, the second parks the reader on the
	// blocked delivery; nothing is draining the subscription
	reply(t, server, msg.ID, proto.NewChannelEventPayload("news", 1, nil))
	reply(t, server, msg.ID, proto.NewChannelEventPayload("news", 2, nil))

	// Close must not wait for the subscriber
	closeDone := make(chan struct{})
	go func() {
		_ = c.Close()
		close(closeDone)
	}()
	await(t, closeDone)

	// The buffered event is still drained, then the sequence ends
	event, err := sub.Recv()
	require.NoError(t, err)
	require.Equal(t, uint64(1), event.Seq)

	_, err = sub.Recv()
	require.ErrorIs(t, err, ErrSubscriptionClosed)
}

func TestSendExpectsNoResponse(t *testing.T) {
	c, server := newTestPair(t)

	readDone := make(chan *proto.FromClient, 1)
	go func() {
		var msg proto.FromClient
		if err := server.ReadMessage(&msg); err == nil {
			readDone <- &msg
		}
	}()

	require.NoError(t, c.Send(proto.Publish{Channel: "news", Data: []byte("hello")}))

	msg := await(t, readDone)
	require.Equal(t, proto.PTPublish, msg.Payload.Type)

	// A reply to a fire-and-forget id is unroutable but harmless
	reply(t, server, msg.ID, proto.NewPongPayload())
	roundTripPing(t, c, server)
}

func TestCloseUnblocksReaderWithoutTraffic(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	s := serializer.NewJSONSerializer()
	server := base.NewMessageStream(serverConn, s)
	defer server.Close()

	c := New(base.NewMessageStream(clientConn, s), common.ClientConfig{})

	// No traffic is in flight; Close must still terminate the reader
	closeDone := make(chan struct{})
	go func() {
		_ = c.Close()
		close(closeDone)
	}()
	await(t, closeDone)

	// The peer observes the hang-up promptly
	deadline := time.Now().Add(testTimeout)
	for {
		if err := server.WriteMessage(&proto.FromServer{}); err != nil {
			break
		}
		require.True(t, time.Now().Before(deadline), "peer never observed the closed connection")
	}
}

func TestCloseFailsOutstandingRequests(t *testing.T) {
	c, server := newTestPair(t)

	resCh := startRequest[proto.Pong](c, proto.Ping{})
	readClient(t, server)

	require.NoError(t, c.Close())

	res := await(t, resCh)
	require.ErrorIs(t, res.err, ErrConnectionClosed)
}

func TestIDsAreUniquePerClient(t *testing.T) {
	c, server := newTestPair(t)

	const numMessages = 16

	var wg sync.WaitGroup
	for i := 0; i < numMessages; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Send(proto.Publish{Channel: "c", Data: nil})
		}()
	}

	seen := make(map[int32]bool)
	for i := 0; i < numMessages; i++ {
		msg := readClient(t, server)
		require.False(t, seen[msg.ID], "id %d allocated twice", msg.ID)
		seen[msg.ID] = true
	}
	wg.Wait()
}

func TestMessagesWithoutIDOrPayloadAreDropped(t *testing.T) {
	c, server := newTestPair(t)

	unroutableBefore := metricUnroutable.Get()

	// No payload
	id := int32(1)
	require.NoError(t, server.WriteMessage(&proto.FromServer{RequestID: &id}))
	// No request id
	require.NoError(t, server.WriteMessage(&proto.FromServer{Payload: proto.NewPongPayload()}))

	roundTripPing(t, c, server)
	assert.Equal(t, unroutableBefore+2, metricUnroutable.Get())
}

func TestRequestAfterCloseFails(t *testing.T) {
	c, _ := newTestPair(t)
	require.NoError(t, c.Close())

	_, err := Request[proto.Pong](c, proto.Ping{})
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrSubscriptionClosed))
}
