package server

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/muxrpc/muxrpc/rpc/client"
	"github.com/muxrpc/muxrpc/rpc/common"
	"github.com/muxrpc/muxrpc/rpc/proto"
	"github.com/muxrpc/muxrpc/rpc/serializer"
	"github.com/muxrpc/muxrpc/rpc/transport/base"
	"github.com/muxrpc/muxrpc/rpc/transport/unix"
)

// newBrokerClient connects a multiplexer client to an in-memory broker
func newBrokerClient(t *testing.T, srv *Server) *client.Client {
	t.Helper()

	clientConn, serverConn := net.Pipe()
	s := serializer.NewBinarySerializer()

	go srv.HandleStream(base.NewMessageStream(serverConn, s))

	c := client.New(base.NewMessageStream(clientConn, s), common.ClientConfig{})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBrokerAnswersRequests(t *testing.T) {
	srv := New()
	c := newBrokerClient(t, srv)

	auth, err := client.Request[proto.AuthResponse](c, proto.Auth{UserID: 42, AccessToken: "token"})
	require.NoError(t, err)
	require.True(t, auth.CredentialsValid)

	denied, err := client.Request[proto.AuthResponse](c, proto.Auth{UserID: 42, AccessToken: ""})
	require.NoError(t, err)
	require.False(t, denied.CredentialsValid)

	_, err = client.Request[proto.Pong](c, proto.Ping{})
	require.NoError(t, err)

	echo, err := client.Request[proto.EchoResponse](c, proto.Echo{Data: []byte("payload")})
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), echo.Data)
}

func TestBrokerFansOutPublishes(t *testing.T) {
	srv := New()
	watcherA := newBrokerClient(t, srv)
	watcherB := newBrokerClient(t, srv)
	publisher := newBrokerClient(t, srv)

	subA, err := client.Subscribe[proto.ChannelEvent](watcherA, proto.Watch{Channel: "news"})
	require.NoError(t, err)
	defer subA.Close()

	subB, err := client.Subscribe[proto.ChannelEvent](watcherB, proto.Watch{Channel: "news"})
	require.NoError(t, err)
	defer subB.Close()

	// A subscriber of another channel must not receive anything
	subOther, err := client.Subscribe[proto.ChannelEvent](watcherA, proto.Watch{Channel: "sports"})
	require.NoError(t, err)
	defer subOther.Close()

	// Watch is one-way; round-trip a ping so the registrations are
	// guaranteed to be processed before the publish
	_, err = client.Request[proto.Pong](watcherA, proto.Ping{})
	require.NoError(t, err)
	_, err = client.Request[proto.Pong](watcherB, proto.Ping{})
	require.NoError(t, err)

	require.NoError(t, publisher.Send(proto.Publish{Channel: "news", Data: []byte("first")}))
	require.NoError(t, publisher.Send(proto.Publish{Channel: "news", Data: []byte("second")}))

	for _, sub := range []*client.Subscription[proto.ChannelEvent]{subA, subB} {
		event, err := sub.Recv()
		require.NoError(t, err)
		require.Equal(t, uint64(1), event.Seq)
		require.Equal(t, []byte("first"), event.Data)

		event, err = sub.Recv()
		require.NoError(t, err)
		require.Equal(t, uint64(2), event.Seq)
		require.Equal(t, []byte("second"), event.Data)
	}
}

func TestBrokerDropsSubscribersOfClosedConnections(t *testing.T) {
	srv := New()
	watcher := newBrokerClient(t, srv)
	publisher := newBrokerClient(t, srv)

	sub, err := client.Subscribe[proto.ChannelEvent](watcher, proto.Watch{Channel: "news"})
	require.NoError(t, err)
	_, err = client.Request[proto.Pong](watcher, proto.Ping{})
	require.NoError(t, err)

	sub.Close()
	require.NoError(t, watcher.Close())

	// Publishing into the now-dead subscription must not wedge the broker
	require.NoError(t, publisher.Send(proto.Publish{Channel: "news", Data: []byte("x")}))
	_, err = client.Request[proto.Pong](publisher, proto.Ping{})
	require.NoError(t, err)
}

func TestBrokerRejectsUnknownPayloads(t *testing.T) {
	srv := New()
	c := newBrokerClient(t, srv)

	// A ChannelEvent is a server-to-client payload; the broker answers
	// with an error payload, which is not the shape Ping expects
	_, err := client.Request[proto.Pong](c, badRequest{})
	var mismatch *client.ProtocolMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, proto.PTError, mismatch.Got)
}

// badRequest issues a payload the broker does not serve
type badRequest struct{}

func (badRequest) ToPayload() *proto.Payload {
	return proto.NewChannelEventPayload("bogus", 1, nil)
}

func (badRequest) ResponseFromPayload(p *proto.Payload) (proto.Pong, bool) {
	if p == nil || p.Type != proto.PTPong {
		return proto.Pong{}, false
	}
	return proto.Pong{}, true
}

func TestBrokerOverUnixSocket(t *testing.T) {
	srv := New()
	s := serializer.NewJSONSerializer()
	endpoint := filepath.Join(t.TempDir(), "broker.sock")

	go func() {
		_ = srv.Serve(unix.NewServerTransport(s), common.ServerConfig{Endpoint: endpoint})
	}()

	// Wait for the listener to come up
	var c *client.Client
	require.Eventually(t, func() bool {
		stream, err := unix.Connect(common.ClientConfig{Endpoint: endpoint, TimeoutSecond: 1}, s)
		if err != nil {
			return false
		}
		c = client.New(stream, common.ClientConfig{})
		return true
	}, 5*time.Second, 20*time.Millisecond)
	defer c.Close()

	echo, err := client.Request[proto.EchoResponse](c, proto.Echo{Data: []byte("over unix")})
	require.NoError(t, err)
	require.Equal(t, []byte("over unix"), echo.Data)
}
