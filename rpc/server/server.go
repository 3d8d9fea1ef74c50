package server

import (
	"io"
	"sync"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/muxrpc/muxrpc/rpc/common"
	"github.com/muxrpc/muxrpc/rpc/proto"
	"github.com/muxrpc/muxrpc/rpc/transport"
)

var Logger = logger.GetLogger("rpc/server")

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// subscriber is one Watch registration: events for it are addressed to the
// id of the Watch message on the stream that sent it
type subscriber struct {
	stream transport.IMessageStream
	id     int32
	seq    uint64
}

// Server is a small message broker speaking the multiplexed protocol. It
// answers Auth, Ping and Echo requests and fans Publish messages out to all
// Watch subscribers of the published channel.
type Server struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{} // channel -> subscribers
}

// New creates a new broker
func New() *Server {
	return &Server{
		subs: make(map[string]map[*subscriber]struct{}),
	}
}

// Serve registers the broker on the given transport and listens
func (s *Server) Serve(t transport.IServerTransport, config common.ServerConfig) error {
	t.RegisterHandler(s.HandleStream)
	return t.Listen(config)
}

// --------------------------------------------------------------------------
// Connection handling
// --------------------------------------------------------------------------

// HandleStream serves one client connection until it closes. It is the
// transport.StreamHandleFunc of the broker and may be called concurrently
// for many connections.
func (s *Server) HandleStream(stream transport.IMessageStream) {
	defer func() {
		s.dropStream(stream)
		_ = stream.Close()
	}()

	for {
		var msg proto.FromClient
		if err := stream.ReadMessage(&msg); err != nil {
			if err != io.EOF {
				Logger.Errorf("Read error: %v", err)
			}
			return
		}

		if msg.Payload == nil {
			Logger.Warningf("Received message %d with no payload", msg.ID)
			continue
		}

		s.handleMessage(stream, &msg)
	}
}

// handleMessage dispatches one inbound message
func (s *Server) handleMessage(stream transport.IMessageStream, msg *proto.FromClient) {
	switch msg.Payload.Type {
	case proto.PTAuth:
		// Demo credential check: any non-empty token is accepted
		valid := msg.Payload.AccessToken != ""
		s.reply(stream, msg.ID, proto.NewAuthResponsePayload(valid))

	case proto.PTPing:
		s.reply(stream, msg.ID, proto.NewPongPayload())

	case proto.PTEcho:
		s.reply(stream, msg.ID, proto.NewEchoResponsePayload(msg.Payload.Data))

	case proto.PTWatch:
		s.addSubscriber(stream, msg.ID, msg.Payload.Channel)

	case proto.PTPublish:
		// Fire-and-forget: no reply to the publisher
		s.publish(msg.Payload.Channel, msg.Payload.Data)

	default:
		Logger.Warningf("Received unsupported payload type %s", msg.Payload.Type)
		s.reply(stream, msg.ID, proto.NewErrorPayload("unsupported payload type: "+msg.Payload.Type.String()))
	}
}

// reply writes one response addressed to the given request id
func (s *Server) reply(stream transport.IMessageStream, id int32, payload *proto.Payload) {
	if err := stream.WriteMessage(&proto.FromServer{RequestID: &id, Payload: payload}); err != nil {
		Logger.Errorf("Failed to write response for request %d: %v", id, err)
	}
}

// --------------------------------------------------------------------------
// Subscription hub
// --------------------------------------------------------------------------

// addSubscriber registers a Watch
func (s *Server) addSubscriber(stream transport.IMessageStream, id int32, channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs[channel] == nil {
		s.subs[channel] = make(map[*subscriber]struct{})
	}
	s.subs[channel][&subscriber{stream: stream, id: id}] = struct{}{}
}

// publish fans data out to all subscribers of a channel. Delivery targets
// are collected under the lock, the writes happen outside of it; a failed
// write drops the subscriber.
func (s *Server) publish(channel string, data []byte) {
	type delivery struct {
		sub *subscriber
		seq uint64
	}

	s.mu.Lock()
	targets := make([]delivery, 0, len(s.subs[channel]))
	for sub := range s.subs[channel] {
		sub.seq++
		targets = append(targets, delivery{sub: sub, seq: sub.seq})
	}
	s.mu.Unlock()

	for _, d := range targets {
		event := proto.NewChannelEventPayload(channel, d.seq, data)
		if err := d.sub.stream.WriteMessage(&proto.FromServer{RequestID: &d.sub.id, Payload: event}); err != nil {
			Logger.Warningf("Dropping subscriber of %q after write error: %v", channel, err)
			s.removeSubscriber(channel, d.sub)
		}
	}
}

// removeSubscriber drops a single subscriber
func (s *Server) removeSubscriber(channel string, sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.subs[channel], sub)
	if len(s.subs[channel]) == 0 {
		delete(s.subs, channel)
	}
}

// dropStream drops all subscribers registered on a closing connection
func (s *Server) dropStream(stream transport.IMessageStream) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for channel, subs := range s.subs {
		for sub := range subs {
			if sub.stream == stream {
				delete(subs, sub)
			}
		}
		if len(subs) == 0 {
			delete(s.subs, channel)
		}
	}
}
