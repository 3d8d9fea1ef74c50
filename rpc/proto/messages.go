package proto

// --------------------------------------------------------------------------
// Message catalog interfaces
// --------------------------------------------------------------------------

// SendMessage is implemented by every message a client can write to the
// server. Fire-and-forget messages implement only this interface.
type SendMessage interface {
	// ToPayload converts the typed message into its wire payload
	ToPayload() *Payload
}

// RequestMessage is implemented by messages that expect exactly one response
// of type R. ResponseFromPayload converts a generic payload into the expected
// response shape and reports false if the payload shape does not match.
type RequestMessage[R any] interface {
	SendMessage
	ResponseFromPayload(p *Payload) (R, bool)
}

// SubscribeMessage is implemented by messages that open a stream of events
// of type E. EventFromPayload converts a generic payload into the expected
// event shape and reports false if the payload shape does not match.
type SubscribeMessage[E any] interface {
	SendMessage
	EventFromPayload(p *Payload) (E, bool)
}

// --------------------------------------------------------------------------
// Auth (request)
// --------------------------------------------------------------------------

// Auth authenticates the connection with a user id and an access token.
type Auth struct {
	UserID      int32
	AccessToken string
}

// AuthResponse reports whether the presented credentials were accepted.
type AuthResponse struct {
	CredentialsValid bool
}

func (m Auth) ToPayload() *Payload {
	return NewAuthPayload(m.UserID, m.AccessToken)
}

func (m Auth) ResponseFromPayload(p *Payload) (AuthResponse, bool) {
	if p == nil || p.Type != PTAuthResponse {
		return AuthResponse{}, false
	}
	return AuthResponse{CredentialsValid: p.Valid}, true
}

// --------------------------------------------------------------------------
// Ping (request)
// --------------------------------------------------------------------------

// Ping is a liveness check answered by a Pong.
type Ping struct{}

// Pong is the answer to a Ping.
type Pong struct{}

func (m Ping) ToPayload() *Payload {
	return NewPingPayload()
}

func (m Ping) ResponseFromPayload(p *Payload) (Pong, bool) {
	if p == nil || p.Type != PTPong {
		return Pong{}, false
	}
	return Pong{}, true
}

// --------------------------------------------------------------------------
// Echo (request)
// --------------------------------------------------------------------------

// Echo asks the server to send the same data back. Mainly useful for
// benchmarking and connectivity checks.
type Echo struct {
	Data []byte
}

// EchoResponse carries the echoed data.
type EchoResponse struct {
	Data []byte
}

func (m Echo) ToPayload() *Payload {
	return NewEchoPayload(m.Data)
}

func (m Echo) ResponseFromPayload(p *Payload) (EchoResponse, bool) {
	if p == nil || p.Type != PTEchoResponse {
		return EchoResponse{}, false
	}
	return EchoResponse{Data: p.Data}, true
}

// --------------------------------------------------------------------------
// Watch (subscription)
// --------------------------------------------------------------------------

// Watch subscribes to all events published on a channel.
type Watch struct {
	Channel string
}

// ChannelEvent is one event on a watched channel. Seq increases by one per
// event within a single subscription.
type ChannelEvent struct {
	Channel string
	Seq     uint64
	Data    []byte
}

func (m Watch) ToPayload() *Payload {
	return NewWatchPayload(m.Channel)
}

func (m Watch) EventFromPayload(p *Payload) (ChannelEvent, bool) {
	if p == nil || p.Type != PTChannelEvent {
		return ChannelEvent{}, false
	}
	return ChannelEvent{Channel: p.Channel, Seq: p.Seq, Data: p.Data}, true
}

// --------------------------------------------------------------------------
// Publish (fire-and-forget)
// --------------------------------------------------------------------------

// Publish sends data to a channel. The server does not acknowledge it.
type Publish struct {
	Channel string
	Data    []byte
}

func (m Publish) ToPayload() *Payload {
	return NewPublishPayload(m.Channel, m.Data)
}
