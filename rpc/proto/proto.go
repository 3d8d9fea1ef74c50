package proto

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Envelopes
// --------------------------------------------------------------------------

// FromClient is the envelope for every client-to-server message. The id is
// allocated by the client and correlates responses and events back to the
// operation that issued the message.
type FromClient struct {
	ID      int32    `json:"id"`
	Payload *Payload `json:"payload,omitempty"`
}

// FromServer is the envelope for every server-to-client message. RequestID
// refers to the id of the FromClient message this message answers; a message
// without a request id cannot be routed and is dropped by the client.
type FromServer struct {
	RequestID *int32   `json:"request_id,omitempty"`
	Payload   *Payload `json:"payload,omitempty"`
}

// --------------------------------------------------------------------------
// Payload Structure
// --------------------------------------------------------------------------

// Payload represents the content of a single protocol message. Which fields
// are used depends on the payload type.
type Payload struct {
	// Type of payload
	Type PayloadType `json:"type"`

	// Auth fields
	UserID      int32  `json:"user_id,omitempty"`      // Used for: Auth
	AccessToken string `json:"access_token,omitempty"` // Used for: Auth
	Valid       bool   `json:"valid,omitempty"`        // Used for: AuthResponse

	// Channel fields
	Channel string `json:"channel,omitempty"` // Used for: Watch, Publish, ChannelEvent
	Seq     uint64 `json:"seq,omitempty"`     // Used for: ChannelEvent
	Data    []byte `json:"data,omitempty"`    // Used for: Publish, ChannelEvent

	// Error responses
	Err string `json:"err,omitempty"` // Used for: Error
}

// --------------------------------------------------------------------------
// Payload Factory Functions
// --------------------------------------------------------------------------

// NewAuthPayload creates a new Auth request payload
func NewAuthPayload(userID int32, accessToken string) *Payload {
	return &Payload{
		Type:        PTAuth,
		UserID:      userID,
		AccessToken: accessToken,
	}
}

// NewAuthResponsePayload creates a new Auth response payload
func NewAuthResponsePayload(valid bool) *Payload {
	return &Payload{
		Type:  PTAuthResponse,
		Valid: valid,
	}
}

// NewPingPayload creates a new Ping request payload
func NewPingPayload() *Payload {
	return &Payload{Type: PTPing}
}

// NewPongPayload creates a new Pong response payload
func NewPongPayload() *Payload {
	return &Payload{Type: PTPong}
}

// NewEchoPayload creates a new Echo request payload
func NewEchoPayload(data []byte) *Payload {
	return &Payload{
		Type: PTEcho,
		Data: data,
	}
}

// NewEchoResponsePayload creates a new Echo response payload
func NewEchoResponsePayload(data []byte) *Payload {
	return &Payload{
		Type: PTEchoResponse,
		Data: data,
	}
}

// NewWatchPayload creates a new Watch subscription payload
func NewWatchPayload(channel string) *Payload {
	return &Payload{
		Type:    PTWatch,
		Channel: channel,
	}
}

// NewChannelEventPayload creates a new ChannelEvent payload
func NewChannelEventPayload(channel string, seq uint64, data []byte) *Payload {
	return &Payload{
		Type:    PTChannelEvent,
		Channel: channel,
		Seq:     seq,
		Data:    data,
	}
}

// NewPublishPayload creates a new Publish payload
func NewPublishPayload(channel string, data []byte) *Payload {
	return &Payload{
		Type:    PTPublish,
		Channel: channel,
		Data:    data,
	}
}

// NewErrorPayload creates a new Error payload
func NewErrorPayload(err string) *Payload {
	return &Payload{
		Type: PTError,
		Err:  err,
	}
}

// --------------------------------------------------------------------------
// Payload Type Definition
// --------------------------------------------------------------------------

// PayloadType defines the type of a payload used in RPC communication.
type PayloadType uint8

// String returns the string representation of a PayloadType.
func (t PayloadType) String() string {
	switch t {
	case PTAuth:
		return "auth"
	case PTAuthResponse:
		return "authResponse"
	case PTPing:
		return "ping"
	case PTPong:
		return "pong"
	case PTEcho:
		return "echo"
	case PTEchoResponse:
		return "echoResponse"
	case PTWatch:
		return "watch"
	case PTChannelEvent:
		return "channelEvent"
	case PTPublish:
		return "publish"
	case PTError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for PayloadType.
// This allows PayloadType to be serialized as a string in JSON.
func (t PayloadType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for PayloadType.
// This allows PayloadType to be deserialized from a string in JSON.
func (t *PayloadType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to PayloadType
	switch s {
	case "auth":
		*t = PTAuth
	case "authResponse":
		*t = PTAuthResponse
	case "ping":
		*t = PTPing
	case "pong":
		*t = PTPong
	case "echo":
		*t = PTEcho
	case "echoResponse":
		*t = PTEchoResponse
	case "watch":
		*t = PTWatch
	case "channelEvent":
		*t = PTChannelEvent
	case "publish":
		*t = PTPublish
	case "error":
		*t = PTError
	default:
		return fmt.Errorf("unknown payload type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Payload Type Constants
// --------------------------------------------------------------------------

const (
	// General payload types

	PTUnknown PayloadType = iota
	PTError               // Indicates an error occurred

	// Request / response pairs

	PTAuth         // Authenticate the connection
	PTAuthResponse // Result of an Auth request
	PTPing         // Liveness check
	PTPong         // Answer to a Ping
	PTEcho         // Echo request, answered with the same data
	PTEchoResponse // Answer to an Echo

	// Subscriptions and fire-and-forget operations

	PTWatch        // Subscribe to a channel
	PTChannelEvent // One event on a watched channel
	PTPublish      // Publish data to a channel (no response)
)
