package ws

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muxrpc/muxrpc/rpc/common"
	"github.com/muxrpc/muxrpc/rpc/serializer"
	"github.com/muxrpc/muxrpc/rpc/transport"
)

// wsStream implements transport.IMessageStream over a websocket connection.
// Websocket messages are already framed, so each envelope is sent as one
// binary message with no additional length prefix.
type wsStream struct {
	conn       *websocket.Conn
	serializer serializer.ISerializer
	writeMu    sync.Mutex // gorilla/websocket allows only one concurrent writer
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IMessageStream)
// --------------------------------------------------------------------------

func (s *wsStream) WriteMessage(v any) error {
	data, err := s.serializer.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (s *wsStream) ReadMessage(v any) error {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return io.EOF
			}
			return err
		}
		// Ignore non-binary messages (pings are handled by gorilla itself)
		if msgType != websocket.BinaryMessage {
			continue
		}
		return s.serializer.Unmarshal(data, v)
	}
}

func (s *wsStream) Close() error {
	return s.conn.Close()
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// Connect dials a ws:// (or wss://) endpoint and returns a message stream
func Connect(config common.ClientConfig, s serializer.ISerializer) (transport.IMessageStream, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: time.Duration(config.TimeoutSecond) * time.Second,
		ReadBufferSize:   config.ReadBufferSize,
		WriteBufferSize:  config.WriteBufferSize,
	}

	conn, resp, err := dialer.Dial(config.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial websocket %s: %w", config.Endpoint, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	return &wsStream{conn: conn, serializer: s}, nil
}

// upgrade is used by the server transport to wrap an accepted websocket
// connection in a message stream
func upgrade(w http.ResponseWriter, r *http.Request, upgrader *websocket.Upgrader, s serializer.ISerializer) (transport.IMessageStream, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &wsStream{conn: conn, serializer: s}, nil
}
