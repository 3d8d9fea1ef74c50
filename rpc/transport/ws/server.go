package ws

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lni/dragonboat/v4/logger"

	"github.com/muxrpc/muxrpc/rpc/common"
	"github.com/muxrpc/muxrpc/rpc/serializer"
	"github.com/muxrpc/muxrpc/rpc/transport"
)

var Logger = logger.GetLogger("rpc/transport")

// serverTransport implements transport.IServerTransport over websocket.
// Unlike the raw socket transports it does not use the base accept loop;
// connections arrive as HTTP upgrade requests.
type serverTransport struct {
	serializer serializer.ISerializer
	handler    transport.StreamHandleFunc
}

// NewServerTransport creates a new websocket server transport
func NewServerTransport(s serializer.ISerializer) transport.IServerTransport {
	return &serverTransport{serializer: s}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.StreamHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:   config.ReadBufferSize,
		WriteBufferSize:  config.WriteBufferSize,
		HandshakeTimeout: time.Duration(config.TimeoutSecond) * time.Second,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		stream, err := upgrade(w, r, &upgrader, t.serializer)
		if err != nil {
			Logger.Errorf("Upgrade error: %v", err)
			return
		}
		t.handler(stream)
	})

	Logger.Infof("Starting ws server on %s", config.Endpoint)

	return http.ListenAndServe(config.Endpoint, mux)
}
