package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/muxrpc/muxrpc/rpc/serializer"
)

var Logger = logger.GetLogger("rpc/transport")

// maxFrameSize caps a single frame at 64 MB so a corrupt length prefix
// cannot trigger an arbitrarily large allocation
const maxFrameSize = 64 * 1024 * 1024

// MessageStream frames serialized envelopes over a net.Conn. Each frame is
// a 4 byte big endian length prefix followed by the serializer output.
type MessageStream struct {
	conn       net.Conn
	serializer serializer.ISerializer
	writeMu    sync.Mutex // serializes writes from concurrent callers
	readBuf    []byte     // reused between reads, single reader only
}

// NewMessageStream wraps a connection in a framed message stream
func NewMessageStream(conn net.Conn, s serializer.ISerializer) *MessageStream {
	return &MessageStream{
		conn:       conn,
		serializer: s,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IMessageStream)
// --------------------------------------------------------------------------

func (s *MessageStream) WriteMessage(v any) error {
	data, err := s.serializer.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if len(data) > maxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds limit", len(data))
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	b := net.Buffers{header[:], data}
	_, err = b.WriteTo(s.conn)
	return err
}

func (s *MessageStream) ReadMessage(v any) error {
	var header [4]byte
	if _, err := io.ReadFull(s.conn, header[:]); err != nil {
		return err
	}

	length := binary.BigEndian.Uint32(header[:])
	if length > maxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds limit", length)
	}

	if cap(s.readBuf) < int(length) {
		s.readBuf = make([]byte, length)
	}
	buf := s.readBuf[:length]
	if _, err := io.ReadFull(s.conn, buf); err != nil {
		// a frame torn mid-read is a transport failure, not a clean close
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}

	return s.serializer.Unmarshal(buf, v)
}

func (s *MessageStream) Close() error {
	return s.conn.Close()
}
