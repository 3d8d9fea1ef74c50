package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/muxrpc/muxrpc/rpc/proto"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() ISerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements ISerializer using a custom binary format
type binarySerializerImpl struct{}

// Bit flags to indicate which optional payload fields are present
const (
	hasUserID      byte = 1 << 0
	hasAccessToken byte = 1 << 1
	hasValid       byte = 1 << 2
	hasChannel     byte = 1 << 3
	hasSeq         byte = 1 << 4
	hasData        byte = 1 << 5
	hasErr         byte = 1 << 6
)

// Bit flags for the envelope headers
const (
	hasRequestID byte = 1 << 0
	hasPayload   byte = 1 << 1
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISerializer)
// --------------------------------------------------------------------------

func (s *binarySerializerImpl) Marshal(v any) ([]byte, error) {
	switch env := v.(type) {
	case *proto.FromClient:
		// 4 bytes id + 1 byte flags + optional payload
		buf := binary.BigEndian.AppendUint32(make([]byte, 0, 64), uint32(env.ID))
		if env.Payload != nil {
			buf = append(buf, hasPayload)
			buf = appendPayload(buf, env.Payload)
		} else {
			buf = append(buf, 0)
		}
		return buf, nil

	case *proto.FromServer:
		// 1 byte flags + optional 4 bytes request id + optional payload
		var flags byte
		if env.RequestID != nil {
			flags |= hasRequestID
		}
		if env.Payload != nil {
			flags |= hasPayload
		}
		buf := append(make([]byte, 0, 64), flags)
		if env.RequestID != nil {
			buf = binary.BigEndian.AppendUint32(buf, uint32(*env.RequestID))
		}
		if env.Payload != nil {
			buf = appendPayload(buf, env.Payload)
		}
		return buf, nil

	default:
		return nil, fmt.Errorf("binary serializer: unsupported type %T", v)
	}
}

func (s *binarySerializerImpl) Unmarshal(data []byte, v any) error {
	switch env := v.(type) {
	case *proto.FromClient:
		if len(data) < 5 {
			return fmt.Errorf("data too short for client envelope header")
		}
		env.ID = int32(binary.BigEndian.Uint32(data[:4]))
		env.Payload = nil
		if data[4]&hasPayload != 0 {
			payload, _, err := readPayload(data, 5)
			if err != nil {
				return err
			}
			env.Payload = payload
		}
		return nil

	case *proto.FromServer:
		if len(data) < 1 {
			return fmt.Errorf("data too short for server envelope header")
		}
		flags := data[0]
		pos := 1
		env.RequestID = nil
		env.Payload = nil
		if flags&hasRequestID != 0 {
			if pos+4 > len(data) {
				return fmt.Errorf("data too short for request id")
			}
			id := int32(binary.BigEndian.Uint32(data[pos : pos+4]))
			env.RequestID = &id
			pos += 4
		}
		if flags&hasPayload != 0 {
			payload, _, err := readPayload(data, pos)
			if err != nil {
				return err
			}
			env.Payload = payload
		}
		return nil

	default:
		return fmt.Errorf("binary serializer: unsupported type %T", v)
	}
}

// --------------------------------------------------------------------------
// Payload encoding helpers
// --------------------------------------------------------------------------

// appendPayload appends the binary form of a payload: one byte payload type,
// one byte field flags, then the present fields in flag order
func appendPayload(buf []byte, p *proto.Payload) []byte {
	var flags byte
	if p.UserID != 0 {
		flags |= hasUserID
	}
	if p.AccessToken != "" {
		flags |= hasAccessToken
	}
	if p.Valid {
		flags |= hasValid
	}
	if p.Channel != "" {
		flags |= hasChannel
	}
	if p.Seq != 0 {
		flags |= hasSeq
	}
	if p.Data != nil {
		flags |= hasData
	}
	if p.Err != "" {
		flags |= hasErr
	}

	buf = append(buf, byte(p.Type), flags)

	if flags&hasUserID != 0 {
		buf = binary.BigEndian.AppendUint32(buf, uint32(p.UserID))
	}
	if flags&hasAccessToken != 0 {
		buf = appendBytes(buf, []byte(p.AccessToken))
	}
	if flags&hasValid != 0 {
		buf = append(buf, 1)
	}
	if flags&hasChannel != 0 {
		buf = appendBytes(buf, []byte(p.Channel))
	}
	if flags&hasSeq != 0 {
		buf = binary.BigEndian.AppendUint64(buf, p.Seq)
	}
	if flags&hasData != 0 {
		buf = appendBytes(buf, p.Data)
	}
	if flags&hasErr != 0 {
		buf = appendBytes(buf, []byte(p.Err))
	}

	return buf
}

// readPayload decodes a payload starting at pos and returns it together with
// the position of the first byte after it
func readPayload(data []byte, pos int) (*proto.Payload, int, error) {
	if pos+2 > len(data) {
		return nil, pos, fmt.Errorf("data too short for payload header")
	}

	p := &proto.Payload{Type: proto.PayloadType(data[pos])}
	flags := data[pos+1]
	pos += 2

	var err error

	if flags&hasUserID != 0 {
		if pos+4 > len(data) {
			return nil, pos, fmt.Errorf("data too short for user id")
		}
		p.UserID = int32(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
	}
	if flags&hasAccessToken != 0 {
		var b []byte
		if b, pos, err = readBytes(data, pos, "access token"); err != nil {
			return nil, pos, err
		}
		p.AccessToken = string(b)
	}
	if flags&hasValid != 0 {
		if pos+1 > len(data) {
			return nil, pos, fmt.Errorf("data too short for valid flag")
		}
		p.Valid = data[pos] != 0
		pos += 1
	}
	if flags&hasChannel != 0 {
		var b []byte
		if b, pos, err = readBytes(data, pos, "channel"); err != nil {
			return nil, pos, err
		}
		p.Channel = string(b)
	}
	if flags&hasSeq != 0 {
		if pos+8 > len(data) {
			return nil, pos, fmt.Errorf("data too short for seq")
		}
		p.Seq = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	}
	if flags&hasData != 0 {
		var b []byte
		if b, pos, err = readBytes(data, pos, "data"); err != nil {
			return nil, pos, err
		}
		// copy so the payload does not alias the read buffer
		p.Data = append([]byte(nil), b...)
	}
	if flags&hasErr != 0 {
		var b []byte
		if b, pos, err = readBytes(data, pos, "err"); err != nil {
			return nil, pos, err
		}
		p.Err = string(b)
	}

	return p, pos, nil
}

// appendBytes appends a length-prefixed byte slice
func appendBytes(buf []byte, b []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

// readBytes reads a length-prefixed byte slice
func readBytes(data []byte, pos int, field string) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, pos, fmt.Errorf("data too short for %s length", field)
	}
	n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if pos+n > len(data) {
		return nil, pos, fmt.Errorf("data too short for %s", field)
	}
	return data[pos : pos+n], pos + n, nil
}
