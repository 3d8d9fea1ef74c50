package serializer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/muxrpc/muxrpc/rpc/proto"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() ISerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

func int32Ptr(v int32) *int32 { return &v }

func TestSerializerRoundTrip(t *testing.T) {
	clientEnvelopes := []*proto.FromClient{
		{ID: 1, Payload: proto.NewAuthPayload(42, "token")},
		{ID: 2, Payload: proto.NewPingPayload()},
		{ID: 3, Payload: proto.NewWatchPayload("news")},
		{ID: 4, Payload: proto.NewPublishPayload("news", []byte("hello"))},
		{ID: 5}, // no payload
	}
	serverEnvelopes := []*proto.FromServer{
		{RequestID: int32Ptr(1), Payload: proto.NewAuthResponsePayload(true)},
		{RequestID: int32Ptr(2), Payload: proto.NewPongPayload()},
		{RequestID: int32Ptr(3), Payload: proto.NewChannelEventPayload("news", 7, []byte("data"))},
		{RequestID: int32Ptr(4), Payload: proto.NewErrorPayload("boom")},
		{Payload: proto.NewPongPayload()}, // no request id
		{RequestID: int32Ptr(5)},          // no payload
	}

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()

			for _, env := range clientEnvelopes {
				data, err := s.Marshal(env)
				require.NoError(t, err)

				var result proto.FromClient
				require.NoError(t, s.Unmarshal(data, &result))
				require.Equal(t, *env, result)
			}

			for _, env := range serverEnvelopes {
				data, err := s.Marshal(env)
				require.NoError(t, err)

				var result proto.FromServer
				require.NoError(t, s.Unmarshal(data, &result))
				require.Equal(t, *env, result)
			}
		})
	}
}

func TestBinarySerializerRejectsUnknownTypes(t *testing.T) {
	s := NewBinarySerializer()

	_, err := s.Marshal(struct{ A int }{A: 1})
	require.Error(t, err)

	err = s.Unmarshal([]byte{0, 0, 0, 0}, &struct{ A int }{})
	require.Error(t, err)
}

func TestBinarySerializerTruncatedData(t *testing.T) {
	s := NewBinarySerializer()

	data, err := s.Marshal(&proto.FromServer{
		RequestID: int32Ptr(9),
		Payload:   proto.NewChannelEventPayload("news", 1, []byte("payload")),
	})
	require.NoError(t, err)

	// every strict prefix must fail cleanly, never panic
	for i := 0; i < len(data); i++ {
		var result proto.FromServer
		require.Error(t, s.Unmarshal(data[:i], &result), "prefix length %d", i)
	}
}

func TestForName(t *testing.T) {
	for _, name := range []string{"json", "gob", "binary"} {
		s, err := ForName(name)
		require.NoError(t, err)
		require.NotNil(t, s)
	}

	_, err := ForName("protobuf")
	require.Error(t, err)
}
