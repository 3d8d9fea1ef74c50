package proto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageConversionsRoundTrip(t *testing.T) {
	auth := Auth{UserID: 42, AccessToken: "token"}
	p := auth.ToPayload()
	require.Equal(t, PTAuth, p.Type)
	require.Equal(t, int32(42), p.UserID)
	require.Equal(t, "token", p.AccessToken)

	resp, ok := auth.ResponseFromPayload(NewAuthResponsePayload(true))
	require.True(t, ok)
	require.True(t, resp.CredentialsValid)

	pong, ok := Ping{}.ResponseFromPayload(NewPongPayload())
	require.True(t, ok)
	require.Equal(t, Pong{}, pong)

	echo, ok := Echo{}.ResponseFromPayload(NewEchoResponsePayload([]byte("data")))
	require.True(t, ok)
	require.Equal(t, []byte("data"), echo.Data)

	event, ok := Watch{Channel: "news"}.EventFromPayload(NewChannelEventPayload("news", 3, []byte("x")))
	require.True(t, ok)
	require.Equal(t, ChannelEvent{Channel: "news", Seq: 3, Data: []byte("x")}, event)

	publish := Publish{Channel: "news", Data: []byte("x")}.ToPayload()
	require.Equal(t, PTPublish, publish.Type)
}

func TestConversionsRejectWrongShapes(t *testing.T) {
	_, ok := Auth{}.ResponseFromPayload(NewPongPayload())
	assert.False(t, ok)

	_, ok = Auth{}.ResponseFromPayload(nil)
	assert.False(t, ok)

	_, ok = Ping{}.ResponseFromPayload(NewAuthResponsePayload(true))
	assert.False(t, ok)

	_, ok = Watch{}.EventFromPayload(NewPingPayload())
	assert.False(t, ok)
}

func TestPayloadTypeJSON(t *testing.T) {
	for _, pt := range []PayloadType{
		PTError, PTAuth, PTAuthResponse, PTPing, PTPong,
		PTEcho, PTEchoResponse, PTWatch, PTChannelEvent, PTPublish,
	} {
		data, err := json.Marshal(pt)
		require.NoError(t, err)

		var decoded PayloadType
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Equal(t, pt, decoded)
	}

	var decoded PayloadType
	require.Error(t, json.Unmarshal([]byte(`"bogus"`), &decoded))

	require.Equal(t, "unknown", PTUnknown.String())
}
