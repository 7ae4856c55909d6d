package basicv1

import (
	"testing"
	"time"

	"github.com/soundphilosopher/basic-grpc-service/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestCodecRegistered(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	require.NotNil(t, codec)

	data, err := codec.Marshal(&BackgroundRequest{Processes: 7})
	require.NoError(t, err)
	assert.JSONEq(t, `{"processes":7}`, string(data))

	var req BackgroundRequest
	require.NoError(t, codec.Unmarshal(data, &req))
	assert.Equal(t, int32(7), req.Processes)
}

func TestCloudEventEnvelopeConversion(t *testing.T) {
	env := &types.Envelope{
		ID:          "abc",
		Source:      "basic.v1/Background",
		SpecVersion: "1.0",
		Type:        "t",
		Time:        time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Payload:     []byte{0x0a, 0x01, 0x02},
	}

	ce := NewCloudEvent(env)
	assert.Equal(t, env.Payload, ce.ProtoData)
	assert.Equal(t, env, ce.Envelope())

	assert.Nil(t, NewCloudEvent(nil))
	assert.Nil(t, (*CloudEvent)(nil).Envelope())
}
