package speech

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtocolEncoding(t *testing.T) {
	payload := []byte("test payload data")
	original := CreateFullClientRequest(payload, GzipCompression)

	encoded, err := EncodeMessage(original)
	require.NoError(t, err)

	decoded, err := DecodeMessage(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, FullClientRequest, decoded.Header.MessageType)
	assert.Equal(t, JSONSerialization, decoded.Header.SerializationMethod)
	assert.Equal(t, GzipCompression, decoded.Header.CompressionMethod)
	assert.Equal(t, payload, decoded.Payload)
	assert.False(t, decoded.IsLastPacket())
}

func TestAudioOnlyRequestSequence(t *testing.T) {
	mid := CreateAudioOnlyRequest([]byte{1, 2}, 3, false, NoCompression)
	assert.Equal(t, PositiveSequenceNumber, mid.Header.MessageFlags)

	last := CreateAudioOnlyRequest([]byte{3}, 4, true, NoCompression)
	assert.Equal(t, NegativeSequenceNumber, last.Header.MessageFlags)
	assert.Equal(t, int32(-4), last.Sequence)

	encoded, err := EncodeMessage(last)
	require.NoError(t, err)
	decoded, err := DecodeMessage(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, int32(-4), decoded.Sequence)
	assert.True(t, decoded.IsLastPacket())
	assert.Equal(t, []byte{3}, decoded.Payload)
}

func TestErrorMessageCarriesCode(t *testing.T) {
	msg := &Message{
		Header:      NewHeader(ErrorMessage, NoSequenceNumber, JSONSerialization, NoCompression),
		ErrorCode:   45000001,
		PayloadSize: 3,
		Payload:     []byte("bad"),
	}
	encoded, err := EncodeMessage(msg)
	require.NoError(t, err)

	decoded, err := DecodeMessage(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.True(t, decoded.IsErrorMessage())
	assert.Equal(t, uint32(45000001), decoded.ErrorCode)
	assert.Equal(t, []byte("bad"), decoded.Payload)
}

func TestDecodeRejectsBadFrames(t *testing.T) {
	_, err := DecodeMessage(bytes.NewReader([]byte{0x11}))
	require.Error(t, err)

	_, err = DecodeMessage(bytes.NewReader([]byte{0x21, 0x90, 0x11, 0x00, 0, 0, 0, 0}))
	require.Error(t, err, "protocol version 2")

	// declares 10 payload bytes, carries 2
	_, err = DecodeMessage(bytes.NewReader([]byte{0x11, 0x90, 0x10, 0x00, 0, 0, 0, 10, 1, 2}))
	require.Error(t, err)
}

func TestEncodeRejectsSizeMismatch(t *testing.T) {
	_, err := EncodeMessage(&Message{Header: NewHeader(AudioOnlyRequest, NoSequenceNumber, NoSerialization, NoCompression), PayloadSize: 5})
	require.Error(t, err)
}

func TestCompressionRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("compress me please "), 20)

	compressed, err := CompressPayload(data, GzipCompression)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(data))

	out, err := DecompressPayload(compressed, GzipCompression)
	require.NoError(t, err)
	assert.Equal(t, data, out)

	_, err = CompressPayload(data, CompressionMethod(0b1111))
	require.Error(t, err)
}
