package frame

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCall(t *testing.T) {
	text := `[2,"abc123","BootNotification",{"chargePointVendor":"Vendor","chargePointModel":"Model"}]`
	f, err := Decode([]byte(text), 0)
	require.NoError(t, err)
	assert.Equal(t, TypeCall, f.Type)
	assert.Equal(t, "abc123", f.UniqueId)
	assert.Equal(t, "BootNotification", f.Action)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(f.Payload, &payload))
	assert.Equal(t, "Vendor", payload["chargePointVendor"])
}

func TestDecodeCallResult(t *testing.T) {
	text := `[3,"abc123",{"status":"Accepted","interval":300}]`
	f, err := Decode([]byte(text), 0)
	require.NoError(t, err)
	assert.Equal(t, TypeCallResult, f.Type)
	assert.Equal(t, "abc123", f.UniqueId)
}

func TestDecodeCallError(t *testing.T) {
	text := `[4,"abc123","NotImplemented","Action not supported",{}]`
	f, err := Decode([]byte(text), 0)
	require.NoError(t, err)
	assert.Equal(t, TypeCallError, f.Type)
	assert.Equal(t, "NotImplemented", f.ErrorCode)
	assert.Equal(t, "Action not supported", f.ErrorDescription)
}

func TestRoundtripCall(t *testing.T) {
	original := NewCall("id1", "Heartbeat", json.RawMessage(`{}`))
	data, err := original.Encode()
	require.NoError(t, err)
	parsed, err := Decode(data, 0)
	require.NoError(t, err)
	assert.Equal(t, TypeCall, parsed.Type)
	assert.Equal(t, "id1", parsed.UniqueId)
	assert.Equal(t, "Heartbeat", parsed.Action)
}

func TestRoundtripCallResult(t *testing.T) {
	original := NewCallResult("id2", json.RawMessage(`{"currentTime":"2024-01-01T00:00:00Z"}`))
	data, err := original.Encode()
	require.NoError(t, err)
	parsed, err := Decode(data, 0)
	require.NoError(t, err)
	assert.Equal(t, TypeCallResult, parsed.Type)
	assert.Equal(t, "id2", parsed.UniqueId)
}

func TestRoundtripCallError(t *testing.T) {
	original := NewCallError("id3", "GenericError", "Something went wrong", nil)
	data, err := original.Encode()
	require.NoError(t, err)
	parsed, err := Decode(data, 0)
	require.NoError(t, err)
	assert.Equal(t, TypeCallError, parsed.Type)
	assert.Equal(t, "id3", parsed.UniqueId)
}

func TestDecodeUnknownFieldsAreTolerated(t *testing.T) {
	text := `[2,"id4","Heartbeat",{"unexpectedField":"value","another":42}]`
	f, err := Decode([]byte(text), 0)
	require.NoError(t, err)
	assert.Equal(t, "Heartbeat", f.Action)
}

func TestDecodeMalformedFrames(t *testing.T) {
	cases := []string{
		`not json at all`,
		`[]`,
		`["not-a-number","id","Action",{}]`,
		`[2,"id"]`,
		`[9,"id","Action",{}]`,
		`[3,"id"]`,
		`[4,"id","Code"]`,
	}
	for _, text := range cases {
		_, err := Decode([]byte(text), 0)
		assert.Error(t, err, "expected decode error for %q", text)
		assert.ErrorIs(t, err, ErrDecode)
	}
}

func TestDecodeRejectsOversizedFrame(t *testing.T) {
	huge := make([]byte, 128)
	for i := range huge {
		huge[i] = 'x'
	}
	_, err := Decode(huge, 64)
	assert.ErrorIs(t, err, ErrDecode)
}
