package gateway

import (
	"encoding/json"
	"testing"

	"github.com/dawei41468/CardGameApp/pkg/engine"
	"github.com/dawei41468/CardGameApp/pkg/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTrip(t *testing.T) {
	state := view.State{
		RoomCode:   "1234",
		PlayerName: "alice",
		RoomExists: true,
		Players:    []string{"alice", "bob"},
		Host:       "alice",
		IsHost:     true,
	}

	msg, err := NewMessage(MessageTypeState, state)
	require.NoError(t, err)

	b, err := SerializeMessage(msg)
	require.NoError(t, err)

	got, err := DeserializeMessage(b)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeState, got.Type)

	var gotState view.State
	require.NoError(t, json.Unmarshal(got.Payload, &gotState))
	assert.Equal(t, state, gotState)
}

func TestDeserializeMessageGarbage(t *testing.T) {
	_, err := DeserializeMessage([]byte("not a zstd frame"))
	assert.Error(t, err)
}

func TestErrorPayloadSeverity(t *testing.T) {
	notFound := &engine.NotFoundError{Code: "1234"}
	payload := errorPayloadFor(notFound)
	assert.Equal(t, SeverityCritical, payload.Severity)

	transient := &engine.StoreError{Op: "get room", Err: assert.AnError}
	payload = errorPayloadFor(transient)
	assert.Equal(t, SeverityTransient, payload.Severity)
}
