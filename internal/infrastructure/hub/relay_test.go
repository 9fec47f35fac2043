package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelay_ForwardOnlyReachesTarget(t *testing.T) {
	registry, router := newTestRouter(t)
	relay := NewRelay(router)

	target, targetSender := newTestConn("c1", "target")
	bystander, bystanderSender := newTestConn("c2", "bystander")
	require.NoError(t, registry.Register(target))
	require.NoError(t, registry.Register(bystander))

	// Both sit in the same room; the signal must still go point to point.
	_, _, err := registry.JoinRoom("c1", "room")
	require.NoError(t, err)
	_, _, err = registry.JoinRoom("c2", "room")
	require.NoError(t, err)

	relay.Forward("sender", "target", json.RawMessage(`{"sdp":"offer"}`))

	require.Len(t, targetSender.messages(), 1)
	assert.Empty(t, bystanderSender.messages())
}

func TestRelay_PayloadPassedThroughVerbatim(t *testing.T) {
	registry, router := newTestRouter(t)
	relay := NewRelay(router)

	target, targetSender := newTestConn("c1", "target")
	require.NoError(t, registry.Register(target))

	// Payload that is valid JSON but meaningless to the hub: it must arrive
	// byte for byte, stamped with the sender.
	payload := json.RawMessage(`{"candidate":{"foo":[1,2,3]},"custom":"x"}`)
	relay.Forward("sender", "target", payload)

	msgs := targetSender.messages()
	require.Len(t, msgs, 1)
	event, ok := msgs[0].(*SignalEvent)
	require.True(t, ok)
	assert.Equal(t, EventWebRTCSignal, event.Type)
	assert.JSONEq(t, string(payload), string(event.Signal))
	assert.EqualValues(t, "sender", event.FromUserID)
}

func TestRelay_OfflineTargetDropsSilently(t *testing.T) {
	registry, router := newTestRouter(t)
	relay := NewRelay(router)

	sender, senderSender := newTestConn("c1", "sender")
	require.NoError(t, registry.Register(sender))

	relay.Forward("sender", "offline", json.RawMessage(`{}`))

	// No error event, no echo back to the sender.
	assert.Empty(t, senderSender.messages())
}
