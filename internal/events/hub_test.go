package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubSubscriptionFiltering(t *testing.T) {
	h := GetPoolEventHub()

	send := h.Register("client-a")
	defer h.Unregister("client-a")

	require.True(t, h.Subscribe("client-a", SubRoots))

	h.Broadcast(SubRoots, &RootUpdatedEvent{Root: "0xabc", LeafCount: 1})
	h.Broadcast(SubNullifiers, &NullifierSpentEvent{Nullifier: "0x01"})

	// only the subscribed type arrives
	msg := <-send
	m, ok := msg.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, SubRoots, m["type"])

	select {
	case unexpected := <-send:
		t.Fatalf("unexpected message: %v", unexpected)
	default:
	}
}

func TestHubUnsubscribe(t *testing.T) {
	h := GetPoolEventHub()

	send := h.Register("client-b")
	defer h.Unregister("client-b")

	require.True(t, h.Subscribe("client-b", SubCommitments))
	require.True(t, h.Unsubscribe("client-b", SubCommitments))

	h.Broadcast(SubCommitments, &CommitmentInsertedEvent{Commitment: "0x01"})

	select {
	case unexpected := <-send:
		t.Fatalf("unexpected message: %v", unexpected)
	default:
	}
}

func TestHubUnknownClient(t *testing.T) {
	h := GetPoolEventHub()

	assert.False(t, h.Subscribe("missing", SubRoots))
	assert.False(t, h.Unsubscribe("missing", SubRoots))
}
