package hub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscriber(t *testing.T) {
	h := NewHub()

	sub, backlog, err := h.Subscribe("42")
	require.NoError(t, err)
	defer sub.Close()
	require.Empty(t, backlog)

	h.Publish("42", Change{Kind: "sent", InvoiceNumber: "INV-1", UnreadCount: 1})

	change := <-sub.Events()
	require.Equal(t, "sent", change.Kind)
	require.Equal(t, "INV-1", change.InvoiceNumber)
}

func TestStreamsAreScopedPerUser(t *testing.T) {
	h := NewHub()

	a, _, err := h.Subscribe("1")
	require.NoError(t, err)
	defer a.Close()
	b, _, err := h.Subscribe("2")
	require.NoError(t, err)
	defer b.Close()

	h.Publish("1", Change{Kind: "paid"})

	require.Equal(t, "paid", (<-a.Events()).Kind)
	select {
	case change := <-b.Events():
		t.Fatalf("unexpected delivery to other user: %+v", change)
	default:
	}
}

func TestBacklogReplaysAfterReconnect(t *testing.T) {
	h := NewHub()

	first, _, err := h.Subscribe("7")
	require.NoError(t, err)

	h.Publish("7", Change{Kind: "created"})
	h.Publish("7", Change{Kind: "sent"})
	first.Close()

	// Changes published while away come back as the replay buffer.
	second, backlog, err := h.Subscribe("7")
	require.NoError(t, err)
	defer second.Close()
	require.Len(t, backlog, 2)
	require.Equal(t, "created", backlog[0].Kind)
	require.Equal(t, "sent", backlog[1].Kind)
}

func TestSlowSubscriberIsSkipped(t *testing.T) {
	h := NewHub()
	h.subscriberBuffer = 1

	sub, _, err := h.Subscribe("9")
	require.NoError(t, err)
	defer sub.Close()

	// Nothing drains the channel, so the second publish must not block.
	h.Publish("9", Change{Kind: "created"})
	h.Publish("9", Change{Kind: "sent"})

	require.Equal(t, "created", (<-sub.Events()).Kind)
	select {
	case change := <-sub.Events():
		t.Fatalf("expected dropped change, got %+v", change)
	default:
	}
}

func TestSubscribeValidation(t *testing.T) {
	h := NewHub()

	_, _, err := h.Subscribe("   ")
	require.Error(t, err)

	// Publishing to a stream nobody ever opened is a no-op.
	h.Publish("", Change{Kind: "sent"})
	h.Publish("unseen", Change{Kind: "sent"})
}
