package hub

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test")
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	require.Eventually(t, h.IsRunning, time.Second, 5*time.Millisecond)
	t.Cleanup(cancel)
	return h, cancel
}

// attach registers a connection-less client so the fan-out can be observed.
func attach(h *Hub, buf int) *Client {
	c := &Client{hub: h, send: make(chan Message, buf)}
	h.register <- c
	return c
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	h, _ := startHub(t)
	a := attach(h, 4)
	b := attach(h, 4)
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.BroadcastJSON(map[string]string{"side": "LEFT"}))

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			assert.Equal(t, Event, msg.Kind)
			assert.JSONEq(t, `{"side":"LEFT"}`, string(msg.Data))
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	}
}

func TestHub_FrameMessage(t *testing.T) {
	h, _ := startHub(t)
	c := attach(h, 1)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.BroadcastBinary([]byte{0xff, 0xd8})

	select {
	case msg := <-c.send:
		assert.Equal(t, Frame, msg.Kind)
		assert.Equal(t, []byte{0xff, 0xd8}, msg.Data)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	h, _ := startHub(t)
	attach(h, 0) // unbuffered and never read: always too slow
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.BroadcastBinary([]byte("frame"))

	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_Unregister(t *testing.T) {
	h, _ := startHub(t)
	c := attach(h, 1)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.unregister <- c
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-c.send
	assert.False(t, ok, "send channel closed on unregister")
}

func TestHub_CancelDisconnectsClients(t *testing.T) {
	h, cancel := startHub(t)
	c := attach(h, 1)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case _, ok := <-c.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("client not closed on shutdown")
	}
	require.Eventually(t, func() bool { return !h.IsRunning() }, time.Second, 5*time.Millisecond)
	assert.Nil(t, NewClient(h, nil), "registration after shutdown is refused")
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	h := New("idle") // not running, queue fills up

	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			h.BroadcastBinary([]byte{byte(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked")
	}
	assert.Equal(t, uint64(300-256), h.Dropped())
}

func TestMessage_WebsocketType(t *testing.T) {
	assert.Equal(t, websocket.TextMessage, Message{Kind: Event}.wsType())
	assert.Equal(t, websocket.BinaryMessage, Message{Kind: Frame}.wsType())
	assert.Equal(t, "event", Event.String())
	assert.Equal(t, "frame", Frame.String())
}
