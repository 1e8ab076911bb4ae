package sse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dimitrije/sitecms/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(id string, kinds ...models.Kind) *Client {
	c := &Client{
		ID:    id,
		Login: "octocat",
		Kinds: make(map[models.Kind]bool),
		Send:  make(chan []byte, 256),
	}
	for _, k := range kinds {
		c.Kinds[k] = true
	}
	return c
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.broadcast)
}

func TestHub_RegisterClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newClient("client-1")
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_RegisterClient_NilKinds(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{ID: "client-1", Send: make(chan []byte, 1)}
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	// must not panic
	hub.Subscribe(client.ID, models.KindNews)

	hub.mu.RLock()
	assert.True(t, client.Kinds[models.KindNews])
	hub.mu.RUnlock()
}

func TestHub_UnregisterClient_ClosesSendChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newClient("client-1")
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	hub.Unregister(client)
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, 0, hub.ClientCount())
	_, ok := <-client.Send
	assert.False(t, ok)
}

func TestHub_UnregisterNonexistentClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	hub.Unregister(newClient("nonexistent"))
	time.Sleep(10 * time.Millisecond)
}

func TestHub_SubscribeAndUnsubscribe(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newClient("client-1")
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	hub.Subscribe(client.ID, models.KindEvents)
	hub.Subscribe(client.ID, models.KindNews)
	hub.Unsubscribe(client.ID, models.KindEvents)

	hub.mu.RLock()
	assert.False(t, client.Kinds[models.KindEvents])
	assert.True(t, client.Kinds[models.KindNews])
	hub.mu.RUnlock()

	// unknown clients are ignored
	hub.Subscribe("nonexistent", models.KindNews)
	hub.Unsubscribe("nonexistent", models.KindNews)
}

func TestHub_BroadcastCollectionUpdate(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := newClient("client-1", models.KindNews)
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastCollectionUpdate(models.KindNews, "abc123", "octocat")

	select {
	case msg := <-client.Send:
		var event struct {
			Type string                 `json:"type"`
			Data CollectionUpdatedEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(msg, &event))

		assert.Equal(t, "collection_updated", event.Type)
		assert.Equal(t, models.KindNews, event.Data.Kind)
		assert.Equal(t, "abc123", event.Data.Version)
		assert.Equal(t, "octocat", event.Data.UpdatedBy)

	case <-time.After(100 * time.Millisecond):
		t.Fatal("did not receive message")
	}
}

func TestHub_BroadcastCollectionUpdate_Routing(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	newsOnly := newClient("client-1", models.KindNews)
	everything := newClient("client-2")
	eventsOnly := newClient("client-3", models.KindEvents)

	hub.Register(newsOnly)
	hub.Register(everything)
	hub.Register(eventsOnly)
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastCollectionUpdate(models.KindNews, "v2", "octocat")

	receivedCount := 0
	for _, c := range []*Client{newsOnly, everything} {
		select {
		case <-c.Send:
			receivedCount++
		case <-time.After(50 * time.Millisecond):
		}
	}

	select {
	case <-eventsOnly.Send:
		t.Fatal("events subscriber should not receive news updates")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, 2, receivedCount)
}

func TestHub_BroadcastCollectionUpdate_FullBufferDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{
		ID:    "client-1",
		Kinds: map[models.Kind]bool{},
		Send:  make(chan []byte, 1),
	}
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	client.Send <- []byte("fill")

	hub.BroadcastCollectionUpdate(models.KindEvents, "v2", "octocat")
	time.Sleep(10 * time.Millisecond)

	<-client.Send

	select {
	case <-client.Send:
		t.Fatal("should not receive dropped message")
	case <-time.After(50 * time.Millisecond):
	}
}
