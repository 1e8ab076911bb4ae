package sse

import (
	"encoding/json"
	"sync"

	"github.com/dimitrije/sitecms/internal/models"
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type CollectionUpdatedEvent struct {
	Kind      models.Kind `json:"kind"`
	Version   string      `json:"version"`
	UpdatedBy string      `json:"updated_by"`
}

// Client is one open event stream. A client with no kinds receives updates
// for every collection.
type Client struct {
	ID    string
	Login string
	Kinds map[models.Kind]bool
	Send  chan []byte
}

func (c *Client) wants(kind models.Kind) bool {
	return len(c.Kinds) == 0 || c.Kinds[kind]
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *KindMessage
	mu         sync.RWMutex
}

type KindMessage struct {
	Kind  models.Kind
	Event Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *KindMessage, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if client.Kinds == nil {
				client.Kinds = make(map[models.Kind]bool)
			}
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Event)
			for _, client := range h.clients {
				if !client.wants(msg.Kind) {
					continue
				}
				select {
				case client.Send <- data:
				default:
					// slow client, drop
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) Subscribe(clientID string, kind models.Kind) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		client.Kinds[kind] = true
	}
}

func (h *Hub) Unsubscribe(clientID string, kind models.Kind) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		delete(client.Kinds, kind)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) BroadcastCollectionUpdate(kind models.Kind, version, updatedBy string) {
	h.broadcast <- &KindMessage{
		Kind: kind,
		Event: Event{
			Type: "collection_updated",
			Data: CollectionUpdatedEvent{
				Kind:      kind,
				Version:   version,
				UpdatedBy: updatedBy,
			},
		},
	}
}
