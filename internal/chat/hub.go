package chat

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// RosterSource supplies the user roster pushed to a channel when it opens.
type RosterSource interface {
	Roster(ctx context.Context) (any, error)
}

// Hub tracks the currently connected realtime channels and fans coalesced
// batches out to all of them. It is identity-agnostic: every channel gets
// every batch, clients filter by their own locally computed chat keys.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client
	roster     RosterSource
}

func NewHub(roster RosterSource) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		roster:     roster,
	}
}

// BroadcastBatch queues one serialized batch for delivery to every connected
// channel. It is the Sink the coalescer flushes into.
func (h *Hub) BroadcastBatch(batch []byte) {
	h.broadcast <- batch
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Printf("ws: %s connected (conn=%s, total=%d)", client.Nickname, client.ID, len(h.clients))

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Printf("ws: %s disconnected (conn=%s, total=%d)", client.Nickname, client.ID, len(h.clients))
			}

		case batch := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- batch:
				default:
					// Channel is wedged; drop it. The client recovers by
					// reconnecting and re-fetching history, not by
					// retransmission.
					close(client.Send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Bootstrap pushes the current user roster to a freshly opened channel as a
// single-event batch, so a new client can render the roster before any
// coalesced traffic arrives. Callers run it before registering the client;
// the roster query can take seconds and must not stall the fan-out loop.
func (h *Hub) Bootstrap(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload, err := h.roster.Roster(ctx)
	if err != nil {
		log.Printf("ws: roster bootstrap for %s failed: %v", client.Nickname, err)
		return
	}
	batch, err := json.Marshal(map[string]any{
		"events": []Event{{Event: EventUsersUpdate, Payload: payload}},
	})
	if err != nil {
		return
	}
	select {
	case client.Send <- batch:
	default:
	}
}
