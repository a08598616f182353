// Package fanout is the live update push channel (§4.8): a typed,
// best-effort broadcast hub generalized from the teacher's raw-frame
// websocket Hub (internal/services/websocket in the source repo) to
// carry structured JSON messages instead of raw frame bytes.
package fanout

import (
	"encoding/json"
	"sync"

	"webserver/internal/model"
)

// MessageType tags the payload carried by a Message.
type MessageType string

const (
	TypeInitialState     MessageType = "initial_state"
	TypeOccupancyUpdate  MessageType = "occupancy_update"
	TypeModeChanged      MessageType = "mode_changed"
	TypeZoneCreated      MessageType = "zone_created"
	TypeZoneUpdated      MessageType = "zone_updated"
	TypeZoneDeleted      MessageType = "zone_deleted"
	TypeParkingEvent     MessageType = "parking_event"
)

// Message is the envelope sent to every subscriber.
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// clientBuffer is how many pending messages a slow subscriber is
// allowed before new messages are dropped for it rather than blocking
// the publisher.
const clientBuffer = 32

// Client is a single subscriber's outbound message queue.
type Client struct {
	send    chan []byte
	dropped int
}

// Send returns the channel a connection handler should drain and write
// to the underlying websocket connection.
func (c *Client) Send() <-chan []byte { return c.send }

// Hub is the process-wide broadcast point. Producers (the occupancy
// tracker, event logger, detector selector, zone handlers) publish
// through it; they never block on a slow reader.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]bool)}
}

// Register adds a new subscriber and returns its Client handle.
func (h *Hub) Register() *Client {
	c := &Client{send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	return c
}

// Unregister removes a subscriber and closes its channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Publish marshals msg once and fans it out to every registered
// client. A client whose buffer is full has the message dropped for it
// rather than stalling every other subscriber.
func (h *Hub) Publish(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			c.dropped++
		}
	}
}

// ClientCount reports the current subscriber count.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishEvent implements events.Publisher.
func (h *Hub) PublishEvent(e model.ParkingEvent) {
	h.Publish(Message{Type: TypeParkingEvent, Payload: e})
}

// PublishOccupancy broadcasts a single zone's updated occupancy entry.
func (h *Hub) PublishOccupancy(entry model.OccupancyEntry) {
	h.Publish(Message{Type: TypeOccupancyUpdate, Payload: entry})
}

// PublishModeChanged implements the detector selector's mode-change
// callback signature.
func (h *Hub) PublishModeChanged(mode model.Mode) {
	h.Publish(Message{Type: TypeModeChanged, Payload: map[string]model.Mode{"mode": mode}})
}

// PublishZoneCreated, PublishZoneUpdated, PublishZoneDeleted broadcast
// zone store mutations to subscribers keeping a live zone list.
func (h *Hub) PublishZoneCreated(z model.Zone) { h.Publish(Message{Type: TypeZoneCreated, Payload: z}) }
func (h *Hub) PublishZoneUpdated(z model.Zone) { h.Publish(Message{Type: TypeZoneUpdated, Payload: z}) }
func (h *Hub) PublishZoneDeleted(zoneID string) {
	h.Publish(Message{Type: TypeZoneDeleted, Payload: map[string]string{"zone_id": zoneID}})
}
