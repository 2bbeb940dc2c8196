// Package ws delivers queue and appointment change notifications to
// connected clients over WebSockets. Clients join a room per doctor and
// date and receive every event broadcast to that room. Delivery is
// best-effort: there is no backlog and no replay, a disconnected client
// re-fetches state when it reconnects.
package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types pushed to room members.
const (
	EventQueueStatusUpdated = "queue_status_updated"
	EventAppointmentUpdated = "appointment_updated"
)

// Client actions accepted from the socket.
const (
	ActionJoinDoctorQueue  = "join_doctor_queue"
	ActionLeaveDoctorQueue = "leave_doctor_queue"
)

// RoomKey builds the room identifier for a doctor's queue on a given date.
func RoomKey(doctorID uuid.UUID, date string) string {
	return "doctor:" + doctorID.String() + ":" + date
}

// Event represents a real-time notification sent to WebSocket clients.
type Event struct {
	Type      string          `json:"type"`
	DoctorID  string          `json:"doctor_id"`
	Date      string          `json:"date"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ClientMessage represents an inbound message from a WebSocket client.
type ClientMessage struct {
	Action   string `json:"action"`
	DoctorID string `json:"doctor_id"`
	Date     string `json:"date"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a single WebSocket connection.
type Client struct {
	ID    string
	Rooms []string
	Send  chan []byte
	hub   *Hub
	conn  Conn
}

// Hub is the central connection manager that tracks clients and their room
// memberships. All operations are thread-safe via sync.RWMutex.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{} // room -> set of clients
	all   map[*Client]struct{}            // all connected clients
}

// NewHub creates a new Hub ready to manage WebSocket clients.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		all:   make(map[*Client]struct{}),
	}
}

// Register adds a client to the hub and joins it to its initial rooms.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}

	for _, room := range client.Rooms {
		if h.rooms[room] == nil {
			h.rooms[room] = make(map[*Client]struct{})
		}
		h.rooms[room][client] = struct{}{}
	}
}

// Unregister removes a client from the hub, all room memberships, and
// closes the client's Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}

	for _, room := range client.Rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}

	delete(h.all, client)
	close(client.Send)
}

// Join adds an already-registered client to a room.
func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][client] = struct{}{}

	for _, r := range client.Rooms {
		if r == room {
			return
		}
	}
	client.Rooms = append(client.Rooms, room)
}

// Leave removes an already-registered client from a room.
func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}

	remaining := make([]string, 0, len(client.Rooms))
	for _, r := range client.Rooms {
		if r != room {
			remaining = append(remaining, r)
		}
	}
	client.Rooms = remaining
}

// ProcessMessage handles an inbound ClientMessage, dispatching to Join or
// Leave as appropriate. Messages with an unparseable doctor id are ignored.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	doctorID, err := uuid.Parse(msg.DoctorID)
	if err != nil || msg.Date == "" {
		return
	}
	room := RoomKey(doctorID, msg.Date)

	switch msg.Action {
	case ActionJoinDoctorQueue:
		h.Join(client, room)
	case ActionLeaveDoctorQueue:
		h.Leave(client, room)
	}
}

// Broadcast sends an event to all clients in the given room.
func (h *Hub) Broadcast(room string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: failed to marshal event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.rooms[room]
	if !ok {
		return
	}

	for client := range members {
		select {
		case client.Send <- data:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

// publish marshals the payload and broadcasts an event of the given type to
// the doctor's room for that date. Failures are logged and dropped: the
// write to the store has already happened and clients re-fetch on reconnect.
func (h *Hub) publish(eventType string, doctorID uuid.UUID, date string, payload interface{}) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			log.Printf("ws: failed to marshal payload: %v", err)
			return
		}
		data = b
	}

	h.Broadcast(RoomKey(doctorID, date), Event{
		Type:      eventType,
		DoctorID:  doctorID.String(),
		Date:      date,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

// QueueStatusUpdated notifies a doctor's room that the queue session or
// ordering changed.
func (h *Hub) QueueStatusUpdated(doctorID uuid.UUID, date string, payload interface{}) {
	h.publish(EventQueueStatusUpdated, doctorID, date, payload)
}

// AppointmentUpdated notifies a doctor's room that an appointment changed.
func (h *Hub) AppointmentUpdated(doctorID uuid.UUID, date string, payload interface{}) {
	h.publish(EventAppointmentUpdated, doctorID, date, payload)
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// RoomCount returns the number of clients in a specific room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
