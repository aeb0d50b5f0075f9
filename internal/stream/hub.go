// Package stream pushes game snapshots to websocket subscribers.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"tycoon/internal/game"
)

const (
	EventSnapshot = "snapshot"
	EventTick     = "tick"
	EventAction   = "action"
)

// Event is one frame on the wire. Frames queued together are joined with '\n'.
type Event struct {
	Type      string             `json:"type"`
	GameID    string             `json:"game_id"`
	Dashboard game.DashboardView `json:"dashboard"`
	Report    *game.TickReport   `json:"report,omitempty"`
	Action    game.ActionKind    `json:"action,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub fans one game's events out to its subscribers.
type Hub struct {
	gameID     string
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	log        *slog.Logger
}

func NewHub(gameID string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		gameID:     gameID,
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		log:        logger.With("game_id", gameID),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.log.Debug("stream hub stopped")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("stream client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.Debug("stream client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues ev for every subscriber. A full queue drops the event.
func (h *Hub) Publish(ev Event) {
	ev.GameID = h.gameID
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode stream event", "err", err)
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.done:
	default:
		h.log.Warn("stream backlog full, event dropped", "type", ev.Type)
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve upgrades the request and subscribes it. initial is sent before any
// broadcast so a new subscriber always starts from a full snapshot.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, initial Event) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	client := newClient(h, conn)

	initial.GameID = h.gameID
	if payload, err := json.Marshal(initial); err == nil {
		client.send <- payload
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	case <-r.Context().Done():
		conn.Close()
		return nil
	}
	go client.writePump()
	go client.readPump()
	return nil
}

// DecodeFrame splits a websocket text frame into its events.
func DecodeFrame(frame []byte) ([]Event, error) {
	var out []Event
	for _, line := range bytes.Split(frame, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return out, err
		}
		out = append(out, ev)
	}
	return out, nil
}
