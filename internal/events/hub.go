package events

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/leePettigrew/it-triage-demo/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The CRUD boundary handles origin policy; the hub accepts any upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans ticket events out to connected websocket listeners. Emission is
// fire-and-forget: slow or dead listeners are dropped, nothing is retried,
// and a publish failure never propagates to the routing pipeline.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		logger:     logger,
	}
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.logger.Info("Event hub stopped.")
			return
		case c := <-h.register:
			h.clients[c] = true
			h.logger.Info("Event listener connected", zap.Int("listeners", len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Info("Event listener disconnected", zap.Int("listeners", len(h.clients)))
			}
		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Listener is not keeping up; drop it.
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// PublishTicketRouted emits a ticket_routed event for the given ticket.
// Best-effort: if the hub's buffer is full the event is dropped with a log
// line, never an error.
func (h *Hub) PublishTicketRouted(ticket *models.Ticket) {
	event := NewTicketRoutedEvent(ticket)
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal ticket event", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("Event buffer full, dropping ticket event", zap.Int64("ticket_id", ticket.ID))
	}
}

// ServeWS upgrades an HTTP request to a websocket listener registered with
// the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, 16)}
	h.register <- c

	go c.writePump()
	go c.readPump()
}
