package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"titledesk/internal/domain/models"
	"titledesk/internal/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Message is the frame pushed to subscribers after a form save.
type Message struct {
	Type     string                   `json:"type"`
	TicketID int64                    `json:"ticketId"`
	Result   models.CalculationResult `json:"result"`
}

// Subscription receives encoded messages for one ticket. C is closed when
// the subscription is cancelled or dropped for falling behind.
type Subscription struct {
	TicketID int64
	C        <-chan []byte

	send chan []byte
	once sync.Once
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.send) })
}

// Hub fans calculation results out to websocket clients per ticket.
type Hub struct {
	mu         sync.RWMutex
	subs       map[int64]map[*Subscription]struct{}
	bufferSize int
	upgrader   websocket.Upgrader
}

// NewHub builds a hub. An empty allowedOrigins list accepts any origin.
func NewHub(allowedOrigins []string, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 8
	}
	allowed := map[string]bool{}
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Hub{
		subs:       map[int64]map[*Subscription]struct{}{},
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// Subscribe registers a buffered subscription for ticketID.
func (h *Hub) Subscribe(ticketID int64) *Subscription {
	send := make(chan []byte, h.bufferSize)
	sub := &Subscription{TicketID: ticketID, C: send, send: send}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[ticketID] == nil {
		h.subs[ticketID] = map[*Subscription]struct{}{}
	}
	h.subs[ticketID][sub] = struct{}{}
	return sub
}

// Unsubscribe removes sub and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sub)
}

func (h *Hub) remove(sub *Subscription) {
	if set, ok := h.subs[sub.TicketID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.TicketID)
		}
	}
	sub.close()
}

// Subscribers returns the number of live subscriptions for ticketID.
func (h *Hub) Subscribers(ticketID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[ticketID])
}

// Publish never blocks: subscribers whose buffer is full are dropped.
func (h *Hub) Publish(ticketID int64, result models.CalculationResult) {
	payload, err := json.Marshal(Message{Type: "tax_result", TicketID: ticketID, Result: result})
	if err != nil {
		utils.LogEvent("", "notify", "publish", "encode failed", zap.Int64("ticket_id", ticketID), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[ticketID] {
		select {
		case sub.send <- payload:
		default:
			utils.LogEvent("", "notify", "publish", "dropping slow subscriber", zap.Int64("ticket_id", ticketID))
			h.remove(sub)
		}
	}
}

// Serve upgrades the request and streams results for ticketID until the
// client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, ticketID int64) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	sub := h.Subscribe(ticketID)

	go h.writePump(conn, sub)
	h.readPump(conn, sub)
	return nil
}

// readPump only watches for close and pong frames.
func (h *Hub) readPump(conn *websocket.Conn, sub *Subscription) {
	defer h.Unsubscribe(sub)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, sub *Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
