// Package notify delivers post-settlement side effects: websocket broadcast,
// user notifications and email. Everything here is fire-and-forget; failures
// are logged and never roll back the financial transaction that triggered
// them.
package notify

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn   *websocket.Conn
	userID string
	topics map[string]bool
}

// Hub fans settlement events out to subscribed websocket clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]bool),
	}
}

type envelope struct {
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
}

// Broadcast sends payload to every client subscribed to topic. When userID is
// non-empty, delivery is filtered to that user's connections.
func (h *Hub) Broadcast(topic, userID string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := envelope{Topic: topic, Payload: payload}
	for c := range h.clients {
		if !c.topics[topic] {
			continue
		}
		if userID != "" && c.userID != userID {
			continue
		}
		if err := c.conn.WriteJSON(msg); err != nil {
			log.Warn().
				Str("component", "notify_hub").
				Str("topic", topic).
				Err(err).
				Msg("websocket write failed, dropping client")
			go h.drop(c)
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	_ = c.conn.Close()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handler upgrades the request to a websocket connection. The client picks
// its topics via the topics query parameter (comma-free, repeated values).
func (h *Hub) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			log.Warn().Str("component", "notify_hub").Err(err).Msg("websocket upgrade failed")
			return
		}

		topics := map[string]bool{}
		for _, t := range ctx.QueryArray("topic") {
			topics[t] = true
		}
		if len(topics) == 0 {
			topics["binary_orders"] = true
		}

		c := &client{
			conn:   conn,
			userID: ctx.Query("user_id"),
			topics: topics,
		}

		h.mu.Lock()
		h.clients[c] = true
		h.mu.Unlock()

		log.Info().
			Str("component", "notify_hub").
			Str("user_id", c.userID).
			Msg("websocket client connected")

		// Read loop keeps the connection alive and detects disconnects.
		go func() {
			defer h.drop(c)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
