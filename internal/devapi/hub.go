/*
Package devapi is an in-memory stand-in for the upstream social API.

This file implements the chat side of the fixture: a single global room with
a broadcast hub, history replay for new connections, and the token-bearing
query parameter handshake the client performs. The hub mirrors the upstream
behavior closely enough that the client's dedup and state machine see
realistic traffic, including duplicate delivery when asked to misbehave.
*/
package devapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"yapnet/internal/pkg/logx"
)

const hubSendBuffer = 64

// wireMessage is the chat frame shape on the wire.
type wireMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	SenderID  string `json:"sender_id"`
	Username  string `json:"username"`
	Timestamp string `json:"timestamp"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

func wireFromRecord(rec chatRecord) wireMessage {
	return wireMessage{
		Type:      "message",
		Content:   rec.Content,
		SenderID:  rec.SenderID,
		Username:  rec.Username,
		Timestamp: rec.Timestamp.Format(wireTimestamp),
		ImageURL:  rec.ImageURL,
	}
}

// hubClient is one connected chat participant.
type hubClient struct {
	uid  string
	conn *websocket.Conn
	send chan wireMessage
}

// Hub is the single-room broadcast coordinator.
type Hub struct {
	store *Store

	mu      sync.Mutex
	clients map[*hubClient]struct{}

	// EchoDuplicates makes the hub deliver every broadcast twice. Only the
	// tests flip this; it exercises the client's dedup guard.
	EchoDuplicates bool

	logger zerolog.Logger
}

// NewHub constructs a Hub over the given store.
func NewHub(store *Store) *Hub {
	return &Hub{
		store:   store,
		clients: make(map[*hubClient]struct{}),
		logger:  logx.Logger().With().Str("component", "devapi.hub").Logger(),
	}
}

// broadcast queues msg for every connected client.
func (h *Hub) broadcast(msg wireMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		deliveries := 1
		if h.EchoDuplicates {
			deliveries = 2
		}
		for i := 0; i < deliveries; i++ {
			select {
			case c.send <- msg:
			default:
				h.logger.Warn().Str("uid", c.uid).Msg("Client send queue full, dropping message")
			}
		}
	}
}

func (h *Hub) add(c *hubClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ServeWS upgrades GET /chat?token=Bearer%20<token> connections and runs the
// client's pumps. The bearer token arrives as a query parameter because the
// browser WebSocket API has no header mechanism.
func (a *API) ServeWS(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	token := bearerToken(raw)
	if token == "" {
		token = raw
	}

	claims, err := verifyToken(a.secret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	a.store.mu.Lock()
	u := a.store.ensureUser(claims.UID, claims.Email)
	username := u.Username
	imageURL := u.ImageURL
	a.store.mu.Unlock()

	if username == "" {
		username = "Anonymous"
	}

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.hub.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &hubClient{
		uid:  claims.UID,
		conn: conn,
		send: make(chan wireMessage, hubSendBuffer),
	}
	a.hub.add(client)

	// History replay: recent messages as ordinary frames, oldest first.
	for _, rec := range a.store.recentChat() {
		select {
		case client.send <- wireFromRecord(rec):
		default:
		}
	}

	go a.hub.writePump(client)
	go a.hub.readPump(client, username, imageURL)
}

// readPump consumes inbound frames until the connection drops.
func (h *Hub) readPump(c *hubClient, username, imageURL string) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Type != "message" || frame.Content == "" {
			continue
		}

		rec := h.store.appendChat(c.uid, username, frame.Content, imageURL)
		h.broadcast(wireFromRecord(rec))
	}
}

// writePump drains the client's send queue onto the socket.
func (h *Hub) writePump(c *hubClient) {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.conn.Close()
			return
		}
	}

	// Queue closed by remove: say goodbye properly.
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}
