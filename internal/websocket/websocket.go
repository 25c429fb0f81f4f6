package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/selfire1/gridtip-sub000/internal/logger"
	"github.com/selfire1/gridtip-sub000/internal/models"
	"github.com/selfire1/gridtip-sub000/internal/services"
)

// Message types pushed to clients
const (
	TypeTippingStatus      = "tipping_status"
	TypeLeaderboardUpdated = "leaderboard_updated"
)

// AllGroups addresses a broadcast to every connected client
const AllGroups = 0

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// StatusProvider reports the tipping window of a group
type StatusProvider interface {
	TippingStatus(ctx context.Context, groupID int) (*services.TippingStatus, error)
}

// groupMessage is a message addressed to one group or to AllGroups
type groupMessage struct {
	groupID int
	msg     models.WSMessage
}

// Hub maintains the set of active clients and broadcasts messages to the clients of a group
type Hub struct {
	log        logger.Logger
	clients    map[*Client]bool
	broadcast  chan groupMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	status     StatusProvider
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	groupID int
	send    chan models.WSMessage
}

var _ services.Broadcaster = (*Hub)(nil)

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, status StatusProvider) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan groupMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		status:     status,
	}
}

// Start begins the hub's main loop in a goroutine
func (h *Hub) Start() {
	go h.run()
}

// run handles client registration/unregistration and message broadcasting
func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("Client connected", "group_id", client.groupID, "total_clients", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("Client disconnected", "group_id", client.groupID, "total_clients", total)

		case gm := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				if gm.groupID != AllGroups && client.groupID != gm.groupID {
					continue
				}
				select {
				case client.send <- gm.msg:
				default:
					// Client's send channel is full, unregister
					go func(c *Client) {
						h.unregister <- c
					}(client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// BroadcastMessage sends a message to the clients of a group, or to everyone with AllGroups
func (h *Hub) BroadcastMessage(groupID int, msgType string, payload interface{}) {
	h.broadcast <- groupMessage{
		groupID: groupID,
		msg:     models.WSMessage{Type: msgType, Payload: payload},
	}
}

// BroadcastLeaderboard implements services.Broadcaster
func (h *Hub) BroadcastLeaderboard(groupID int, board *services.Leaderboard) {
	h.BroadcastMessage(groupID, TypeLeaderboardUpdated, board)
}

// statusMessage builds the tipping_status message of a group
func (h *Hub) statusMessage(ctx context.Context, groupID int) (models.WSMessage, bool) {
	if h.status == nil {
		return models.WSMessage{}, false
	}
	status, err := h.status.TippingStatus(ctx, groupID)
	if err != nil {
		h.log.Warn("Failed to load tipping status", "group_id", groupID, "error", err)
		return models.WSMessage{}, false
	}
	return models.WSMessage{Type: TypeTippingStatus, Payload: status}, true
}

// subscribedGroups returns every group with at least one connected client
func (h *Hub) subscribedGroups() []int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	seen := make(map[int]bool)
	var groups []int
	for client := range h.clients {
		if !seen[client.groupID] {
			seen[client.groupID] = true
			groups = append(groups, client.groupID)
		}
	}
	return groups
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		var msg models.WSMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.hub.log.Debug("Received message", "type", msg.Type)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			msgBytes, _ := json.Marshal(message)
			w.Write(msgBytes)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades the request and subscribes the client to a group
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request, groupID int) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		groupID: groupID,
		send:    make(chan models.WSMessage, 256),
	}

	// Queue the current tipping window before the client can receive broadcasts
	if msg, ok := h.statusMessage(r.Context(), groupID); ok {
		client.send <- msg
	}
	h.register <- client

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}

// StartStatusTicker pushes tipping_status to every subscribed group on each tick until ctx is done
func (h *Hub) StartStatusTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info("Tipping status ticker stopped")
			return
		case <-ticker.C:
			h.pushStatus(ctx)
		}
	}
}

// pushStatus broadcasts the current tipping window of each subscribed group
func (h *Hub) pushStatus(ctx context.Context) {
	for _, groupID := range h.subscribedGroups() {
		msg, ok := h.statusMessage(ctx, groupID)
		if !ok {
			continue
		}
		h.BroadcastMessage(groupID, msg.Type, msg.Payload)
	}
}
