package websocket

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/saransh1220/qrdrop/internal/modules/realtime/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Desktops reach the server by LAN address, origins are not checked
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	// Rooms joined. Owned by the hub goroutine.
	rooms map[string]struct{}
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:    uuid.NewString(),
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		rooms: make(map[string]struct{}),
	}
}

// ID returns the connection id
func (c *Client) ID() string {
	return c.id
}

func (c *Client) remoteAddr() string {
	if c.conn == nil {
		return "test"
	}
	return c.conn.RemoteAddr().String()
}

// inbound is a client to server frame
type inbound struct {
	Kind domain.EventKind `json:"event"`
	Data json.RawMessage  `json:"data"`
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stop:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WebSocket Client] read error: %v", err)
			}
			return
		}
		c.handleInbound(message)
	}
}

func (c *Client) handleInbound(message []byte) {
	var frame inbound
	if err := json.Unmarshal(message, &frame); err != nil {
		log.Printf("[WebSocket Client] ignoring malformed frame from %s", c.id)
		return
	}

	var room string
	if err := json.Unmarshal(frame.Data, &room); err != nil || room == "" {
		log.Printf("[WebSocket Client] ignoring %s without session id from %s", frame.Kind, c.id)
		return
	}

	switch frame.Kind {
	case domain.EventJoinSession:
		err := c.hub.Subscribe(c.id, room)
		if errors.Is(err, domain.ErrRoomRejected) {
			c.reply(domain.Event{Kind: domain.EventSessionNotFound, Data: room})
			return
		}
		if err != nil {
			log.Printf("[WebSocket Client] join %s failed: %v", room, err)
		}
	case domain.EventLeaveSession:
		if err := c.hub.Unsubscribe(c.id, room); err != nil {
			log.Printf("[WebSocket Client] leave %s failed: %v", room, err)
		}
	default:
		log.Printf("[WebSocket Client] ignoring unknown event %q from %s", frame.Kind, c.id)
	}
}

// reply queues an event for this client only
func (c *Client) reply(event domain.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	c.hub.sendToClient(c, payload)
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades the request and registers the new client with the hub.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WebSocket] upgrade failed: %v", err)
		return
	}

	client := newClient(hub, conn)
	select {
	case hub.register <- client:
	case <-hub.stop:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
