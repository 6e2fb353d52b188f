package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/saransh1220/qrdrop/internal/modules/realtime/domain"
)

type subscription struct {
	clientID string
	room     string
	leave    bool
	result   chan error
}

type unicastMessage struct {
	client  *Client
	payload []byte
}

type roomQuery struct {
	room   string
	result chan int
}

type roomMessage struct {
	room    string
	kind    domain.EventKind
	payload []byte
}

// Hub maintains the set of active clients and the rooms they joined, and
// fans out published events to room members.
type Hub struct {
	// Registered clients by connection id.
	clients map[string]*Client

	// Room membership: room -> set of clients.
	rooms map[string]map[*Client]struct{}

	// Published messages.
	publish chan roomMessage

	// Room size queries.
	queries chan roomQuery

	// Messages for a single client.
	unicast chan unicastMessage

	// Join and leave requests.
	subscriptions chan subscription

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Optional check run before a client joins a room.
	allowJoin func(room string) bool

	// Channel to signal termination
	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Hub
type Option func(*Hub)

// WithJoinFilter rejects joins for rooms the filter returns false for
func WithJoinFilter(fn func(room string) bool) Option {
	return func(h *Hub) {
		h.allowJoin = fn
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		publish:       make(chan roomMessage),
		unicast:       make(chan unicastMessage),
		queries:       make(chan roomQuery),
		subscriptions: make(chan subscription),
		register:      make(chan *Client),
		unregister:    make(chan *Client),

		clients: make(map[string]*Client),
		rooms:   make(map[string]map[*Client]struct{}),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.id] = client
			connectedClients.Inc()
			log.Printf("[WebSocket Hub] Client registered: %v (Conn: %s)", client.remoteAddr(), client.id)
		case client := <-h.unregister:
			if _, ok := h.clients[client.id]; ok {
				h.drop(client)
				log.Printf("[WebSocket Hub] Client unregistered: %v (Conn: %s)", client.remoteAddr(), client.id)
			}
		case sub := <-h.subscriptions:
			sub.result <- h.applySubscription(sub)
		case msg := <-h.publish:
			members := h.rooms[msg.room]
			log.Printf("[WebSocket Hub] Publishing %s to %d clients in room %s", msg.kind, len(members), msg.room)
			for client := range members {
				select {
				case client.send <- msg.payload:
					deliveredEvents.WithLabelValues(string(msg.kind)).Inc()
				default:
					log.Printf("[WebSocket Hub] Dropping slow client %s", client.id)
					h.drop(client)
				}
			}
		case q := <-h.queries:
			q.result <- len(h.rooms[q.room])
		case msg := <-h.unicast:
			if _, ok := h.clients[msg.client.id]; !ok {
				continue
			}
			select {
			case msg.client.send <- msg.payload:
			default:
				h.drop(msg.client)
			}
		case <-h.stop:
			log.Println("[WebSocket Hub] Stopping hub")
			for _, client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

func (h *Hub) applySubscription(sub subscription) error {
	client, ok := h.clients[sub.clientID]
	if !ok {
		return fmt.Errorf("%s: %w", sub.clientID, domain.ErrUnknownConnection)
	}

	if sub.leave {
		if members, ok := h.rooms[sub.room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, sub.room)
			}
		}
		delete(client.rooms, sub.room)
		return nil
	}

	members, ok := h.rooms[sub.room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[sub.room] = members
	}
	members[client] = struct{}{}
	client.rooms[sub.room] = struct{}{}
	log.Printf("[WebSocket Hub] Client %s joined room %s", client.id, sub.room)
	return nil
}

// drop removes a client from every room and closes its send channel.
// Only called from Run.
func (h *Hub) drop(client *Client) {
	for room := range client.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	client.rooms = make(map[string]struct{})
	delete(h.clients, client.id)
	close(client.send)
	connectedClients.Dec()
}

// Subscribe adds the connection to a room. Membership is a set, joining twice is a no-op.
func (h *Hub) Subscribe(connID, room string) error {
	if h.allowJoin != nil && !h.allowJoin(room) {
		return fmt.Errorf("%s: %w", room, domain.ErrRoomRejected)
	}
	return h.sendSubscription(subscription{clientID: connID, room: room})
}

// Unsubscribe removes the connection from a room
func (h *Hub) Unsubscribe(connID, room string) error {
	return h.sendSubscription(subscription{clientID: connID, room: room, leave: true})
}

func (h *Hub) sendSubscription(sub subscription) error {
	sub.result = make(chan error, 1)
	select {
	case h.subscriptions <- sub:
	case <-h.stop:
		return domain.ErrHubStopped
	}
	select {
	case err := <-sub.result:
		return err
	case <-h.stop:
		return domain.ErrHubStopped
	}
}

// Publish encodes the event and hands it to the hub loop. It returns once the hub
// has taken the message, so two Publish calls from one goroutine are delivered in order.
func (h *Hub) Publish(room string, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Kind, err)
	}

	select {
	case h.publish <- roomMessage{room: room, kind: event.Kind, payload: payload}:
		publishedEvents.WithLabelValues(string(event.Kind)).Inc()
		return nil
	case <-h.stop:
		return domain.ErrHubStopped
	}
}

// Viewers returns the number of connections currently in room
func (h *Hub) Viewers(room string) int {
	q := roomQuery{room: room, result: make(chan int, 1)}
	select {
	case h.queries <- q:
	case <-h.stop:
		return 0
	}
	select {
	case n := <-q.result:
		return n
	case <-h.stop:
		return 0
	}
}

func (h *Hub) sendToClient(client *Client, payload []byte) {
	select {
	case h.unicast <- unicastMessage{client: client, payload: payload}:
	case <-h.stop:
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}

var _ domain.Broadcaster = (*Hub)(nil)
