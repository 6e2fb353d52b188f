package domain

import "errors"

// EventKind names a realtime event on the wire
type EventKind string

const (
	// Server to client
	EventFilesUploaded   EventKind = "files-uploaded"
	EventFileDeleted     EventKind = "file-deleted"
	EventSessionNotFound EventKind = "session-not-found"

	// Client to server
	EventJoinSession  EventKind = "join-session"
	EventLeaveSession EventKind = "leave-session"
)

// Event is a single realtime message. Data is encoded as JSON.
type Event struct {
	Kind EventKind `json:"event"`
	Data any       `json:"data"`
}

// Broadcaster is a publish/subscribe bus partitioned by room (session id).
// Delivery is best effort and at most once per connection; per-room order follows publish order.
type Broadcaster interface {
	Subscribe(connID, room string) error
	Publish(room string, event Event) error
}

var (
	ErrHubStopped        = errors.New("hub stopped")
	ErrUnknownConnection = errors.New("unknown connection")
	ErrRoomRejected      = errors.New("room rejected")
)
