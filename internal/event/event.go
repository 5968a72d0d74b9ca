package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeUserRegistered Type = "user.registered"
	TypeUserCreated    Type = "user.created"
	TypeUserUpdated    Type = "user.updated"
	TypeUserDeleted    Type = "user.deleted"
)

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   UserPayload `json:"payload"`
	Timestamp string      `json:"timestamp"`
	ActorID   int64       `json:"actor_id,omitempty"` // Who triggered the event
}

// UserPayload carries the public fields of the affected account. It never
// includes the password hash.
type UserPayload struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}

func New(t Type, actorID int64, payload UserPayload) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ActorID:   actorID,
	}
}
