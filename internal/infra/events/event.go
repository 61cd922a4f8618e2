package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is a change to one world, published after it commits.
type Event interface {
	EventID() uuid.UUID
	// EventType is one of the Type* constants.
	EventType() string
	OccurredAt() time.Time
	WorldID() uuid.UUID
	// ActorID is the user whose request caused the event.
	ActorID() string
}

// Envelope carries the fields every board event shares.
type Envelope struct {
	ID    uuid.UUID `json:"id"`
	Type  string    `json:"type"`
	At    time.Time `json:"at"`
	World uuid.UUID `json:"world_id"`
	Actor string    `json:"actor_id"`
}

func newEnvelope(eventType string, worldID uuid.UUID, actorID string) Envelope {
	return Envelope{
		ID:    uuid.New(),
		Type:  eventType,
		At:    time.Now().UTC(),
		World: worldID,
		Actor: actorID,
	}
}

func (e Envelope) EventID() uuid.UUID    { return e.ID }
func (e Envelope) EventType() string     { return e.Type }
func (e Envelope) OccurredAt() time.Time { return e.At }
func (e Envelope) WorldID() uuid.UUID    { return e.World }
func (e Envelope) ActorID() string       { return e.Actor }
