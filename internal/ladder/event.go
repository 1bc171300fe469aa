package ladder

import (
	"time"

	"github.com/google/uuid"
)

// Event owns one ladder. Every ladder operation is keyed by an event ID.
type Event struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
