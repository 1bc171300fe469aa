package ladder

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopPosition    = 1
	BottomPosition = 20
	Size           = BottomPosition - TopPosition + 1
)

// Slot is one ranked position on an event's ladder. Position 1 is the best rank.
type Slot struct {
	EventID             uuid.UUID  `db:"event_id" json:"event_id"`
	Position            int        `db:"position" json:"position"`
	OccupantID          *uuid.UUID `db:"occupant_id" json:"occupant_id"`
	ConsecutiveAbsences int        `db:"consecutive_absences" json:"consecutive_absences"`
	LastMatchAt         *time.Time `db:"last_match_at" json:"last_match_at"`
}

func (s *Slot) IsVacant() bool {
	return s.OccupantID == nil
}

func ValidPosition(position int) bool {
	return position >= TopPosition && position <= BottomPosition
}

// EmptyLadder returns the 20 vacant slots a new event starts with.
func EmptyLadder(eventID uuid.UUID) []Slot {
	slots := make([]Slot, 0, Size)
	for p := TopPosition; p <= BottomPosition; p++ {
		slots = append(slots, Slot{EventID: eventID, Position: p})
	}
	return slots
}

// PositionOf finds the slot a competitor currently sits in.
func PositionOf(slots []Slot, competitorID uuid.UUID) (int, bool) {
	for _, s := range slots {
		if s.OccupantID != nil && *s.OccupantID == competitorID {
			return s.Position, true
		}
	}
	return 0, false
}

// ShouldSwap reports whether a result is an upset: the winner sits in the
// numerically higher (worse) position.
func ShouldSwap(winnerPosition, loserPosition int) bool {
	return winnerPosition > loserPosition
}
