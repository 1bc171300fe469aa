package ladder

import (
	"time"

	"github.com/google/uuid"
)

const (
	WinPoints  = 100
	LossPoints = -50
)

type Competitor struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Wins      int       `db:"wins" json:"wins"`
	Losses    int       `db:"losses" json:"losses"`
	Points    int       `db:"points" json:"points"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ResultDelta is the change a settled match applies to one competitor's counters.
type ResultDelta struct {
	CompetitorID uuid.UUID `db:"competitor_id" json:"competitor_id"`
	Wins         int       `db:"wins" json:"wins"`
	Losses       int       `db:"losses" json:"losses"`
	Points       int       `db:"points" json:"points"`
}

func ResultDeltas(winnerID, loserID uuid.UUID) (ResultDelta, ResultDelta) {
	return ResultDelta{CompetitorID: winnerID, Wins: 1, Points: WinPoints},
		ResultDelta{CompetitorID: loserID, Losses: 1, Points: LossPoints}
}
