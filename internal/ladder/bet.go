package ladder

import (
	"time"

	"github.com/google/uuid"
)

type Bet struct {
	ID           uuid.UUID `db:"id" json:"id"`
	MatchID      uuid.UUID `db:"match_id" json:"match_id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	CompetitorID uuid.UUID `db:"competitor_id" json:"competitor_id"`
	Amount       int64     `db:"amount" json:"amount"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Payout struct {
	ID        uuid.UUID `db:"id" json:"id"`
	MatchID   uuid.UUID `db:"match_id" json:"match_id"`
	BetID     uuid.UUID `db:"bet_id" json:"bet_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Amount    int64     `db:"amount" json:"amount"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
