package ladder

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MatchStatus string

const (
	MatchUpcoming MatchStatus = "upcoming"
	MatchLive     MatchStatus = "live"
	MatchFinished MatchStatus = "finished"
)

type Match struct {
	ID      uuid.UUID `db:"id" json:"id"`
	EventID uuid.UUID `db:"event_id" json:"event_id"`

	// Snapshot of the ladder when the round was committed, later swaps don't touch it
	SlotAPosition int       `db:"slot_a_position" json:"slot_a_position"`
	SlotBPosition int       `db:"slot_b_position" json:"slot_b_position"`
	CompetitorA   uuid.UUID `db:"competitor_a_id" json:"competitor_a_id"`
	CompetitorB   uuid.UUID `db:"competitor_b_id" json:"competitor_b_id"`

	RoundNumber int   `db:"round_number" json:"round_number"`
	CyclePhase  Phase `db:"cycle_phase" json:"cycle_phase"`
	MatchOrder  int   `db:"match_order" json:"match_order"`

	Status        MatchStatus         `db:"status" json:"status"`
	BettingLocked bool                `db:"betting_locked" json:"betting_locked"`
	OddsAAtLock   decimal.NullDecimal `db:"odds_a_at_lock" json:"odds_a_at_lock"`
	OddsBAtLock   decimal.NullDecimal `db:"odds_b_at_lock" json:"odds_b_at_lock"`
	WinnerID      *uuid.UUID          `db:"winner_id" json:"winner_id"`

	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at"`
	SettledAt   *time.Time `db:"settled_at" json:"settled_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

func (m *Match) HasCompetitor(id uuid.UUID) bool {
	return m.CompetitorA == id || m.CompetitorB == id
}

// Opponent returns the other competitor of the match.
func (m *Match) Opponent(id uuid.UUID) uuid.UUID {
	if m.CompetitorA == id {
		return m.CompetitorB
	}
	return m.CompetitorA
}

// BettingOpen is true while the match is not finished and betting has not been locked.
func (m *Match) BettingOpen() bool {
	return m.Status != MatchFinished && !m.BettingLocked
}

func (m *Match) IsWinner(id uuid.UUID) bool {
	return m.Status == MatchFinished && m.WinnerID != nil && *m.WinnerID == id
}
