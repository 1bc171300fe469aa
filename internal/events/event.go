// Package events defines the domain events the engine emits after a
// transaction commits, and the publishers that hand them to a broker.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Type string

const (
	MatchStarted  Type = "match.started"
	BettingLocked Type = "betting.locked"
	BetPlaced     Type = "bet.placed"
	MatchSettled  Type = "match.settled"
)

type Event struct {
	Type       Type      `json:"type"`
	EventID    uuid.UUID `json:"event_id"`
	MatchID    uuid.UUID `json:"match_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

type BettingLockedPayload struct {
	OddsA decimal.Decimal `json:"odds_a"`
	OddsB decimal.Decimal `json:"odds_b"`
}

type BetPlacedPayload struct {
	CompetitorID uuid.UUID       `json:"competitor_id"`
	Amount       int64           `json:"amount"`
	TotalPool    int64           `json:"total_pool"`
	OddsA        decimal.Decimal `json:"odds_a"`
	OddsB        decimal.Decimal `json:"odds_b"`
}

type MatchSettledPayload struct {
	WinnerID    uuid.UUID `json:"winner_id"`
	LoserID     uuid.UUID `json:"loser_id"`
	Swapped     bool      `json:"swapped"`
	WinnerSlot  int       `json:"winner_slot"`
	LoserSlot   int       `json:"loser_slot"`
	TotalPaid   int64     `json:"total_paid"`
	PayoutCount int       `json:"payout_count"`
}

// Publisher delivers events to an external collaborator. Engine correctness
// never depends on delivery, so callers only log publish failures.
// Publish is called on the request path and must not wait on the broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
