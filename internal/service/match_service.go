package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/op-ladder/internal/events"
	"github.com/AdamBeresnev/op-ladder/internal/ladder"
	"github.com/AdamBeresnev/op-ladder/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchService struct {
	db        *sqlx.DB
	stores    *store.Stores
	ladder    *LadderService
	market    *MarketService
	publisher events.Publisher
}

func NewMatchService(db *sqlx.DB, stores *store.Stores, ladderService *LadderService, marketService *MarketService, publisher events.Publisher) *MatchService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &MatchService{db: db, stores: stores, ladder: ladderService, market: marketService, publisher: publisher}
}

// Settlement describes the committed outcome of a match.
type Settlement struct {
	Match      *ladder.Match        `json:"match"`
	WinnerID   uuid.UUID            `json:"winner_id"`
	LoserID    uuid.UUID            `json:"loser_id"`
	Swapped    bool                 `json:"swapped"`
	WinnerSlot int                  `json:"winner_slot"`
	LoserSlot  int                  `json:"loser_slot"`
	Deltas     []ladder.ResultDelta `json:"deltas"`
	Payouts    *SettlementPayouts   `json:"payouts"`
}

func (s *MatchService) GetMatch(ctx context.Context, matchID uuid.UUID) (*ladder.Match, error) {
	match, err := s.stores.Matches.GetMatch(ctx, matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	return match, err
}

func (s *MatchService) getMatchTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) (*ladder.Match, error) {
	match, err := s.stores.Matches.GetMatchTx(ctx, tx, matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

// StartMatch moves an upcoming match to live. Only one match per event can be live.
func (s *MatchService) StartMatch(ctx context.Context, matchID uuid.UUID) (*ladder.Match, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.getMatchTx(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != ladder.MatchUpcoming {
		return nil, fmt.Errorf("%w: cannot start a %s match", ErrInvalidTransition, match.Status)
	}

	live, err := s.stores.Matches.GetLiveMatchTx(ctx, tx, match.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to check live match: %w", err)
	}
	if live != nil {
		return nil, fmt.Errorf("%w: %s", ErrConflictingLiveMatch, live.ID)
	}

	// The partial unique index is the final word when two starts race
	if err := s.stores.Matches.UpdateStatus(ctx, tx, match.ID, ladder.MatchLive); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, ErrConflictingLiveMatch
		}
		return nil, fmt.Errorf("failed to update match: %w", err)
	}
	match.Status = ladder.MatchLive

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{Type: events.MatchStarted, EventID: match.EventID, MatchID: match.ID, OccurredAt: time.Now().UTC()})
	return match, nil
}

// ToggleBetting locks betting on a live match and freezes the odds. The lock
// never reverts, so a locked match rejects the toggle with ErrBettingClosed.
func (s *MatchService) ToggleBetting(ctx context.Context, matchID uuid.UUID) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	match, err := s.getMatchTx(ctx, tx, matchID)
	if err != nil {
		return false, err
	}
	if match.Status != ladder.MatchLive {
		return match.BettingLocked, fmt.Errorf("%w: betting can only be toggled on a live match", ErrInvalidTransition)
	}
	if match.BettingLocked {
		return true, ErrBettingClosed
	}

	if _, err := s.market.lockTx(ctx, tx, match); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}

	s.publish(ctx, events.Event{
		Type:       events.BettingLocked,
		EventID:    match.EventID,
		MatchID:    match.ID,
		OccurredAt: time.Now().UTC(),
		Payload:    events.BettingLockedPayload{OddsA: match.OddsAAtLock.Decimal, OddsB: match.OddsBAtLock.Decimal},
	})
	return true, nil
}

// SettleMatch finishes a live match. Locking, the upset swap, the result
// counters, the payouts and the status change commit together or not at all.
func (s *MatchService) SettleMatch(ctx context.Context, matchID, winnerID uuid.UUID) (*Settlement, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.getMatchTx(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == ladder.MatchFinished {
		return nil, ErrAlreadySettled
	}
	if match.Status != ladder.MatchLive {
		return nil, fmt.Errorf("%w: cannot settle a %s match", ErrInvalidTransition, match.Status)
	}
	if !match.HasCompetitor(winnerID) {
		return nil, ErrInvalidWinner
	}

	if _, err := s.market.lockTx(ctx, tx, match); err != nil {
		return nil, err
	}

	loserID := match.Opponent(winnerID)
	settlement := &Settlement{Match: match, WinnerID: winnerID, LoserID: loserID}

	slots, err := s.stores.Ladder.GetSlotsTx(ctx, tx, match.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get slots: %w", err)
	}
	winnerSlot, winnerSeated := ladder.PositionOf(slots, winnerID)
	loserSlot, loserSeated := ladder.PositionOf(slots, loserID)
	settlement.WinnerSlot, settlement.LoserSlot = winnerSlot, loserSlot

	switch {
	case !winnerSeated || !loserSeated:
		slog.WarnContext(ctx, "competitor left the ladder before settlement, skipping swap",
			"match_id", match.ID, "winner_seated", winnerSeated, "loser_seated", loserSeated)
	case ladder.ShouldSwap(winnerSlot, loserSlot):
		if err := s.ladder.swapTx(ctx, tx, match.EventID, winnerSlot, loserSlot); err != nil {
			return nil, s.invariant(ctx, match, fmt.Errorf("failed to swap slots: %w", err))
		}
		settlement.Swapped = true
		settlement.WinnerSlot, settlement.LoserSlot = loserSlot, winnerSlot
	}

	winnerDelta, loserDelta := ladder.ResultDeltas(winnerID, loserID)
	for _, delta := range []ladder.ResultDelta{winnerDelta, loserDelta} {
		n, err := s.stores.Events.ApplyResult(ctx, tx, delta)
		if err != nil {
			return nil, fmt.Errorf("failed to apply result: %w", err)
		}
		if n != 1 {
			return nil, s.invariant(ctx, match, fmt.Errorf("%w: competitor %s missing", ErrInvariantViolation, delta.CompetitorID))
		}
	}
	settlement.Deltas = []ladder.ResultDelta{winnerDelta, loserDelta}

	payouts, err := s.market.settleTx(ctx, tx, match, winnerID)
	if err != nil {
		if errors.Is(err, ErrInvariantViolation) {
			return nil, s.invariant(ctx, match, err)
		}
		return nil, err
	}
	settlement.Payouts = payouts

	settledAt := time.Now().UTC()
	finished, err := s.stores.Matches.FinishMatch(ctx, tx, match.ID, winnerID, settledAt)
	if err != nil {
		return nil, fmt.Errorf("failed to finish match: %w", err)
	}
	if !finished {
		return nil, ErrAlreadySettled
	}
	match.Status = ladder.MatchFinished
	match.WinnerID = &winnerID
	match.SettledAt = &settledAt

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:       events.MatchSettled,
		EventID:    match.EventID,
		MatchID:    match.ID,
		OccurredAt: settledAt,
		Payload: events.MatchSettledPayload{
			WinnerID:    winnerID,
			LoserID:     loserID,
			Swapped:     settlement.Swapped,
			WinnerSlot:  settlement.WinnerSlot,
			LoserSlot:   settlement.LoserSlot,
			TotalPaid:   payouts.TotalPaid,
			PayoutCount: len(payouts.Payouts),
		},
	})
	return settlement, nil
}

// invariant logs a violation loudly. Returning it rolls the transaction back.
func (s *MatchService) invariant(ctx context.Context, match *ladder.Match, err error) error {
	if !errors.Is(err, ErrInvariantViolation) {
		err = fmt.Errorf("%w: %w", ErrInvariantViolation, err)
	}
	slog.ErrorContext(ctx, "settlement invariant violated, rolling back",
		"match_id", match.ID, "event_id", match.EventID, "error", err)
	return err
}

func (s *MatchService) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish event", "type", ev.Type, "match_id", ev.MatchID, "error", err)
	}
}
