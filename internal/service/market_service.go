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
	"github.com/AdamBeresnev/op-ladder/internal/market"
	"github.com/AdamBeresnev/op-ladder/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type MarketService struct {
	db        *sqlx.DB
	stores    *store.Stores
	publisher events.Publisher
	neutral   decimal.Decimal
}

func NewMarketService(db *sqlx.DB, stores *store.Stores, publisher events.Publisher, neutralOdds decimal.Decimal) *MarketService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &MarketService{db: db, stores: stores, publisher: publisher, neutral: neutralOdds}
}

type BetResult struct {
	Success          bool        `json:"success"`
	Bet              *ladder.Bet `json:"bet"`
	RemainingBalance int64       `json:"remaining_balance"`
	Odds             market.Odds `json:"odds"`
}

// SettlementPayouts is what the market paid out for one settled match.
type SettlementPayouts struct {
	Odds      decimal.Decimal `json:"odds"`
	Payouts   []ladder.Payout `json:"payouts"`
	TotalPaid int64           `json:"total_paid"`
}

// GetOdds recomputes the pool from the bet rows on every read.
func (s *MarketService) GetOdds(ctx context.Context, matchID uuid.UUID) (*market.Odds, error) {
	match, err := s.stores.Matches.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	bets, err := s.stores.Bets.GetBets(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets: %w", err)
	}
	odds := s.oddsFor(match, bets)
	return &odds, nil
}

func (s *MarketService) oddsFor(match *ladder.Match, bets []ladder.Bet) market.Odds {
	odds := market.Compute(market.PoolFor(match, bets), s.neutral)
	odds.Locked = match.BettingLocked
	if match.OddsAAtLock.Valid && match.OddsBAtLock.Valid {
		odds.OddsA = match.OddsAAtLock.Decimal
		odds.OddsB = match.OddsBAtLock.Decimal
	}
	return odds
}

func (s *MarketService) oddsTx(ctx context.Context, tx *sqlx.Tx, match *ladder.Match) (market.Odds, error) {
	bets, err := s.stores.Bets.GetBetsTx(ctx, tx, match.ID)
	if err != nil {
		return market.Odds{}, fmt.Errorf("failed to get bets: %w", err)
	}
	return s.oddsFor(match, bets), nil
}

// PlaceBet stakes amount points of a user on a competitor. The debit, the bet row and
// the odds recomputation share one transaction.
func (s *MarketService) PlaceBet(ctx context.Context, userID, matchID, competitorID uuid.UUID, amount int64) (*BetResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.stores.Matches.GetMatchTx(ctx, tx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if !match.BettingOpen() {
		return nil, ErrBettingClosed
	}
	if !match.HasCompetitor(competitorID) {
		return nil, ErrInvalidCompetitor
	}

	exists, err := s.stores.Bets.HasBetTx(ctx, tx, matchID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing bet: %w", err)
	}
	if exists {
		return nil, ErrDuplicateBet
	}

	debited, err := s.stores.Users.DebitPoints(ctx, tx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to debit points: %w", err)
	}
	if !debited {
		if _, err := s.stores.Users.GetUserTx(ctx, tx, userID); errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		} else if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		return nil, ErrInsufficientBalance
	}

	bet := &ladder.Bet{
		ID:           uuid.New(),
		MatchID:      matchID,
		UserID:       userID,
		CompetitorID: competitorID,
		Amount:       amount,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.stores.Bets.CreateBet(ctx, tx, bet); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, ErrDuplicateBet
		}
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	user, err := s.stores.Users.GetUserTx(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	odds, err := s.oddsTx(ctx, tx, match)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:       events.BetPlaced,
		EventID:    match.EventID,
		MatchID:    match.ID,
		OccurredAt: bet.CreatedAt,
		Payload: events.BetPlacedPayload{
			CompetitorID: competitorID,
			Amount:       amount,
			TotalPool:    odds.TotalPool,
			OddsA:        odds.OddsA,
			OddsB:        odds.OddsB,
		},
	})

	return &BetResult{Success: true, Bet: bet, RemainingBalance: user.Points, Odds: odds}, nil
}

// lockTx freezes the current odds on the match. It reports false when betting was already locked.
func (s *MarketService) lockTx(ctx context.Context, tx *sqlx.Tx, match *ladder.Match) (bool, error) {
	if match.BettingLocked {
		return false, nil
	}
	odds, err := s.oddsTx(ctx, tx, match)
	if err != nil {
		return false, err
	}
	locked, err := s.stores.Matches.LockBetting(ctx, tx, match.ID, odds.OddsA, odds.OddsB)
	if err != nil {
		return false, fmt.Errorf("failed to lock betting: %w", err)
	}
	if locked {
		match.BettingLocked = true
		match.OddsAAtLock = decimal.NewNullDecimal(odds.OddsA)
		match.OddsBAtLock = decimal.NewNullDecimal(odds.OddsB)
	}
	return locked, nil
}

// settleTx pays every bet on the winner at the odds frozen when betting locked.
// Stakes on the loser were already taken at placement.
func (s *MarketService) settleTx(ctx context.Context, tx *sqlx.Tx, match *ladder.Match, winnerID uuid.UUID) (*SettlementPayouts, error) {
	if !match.BettingLocked {
		return nil, fmt.Errorf("%w: settling match %s with betting open", ErrInvariantViolation, match.ID)
	}
	odds, ok := market.OddsFor(match, winnerID)
	if !ok {
		return nil, fmt.Errorf("%w: match %s has no frozen odds for %s", ErrInvariantViolation, match.ID, winnerID)
	}

	bets, err := s.stores.Bets.GetBetsTx(ctx, tx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets: %w", err)
	}

	amounts := market.Payouts(bets, winnerID, odds)
	now := time.Now().UTC()
	result := &SettlementPayouts{Odds: odds}

	for _, b := range bets {
		amount, won := amounts[b.ID]
		if !won {
			continue
		}
		credited, err := s.stores.Users.CreditPoints(ctx, tx, b.UserID, amount)
		if err != nil {
			return nil, fmt.Errorf("failed to credit user %s: %w", b.UserID, err)
		}
		if !credited {
			return nil, fmt.Errorf("%w: bettor %s vanished before payout", ErrInvariantViolation, b.UserID)
		}
		result.Payouts = append(result.Payouts, ladder.Payout{
			ID:        uuid.New(),
			MatchID:   match.ID,
			BetID:     b.ID,
			UserID:    b.UserID,
			Amount:    amount,
			CreatedAt: now,
		})
		result.TotalPaid += amount
	}

	if err := s.stores.Bets.CreatePayouts(ctx, tx, result.Payouts); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, ErrAlreadySettled
		}
		return nil, fmt.Errorf("failed to record payouts: %w", err)
	}
	return result, nil
}

func (s *MarketService) GetPayouts(ctx context.Context, matchID uuid.UUID) ([]ladder.Payout, error) {
	return s.stores.Bets.GetPayouts(ctx, matchID)
}

func (s *MarketService) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish event", "type", ev.Type, "match_id", ev.MatchID, "error", err)
	}
}
