package store

import (
	"context"

	"github.com/AdamBeresnev/op-ladder/internal/ladder"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BetStore struct {
	db *sqlx.DB
}

const getBetsQuery = "SELECT * FROM bets WHERE match_id = ? ORDER BY created_at ASC, id ASC"

func NewBetStore(db *sqlx.DB) *BetStore {
	return &BetStore{db: db}
}

// CreateBet inserts a bet. A second bet by the same user on a match fails with ErrUniqueViolation.
func (s *BetStore) CreateBet(ctx context.Context, tx *sqlx.Tx, bet *ladder.Bet) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO bets (id, match_id, user_id, competitor_id, amount, created_at)
		VALUES (:id, :match_id, :user_id, :competitor_id, :amount, :created_at)`, bet)
	return translate(err)
}

func (s *BetStore) HasBetTx(ctx context.Context, tx *sqlx.Tx, matchID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM bets WHERE match_id = ? AND user_id = ?)", matchID, userID)
	return exists, err
}

func (s *BetStore) GetBets(ctx context.Context, matchID uuid.UUID) ([]ladder.Bet, error) {
	var bets []ladder.Bet
	err := s.db.SelectContext(ctx, &bets, getBetsQuery, matchID)
	return bets, err
}

func (s *BetStore) GetBetsTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) ([]ladder.Bet, error) {
	var bets []ladder.Bet
	err := tx.SelectContext(ctx, &bets, getBetsQuery, matchID)
	return bets, err
}

func (s *BetStore) CreatePayouts(ctx context.Context, tx *sqlx.Tx, payouts []ladder.Payout) error {
	if len(payouts) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO payouts (id, match_id, bet_id, user_id, amount, created_at)
		VALUES (:id, :match_id, :bet_id, :user_id, :amount, :created_at)`, payouts)
	return translate(err)
}

func (s *BetStore) GetPayouts(ctx context.Context, matchID uuid.UUID) ([]ladder.Payout, error) {
	return getPayouts(ctx, s.db, matchID)
}

func (s *BetStore) GetPayoutsTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) ([]ladder.Payout, error) {
	return getPayouts(ctx, tx, matchID)
}

func getPayouts(ctx context.Context, q sqlx.QueryerContext, matchID uuid.UUID) ([]ladder.Payout, error) {
	var payouts []ladder.Payout
	err := sqlx.SelectContext(ctx, q, &payouts, "SELECT * FROM payouts WHERE match_id = ? ORDER BY created_at ASC, id ASC", matchID)
	return payouts, err
}
