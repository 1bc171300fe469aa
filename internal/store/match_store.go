package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/AdamBeresnev/op-ladder/internal/ladder"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type MatchStore struct {
	db *sqlx.DB
}

// RoundSummary is one committed round of an event.
type RoundSummary struct {
	RoundNumber int          `db:"round_number"`
	CyclePhase  ladder.Phase `db:"cycle_phase"`
}

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

func (s *MatchStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []ladder.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO matches (id, event_id, slot_a_position, slot_b_position, competitor_a_id, competitor_b_id, round_number, cycle_phase, match_order, status, betting_locked, scheduled_at, created_at)
		VALUES (:id, :event_id, :slot_a_position, :slot_b_position, :competitor_a_id, :competitor_b_id, :round_number, :cycle_phase, :match_order, :status, :betting_locked, :scheduled_at, :created_at)`, matches)
	return err
}

func (s *MatchStore) GetMatch(ctx context.Context, id uuid.UUID) (*ladder.Match, error) {
	return getMatch(ctx, s.db, id)
}

func (s *MatchStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*ladder.Match, error) {
	return getMatch(ctx, tx, id)
}

func getMatch(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*ladder.Match, error) {
	var match ladder.Match
	if err := sqlx.GetContext(ctx, q, &match, "SELECT * FROM matches WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *MatchStore) GetMatches(ctx context.Context, eventID uuid.UUID) ([]ladder.Match, error) {
	var matches []ladder.Match
	err := s.db.SelectContext(ctx, &matches, "SELECT * FROM matches WHERE event_id = ? ORDER BY round_number ASC, match_order ASC", eventID)
	return matches, err
}

// GetRounds lists the distinct committed rounds of an event in creation order.
func (s *MatchStore) GetRounds(ctx context.Context, eventID uuid.UUID) ([]RoundSummary, error) {
	return getRounds(ctx, s.db, eventID)
}

func (s *MatchStore) GetRoundsTx(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID) ([]RoundSummary, error) {
	return getRounds(ctx, tx, eventID)
}

func getRounds(ctx context.Context, q sqlx.QueryerContext, eventID uuid.UUID) ([]RoundSummary, error) {
	var rounds []RoundSummary
	err := sqlx.SelectContext(ctx, q, &rounds, `SELECT round_number, MIN(cycle_phase) AS cycle_phase
		FROM matches WHERE event_id = ?
		GROUP BY round_number ORDER BY round_number ASC`, eventID)
	return rounds, err
}

// GetLiveMatchTx returns the live match of an event, or nil when none is live.
func (s *MatchStore) GetLiveMatchTx(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID) (*ladder.Match, error) {
	var match ladder.Match
	err := tx.GetContext(ctx, &match, "SELECT * FROM matches WHERE event_id = ? AND status = ? LIMIT 1", eventID, ladder.MatchLive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *MatchStore) UpdateStatus(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status ladder.MatchStatus) error {
	_, err := tx.ExecContext(ctx, "UPDATE matches SET status = ? WHERE id = ?", status, id)
	return translate(err)
}

// LockBetting freezes the odds of both sides. A match that is already locked is left as is.
func (s *MatchStore) LockBetting(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, oddsA, oddsB decimal.Decimal) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE matches SET
		betting_locked = 1,
		odds_a_at_lock = ?,
		odds_b_at_lock = ?
		WHERE id = ? AND betting_locked = 0`, oddsA, oddsB, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (s *MatchStore) FinishMatch(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, winnerID uuid.UUID, settledAt time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE matches SET
		status = ?,
		winner_id = ?,
		settled_at = ?
		WHERE id = ? AND status = ?`, ladder.MatchFinished, winnerID, settledAt, id, ladder.MatchLive)
	if err != nil {
		return false, translate(err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
