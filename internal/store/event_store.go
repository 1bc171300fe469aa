package store

import (
	"context"

	"github.com/AdamBeresnev/op-ladder/internal/ladder"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type EventStore struct {
	db *sqlx.DB
}

func NewEventStore(db *sqlx.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) CreateEvent(ctx context.Context, tx *sqlx.Tx, event *ladder.Event) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO events (id, name, created_at)
		VALUES (:id, :name, :created_at)`, event)
	return err
}

func (s *EventStore) GetEvent(ctx context.Context, id uuid.UUID) (*ladder.Event, error) {
	return getEvent(ctx, s.db, id)
}

func (s *EventStore) GetEventTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*ladder.Event, error) {
	return getEvent(ctx, tx, id)
}

func getEvent(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*ladder.Event, error) {
	var event ladder.Event
	if err := sqlx.GetContext(ctx, q, &event, "SELECT * FROM events WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *EventStore) CreateCompetitor(ctx context.Context, competitor *ladder.Competitor) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO competitors (id, name, created_at)
		VALUES (:id, :name, :created_at)`, competitor)
	return err
}

func (s *EventStore) GetCompetitor(ctx context.Context, id uuid.UUID) (*ladder.Competitor, error) {
	return getCompetitor(ctx, s.db, id)
}

func (s *EventStore) GetCompetitorTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*ladder.Competitor, error) {
	return getCompetitor(ctx, tx, id)
}

func getCompetitor(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*ladder.Competitor, error) {
	var c ladder.Competitor
	if err := sqlx.GetContext(ctx, q, &c, "SELECT * FROM competitors WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &c, nil
}

// ApplyResult adds a settlement delta to a competitor's cumulative counters.
func (s *EventStore) ApplyResult(ctx context.Context, tx *sqlx.Tx, delta ladder.ResultDelta) (int64, error) {
	res, err := tx.NamedExecContext(ctx, `UPDATE competitors SET
		wins = wins + :wins,
		losses = losses + :losses,
		points = points + :points
		WHERE id = :competitor_id`, delta)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
