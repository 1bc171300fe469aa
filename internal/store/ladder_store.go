package store

import (
	"context"

	"github.com/AdamBeresnev/op-ladder/internal/ladder"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type LadderStore struct {
	db *sqlx.DB
}

const (
	getSlotsQuery = "SELECT * FROM slots WHERE event_id = ? ORDER BY position ASC"
	getSlotQuery  = "SELECT * FROM slots WHERE event_id = ? AND position = ?"
	assignQuery   = `
		UPDATE slots SET
		occupant_id = :occupant_id,
		consecutive_absences = 0,
		last_match_at = NULL
		WHERE event_id = :event_id AND position = :position
	`
	setOccupantQuery = "UPDATE slots SET occupant_id = ? WHERE event_id = ? AND position = ?"
)

func NewLadderStore(db *sqlx.DB) *LadderStore {
	return &LadderStore{db: db}
}

func (s *LadderStore) CreateSlots(ctx context.Context, tx *sqlx.Tx, slots []ladder.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO slots (event_id, position, occupant_id, consecutive_absences, last_match_at)
		VALUES (:event_id, :position, :occupant_id, :consecutive_absences, :last_match_at)`, slots)
	return err
}

func (s *LadderStore) GetSlots(ctx context.Context, eventID uuid.UUID) ([]ladder.Slot, error) {
	var slots []ladder.Slot
	err := s.db.SelectContext(ctx, &slots, getSlotsQuery, eventID)
	return slots, err
}

func (s *LadderStore) GetSlotsTx(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID) ([]ladder.Slot, error) {
	var slots []ladder.Slot
	err := tx.SelectContext(ctx, &slots, getSlotsQuery, eventID)
	return slots, err
}

func (s *LadderStore) GetSlot(ctx context.Context, eventID uuid.UUID, position int) (*ladder.Slot, error) {
	var slot ladder.Slot
	if err := s.db.GetContext(ctx, &slot, getSlotQuery, eventID, position); err != nil {
		return nil, err
	}
	return &slot, nil
}

func (s *LadderStore) GetSlotTx(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, position int) (*ladder.Slot, error) {
	var slot ladder.Slot
	if err := tx.GetContext(ctx, &slot, getSlotQuery, eventID, position); err != nil {
		return nil, err
	}
	return &slot, nil
}

// AssignSlot overwrites the occupant and resets the absence bookkeeping.
func (s *LadderStore) AssignSlot(ctx context.Context, tx *sqlx.Tx, slot *ladder.Slot) error {
	_, err := tx.NamedExecContext(ctx, assignQuery, slot)
	return err
}

// SwapOccupants exchanges the occupant of two slots and nothing else.
func (s *LadderStore) SwapOccupants(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, positionA, positionB int) error {
	a, err := s.GetSlotTx(ctx, tx, eventID, positionA)
	if err != nil {
		return err
	}
	b, err := s.GetSlotTx(ctx, tx, eventID, positionB)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, setOccupantQuery, b.OccupantID, eventID, positionA); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, setOccupantQuery, a.OccupantID, eventID, positionB)
	return err
}
