package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/op-ladder/internal/ladder"
	"github.com/AdamBeresnev/op-ladder/internal/store"
	users "github.com/AdamBeresnev/op-ladder/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type LadderService struct {
	db     *sqlx.DB
	stores *store.Stores
}

func NewLadderService(db *sqlx.DB, stores *store.Stores) *LadderService {
	return &LadderService{db: db, stores: stores}
}

// CreateEvent creates an event together with its 20 vacant slots.
func (s *LadderService) CreateEvent(ctx context.Context, name string) (*ladder.Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: event name is required", ErrValidationFailed)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	event := &ladder.Event{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	if err := s.stores.Events.CreateEvent(ctx, tx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	if err := s.stores.Ladder.CreateSlots(ctx, tx, ladder.EmptyLadder(event.ID)); err != nil {
		return nil, fmt.Errorf("failed to create slots: %w", err)
	}

	return event, tx.Commit()
}

func (s *LadderService) CreateCompetitor(ctx context.Context, name string) (*ladder.Competitor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: competitor name is required", ErrValidationFailed)
	}
	c := &ladder.Competitor{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	if err := s.stores.Events.CreateCompetitor(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create competitor: %w", err)
	}
	return c, nil
}

// CreateUser opens a bettor account with a starting balance.
func (s *LadderService) CreateUser(ctx context.Context, username string, points int64) (*users.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || points < 0 {
		return nil, fmt.Errorf("%w: username is required and points must not be negative", ErrValidationFailed)
	}
	u := &users.User{ID: uuid.New(), Username: username, Points: points, CreatedAt: time.Now().UTC()}
	if err := s.stores.Users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, fmt.Errorf("%w: username %q is taken", ErrValidationFailed, username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *LadderService) GetLadder(ctx context.Context, eventID uuid.UUID) ([]ladder.Slot, error) {
	slots, err := s.stores.Ladder.GetSlots(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, ErrEventNotFound
	}
	return slots, nil
}

func (s *LadderService) GetSlot(ctx context.Context, eventID uuid.UUID, position int) (*ladder.Slot, error) {
	if !ladder.ValidPosition(position) {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRange, position)
	}
	slot, err := s.stores.Ladder.GetSlot(ctx, eventID, position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	return slot, err
}

// AssignSlot is the admin override of a slot's occupant. Passing nil empties the slot.
// A competitor can only hold one slot of a ladder at a time.
func (s *LadderService) AssignSlot(ctx context.Context, eventID uuid.UUID, position int, competitorID *uuid.UUID) (*ladder.Slot, error) {
	if !ladder.ValidPosition(position) {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRange, position)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	slots, err := s.stores.Ladder.GetSlotsTx(ctx, tx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get slots: %w", err)
	}
	if len(slots) == 0 {
		return nil, ErrEventNotFound
	}

	if competitorID != nil {
		if _, err := s.stores.Events.GetCompetitorTx(ctx, tx, *competitorID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrCompetitorNotFound
			}
			return nil, fmt.Errorf("failed to get competitor: %w", err)
		}
		if seat, ok := ladder.PositionOf(slots, *competitorID); ok && seat != position {
			return nil, fmt.Errorf("%w: position %d", ErrCompetitorSeated, seat)
		}
	}

	slot := &ladder.Slot{EventID: eventID, Position: position, OccupantID: competitorID}
	if err := s.stores.Ladder.AssignSlot(ctx, tx, slot); err != nil {
		return nil, fmt.Errorf("failed to assign slot: %w", err)
	}

	return slot, tx.Commit()
}

// swapTx exchanges two occupants inside the caller's transaction.
func (s *LadderService) swapTx(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID, positionA, positionB int) error {
	if !ladder.ValidPosition(positionA) || !ladder.ValidPosition(positionB) || positionA == positionB {
		return fmt.Errorf("%w: %d and %d", ErrInvalidSwap, positionA, positionB)
	}
	return s.stores.Ladder.SwapOccupants(ctx, tx, eventID, positionA, positionB)
}
