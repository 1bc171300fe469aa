package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/op-ladder/internal/ladder"
	"github.com/AdamBeresnev/op-ladder/internal/market"
	"github.com/AdamBeresnev/op-ladder/internal/store"
	"github.com/AdamBeresnev/op-ladder/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

type EventService struct {
	db        *sqlx.DB
	stores    *store.Stores
	scheduler *SchedulerService
	market    *MarketService
}

func NewEventService(db *sqlx.DB, stores *store.Stores, scheduler *SchedulerService, marketService *MarketService) *EventService {
	return &EventService{db: db, stores: stores, scheduler: scheduler, market: marketService}
}

type EventOverview struct {
	Event       *ladder.Event  `json:"event"`
	Slots       []ladder.Slot  `json:"slots"`
	Matches     []ladder.Match `json:"matches"`
	Cycle       *CycleStatus   `json:"cycle"`
	LiveMatchID *uuid.UUID     `json:"live_match_id"`
	LiveOdds    *market.Odds   `json:"live_odds"`
	NextMatchID *uuid.UUID     `json:"next_match_id"`
}

// GetOverview loads the event dashboard. The reads run concurrently on separate
// connections and are not a snapshot: a settlement committing in between can
// show the ladder and the match list from different moments.
func (s *EventService) GetOverview(ctx context.Context, eventID uuid.UUID) (*EventOverview, error) {
	overview := &EventOverview{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		event, err := s.stores.Events.GetEvent(gCtx, eventID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		overview.Event = event
		return nil
	})
	g.Go(func() error {
		slots, err := s.stores.Ladder.GetSlots(gCtx, eventID)
		if err != nil {
			return fmt.Errorf("failed to get slots: %w", err)
		}
		overview.Slots = slots
		return nil
	})
	g.Go(func() error {
		matches, err := s.stores.Matches.GetMatches(gCtx, eventID)
		if err != nil {
			return fmt.Errorf("failed to get matches: %w", err)
		}
		overview.Matches = matches
		return nil
	})
	g.Go(func() error {
		cycle, err := s.scheduler.GetCycleStatus(gCtx, eventID)
		if err != nil {
			return err
		}
		overview.Cycle = cycle
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, m := range overview.Matches {
		switch {
		case m.Status == ladder.MatchLive:
			overview.LiveMatchID = utils.Ptr(m.ID)
		case m.Status == ladder.MatchUpcoming && overview.NextMatchID == nil:
			overview.NextMatchID = utils.Ptr(m.ID)
		}
	}

	if overview.LiveMatchID != nil {
		odds, err := s.market.GetOdds(ctx, *overview.LiveMatchID)
		if err != nil {
			return nil, fmt.Errorf("failed to get live odds: %w", err)
		}
		overview.LiveOdds = odds
	}

	return overview, nil
}
