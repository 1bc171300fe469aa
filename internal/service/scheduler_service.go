package service

import (
	"context"
	"fmt"
	"time"

	"github.com/AdamBeresnev/op-ladder/internal/ladder"
	"github.com/AdamBeresnev/op-ladder/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SchedulerService struct {
	db     *sqlx.DB
	stores *store.Stores
}

func NewSchedulerService(db *sqlx.DB, stores *store.Stores) *SchedulerService {
	return &SchedulerService{db: db, stores: stores}
}

// Preview is a proposed round. Nothing is stored until it is committed.
type Preview struct {
	EventID     uuid.UUID        `json:"event_id"`
	RoundNumber int              `json:"round_number"`
	Phase       ladder.Phase     `json:"phase"`
	Pairings    []ladder.Pairing `json:"pairings"`
	CycleStatus string           `json:"cycle_status"`
}

type CycleStatus struct {
	OddCount        int          `json:"odd_count"`
	EvenCount       int          `json:"even_count"`
	NextPhase       ladder.Phase `json:"next_phase"`
	CyclesCompleted int          `json:"cycles_completed"`
	CycleComplete   bool         `json:"cycle_complete"`
	Message         string       `json:"message"`
}

func progressFrom(rounds []store.RoundSummary) (ladder.CycleProgress, int) {
	var p ladder.CycleProgress
	lastRound := 0
	for _, r := range rounds {
		if r.CyclePhase.Parity() == ladder.Odd {
			p.OddCount++
		} else {
			p.EvenCount++
		}
		if r.RoundNumber > lastRound {
			lastRound = r.RoundNumber
			p.Last = r.CyclePhase.Parity()
		}
	}
	return p, lastRound
}

func (s *SchedulerService) GetCycleStatus(ctx context.Context, eventID uuid.UUID) (*CycleStatus, error) {
	rounds, err := s.stores.Matches.GetRounds(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds: %w", err)
	}
	p, _ := progressFrom(rounds)
	return &CycleStatus{
		OddCount:        p.OddCount,
		EvenCount:       p.EvenCount,
		NextPhase:       p.NextPhase(),
		CyclesCompleted: p.CyclesCompleted(),
		CycleComplete:   p.CycleComplete(),
		Message:         p.Status(),
	}, nil
}

// PreviewPairings proposes the next round. A parity hint overrides the cycle order.
func (s *SchedulerService) PreviewPairings(ctx context.Context, eventID uuid.UUID, hint *ladder.Parity) (*Preview, error) {
	slots, err := s.stores.Ladder.GetSlots(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get slots: %w", err)
	}
	if len(slots) == 0 {
		return nil, ErrEventNotFound
	}

	rounds, err := s.stores.Matches.GetRounds(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds: %w", err)
	}

	return buildPreview(eventID, slots, rounds, hint)
}

func buildPreview(eventID uuid.UUID, slots []ladder.Slot, rounds []store.RoundSummary, hint *ladder.Parity) (*Preview, error) {
	progress, lastRound := progressFrom(rounds)

	parity := progress.NextParity()
	if hint != nil {
		parity = *hint
	}

	roundNumber := lastRound + 1
	pairings := ladder.ProposePairings(slots, parity, roundNumber)
	if len(pairings) == 0 {
		return nil, fmt.Errorf("%w: %s phase", ErrIncompleteLadder, parity)
	}

	return &Preview{
		EventID:     eventID,
		RoundNumber: roundNumber,
		Phase:       progress.PhaseFor(parity),
		Pairings:    pairings,
		CycleStatus: progress.Status(),
	}, nil
}

// CommitPairings stores a previewed round. The ladder is re-read in the same
// transaction and must still match the preview, so committing one preview
// twice fails with ErrStalePreview.
func (s *SchedulerService) CommitPairings(ctx context.Context, eventID uuid.UUID, preview *Preview, startTime time.Time, staggerMinutes int) ([]uuid.UUID, error) {
	if staggerMinutes < 0 {
		return nil, ErrInvalidSchedule
	}
	if preview == nil || len(preview.Pairings) == 0 || !preview.Phase.Valid() {
		return nil, fmt.Errorf("%w: empty or malformed preview", ErrInvalidPairing)
	}
	parity := preview.Phase.Parity()

	seen := make(map[int]bool)
	for _, p := range preview.Pairings {
		if !ladder.IsPhasePair(parity, p.SlotA, p.SlotB) {
			return nil, fmt.Errorf("%w: slots %d and %d in %s phase", ErrInvalidPairing, p.SlotA, p.SlotB, preview.Phase)
		}
		if seen[p.SlotA] || seen[p.SlotB] {
			return nil, fmt.Errorf("%w: slot paired twice", ErrInvalidPairing)
		}
		seen[p.SlotA], seen[p.SlotB] = true, true
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

	rounds, err := s.stores.Matches.GetRoundsTx(ctx, tx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds: %w", err)
	}
	progress, lastRound := progressFrom(rounds)
	if preview.RoundNumber != lastRound+1 || preview.Phase != progress.PhaseFor(parity) {
		return nil, fmt.Errorf("%w: round %d is no longer next", ErrStalePreview, preview.RoundNumber)
	}

	byPosition := make(map[int]ladder.Slot, len(slots))
	for _, slot := range slots {
		byPosition[slot.Position] = slot
	}

	now := time.Now().UTC()
	stagger := time.Duration(staggerMinutes) * time.Minute
	matches := make([]ladder.Match, 0, len(preview.Pairings))
	ids := make([]uuid.UUID, 0, len(preview.Pairings))

	for i, p := range preview.Pairings {
		a, b := byPosition[p.SlotA], byPosition[p.SlotB]
		if a.IsVacant() || b.IsVacant() || *a.OccupantID != p.CompetitorA || *b.OccupantID != p.CompetitorB {
			return nil, fmt.Errorf("%w: slots %d and %d", ErrStalePreview, p.SlotA, p.SlotB)
		}

		scheduledAt := startTime.UTC().Add(time.Duration(i) * stagger)
		m := ladder.Match{
			ID:            uuid.New(),
			EventID:       eventID,
			SlotAPosition: a.Position,
			SlotBPosition: b.Position,
			CompetitorA:   *a.OccupantID,
			CompetitorB:   *b.OccupantID,
			RoundNumber:   preview.RoundNumber,
			CyclePhase:    preview.Phase,
			MatchOrder:    i + 1,
			Status:        ladder.MatchUpcoming,
			ScheduledAt:   &scheduledAt,
			CreatedAt:     now,
		}
		matches = append(matches, m)
		ids = append(ids, m.ID)
	}

	if err := s.stores.Matches.CreateMatches(ctx, tx, matches); err != nil {
		return nil, fmt.Errorf("failed to create matches: %w", err)
	}

	return ids, tx.Commit()
}
