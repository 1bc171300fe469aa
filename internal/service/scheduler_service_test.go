package service

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/op-ladder/internal/ladder"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewOpensWithOddPhase(t *testing.T) {
	f := newFixture(t)
	f.seatAll(t)

	preview, err := f.scheduler.PreviewPairings(context.Background(), f.event.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, preview.RoundNumber)
	assert.Equal(t, ladder.OddFirst, preview.Phase)
	require.Len(t, preview.Pairings, 9)
	assert.Equal(t, 19, preview.Pairings[0].SlotA)
	assert.Equal(t, 18, preview.Pairings[0].SlotB)
	assert.Equal(t, f.at(19), preview.Pairings[0].CompetitorA)
	for _, p := range preview.Pairings {
		assert.NotContains(t, []int{1, 20}, p.SlotA)
		assert.NotContains(t, []int{1, 20}, p.SlotB)
	}

	// previewing stores nothing
	matches, err := f.stores.Matches.GetMatches(context.Background(), f.event.ID)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestPreviewEvenHintCoversWholeLadder(t *testing.T) {
	f := newFixture(t)
	f.seatAll(t)

	even := ladder.Even
	preview, err := f.scheduler.PreviewPairings(context.Background(), f.event.ID, &even)
	require.NoError(t, err)
	assert.Equal(t, ladder.EvenFirst, preview.Phase)
	assert.Len(t, preview.Pairings, 10)
}

func TestPreviewIncompleteLadder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.scheduler.PreviewPairings(ctx, f.event.ID, nil)
	assert.ErrorIs(t, err, ErrIncompleteLadder)

	_, err = f.scheduler.PreviewPairings(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestPreviewSkipsVacantPairs(t *testing.T) {
	f := newFixture(t)
	f.seatAll(t)
	ctx := context.Background()

	_, err := f.ladders.AssignSlot(ctx, f.event.ID, 18, nil)
	require.NoError(t, err)

	preview, err := f.scheduler.PreviewPairings(ctx, f.event.ID, nil)
	require.NoError(t, err)
	assert.Len(t, preview.Pairings, 8)
	assert.Equal(t, 17, preview.Pairings[0].SlotA)
}

func TestCommitPairingsSchedulesRound(t *testing.T) {
	f := newFixture(t)
	f.seatAll(t)
	ctx := context.Background()

	preview, err := f.scheduler.PreviewPairings(ctx, f.event.ID, nil)
	require.NoError(t, err)

	start := time.Date(2026, 3, 6, 19, 0, 0, 0, time.UTC)
	ids, err := f.scheduler.CommitPairings(ctx, f.event.ID, preview, start, 15)
	require.NoError(t, err)
	require.Len(t, ids, 9)

	matches, err := f.stores.Matches.GetMatches(ctx, f.event.ID)
	require.NoError(t, err)
	require.Len(t, matches, 9)

	for i, m := range matches {
		assert.Equal(t, ids[i], m.ID)
		assert.Equal(t, i+1, m.MatchOrder)
		assert.Equal(t, 1, m.RoundNumber)
		assert.Equal(t, ladder.OddFirst, m.CyclePhase)
		assert.Equal(t, ladder.MatchUpcoming, m.Status)
		assert.False(t, m.BettingLocked)
		assert.Nil(t, m.WinnerID)
		assert.Equal(t, f.at(m.SlotAPosition), m.CompetitorA)
		assert.Equal(t, f.at(m.SlotBPosition), m.CompetitorB)
		require.NotNil(t, m.ScheduledAt)
		assert.True(t, start.Add(time.Duration(i)*15*time.Minute).Equal(*m.ScheduledAt),
			"match %d scheduled at %s", i+1, m.ScheduledAt)
	}
}

func TestCommitPairingsSnapshotsCompetitors(t *testing.T) {
	f := newFixture(t)
	f.seatAll(t)
	ctx := context.Background()

	ids := f.commitNext(t)

	// later ladder changes do not rewrite committed matches
	_, err := f.ladders.AssignSlot(ctx, f.event.ID, 19, nil)
	require.NoError(t, err)

	m := f.match(t, ids[0])
	assert.Equal(t, f.at(19), m.CompetitorA)
	assert.Equal(t, f.at(18), m.CompetitorB)
}

func TestCommitPairingsRejectsStalePreview(t *testing.T) {
	f := newFixture(t)
	f.seatAll(t)
	ctx := context.Background()

	preview, err := f.scheduler.PreviewPairings(ctx, f.event.ID, nil)
	require.NoError(t, err)

	newcomer, err := f.ladders.CreateCompetitor(ctx, "Late Entry")
	require.NoError(t, err)
	_, err = f.ladders.AssignSlot(ctx, f.event.ID, 19, &newcomer.ID)
	require.NoError(t, err)

	_, err = f.scheduler.CommitPairings(ctx, f.event.ID, preview, time.Now(), 0)
	assert.ErrorIs(t, err, ErrStalePreview)

	matches, err := f.stores.Matches.GetMatches(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCommitPairingsTwice(t *testing.T) {
	f := newFixture(t)
	f.seatAll(t)
	ctx := context.Background()

	preview, err := f.scheduler.PreviewPairings(ctx, f.event.ID, nil)
	require.NoError(t, err)

	_, err = f.scheduler.CommitPairings(ctx, f.event.ID, preview, time.Now(), 0)
	require.NoError(t, err)

	_, err = f.scheduler.CommitPairings(ctx, f.event.ID, preview, time.Now(), 0)
	assert.ErrorIs(t, err, ErrStalePreview)

	matches, err := f.stores.Matches.GetMatches(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 9)
}

func TestCommitPairingsValidation(t *testing.T) {
	f := newFixture(t)
	f.seatAll(t)
	ctx := context.Background()

	preview, err := f.scheduler.PreviewPairings(ctx, f.event.ID, nil)
	require.NoError(t, err)

	_, err = f.scheduler.CommitPairings(ctx, f.event.ID, preview, time.Now(), -5)
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = f.scheduler.CommitPairings(ctx, f.event.ID, nil, time.Now(), 0)
	assert.ErrorIs(t, err, ErrInvalidPairing)

	tampered := *preview
	tampered.Pairings = append([]ladder.Pairing{}, preview.Pairings...)
	tampered.Pairings[0].SlotA, tampered.Pairings[0].SlotB = 20, 19
	_, err = f.scheduler.CommitPairings(ctx, f.event.ID, &tampered, time.Now(), 0)
	assert.ErrorIs(t, err, ErrInvalidPairing)

	doubled := *preview
	doubled.Pairings = []ladder.Pairing{preview.Pairings[0], preview.Pairings[0]}
	_, err = f.scheduler.CommitPairings(ctx, f.event.ID, &doubled, time.Now(), 0)
	assert.ErrorIs(t, err, ErrInvalidPairing)
}

func TestCycleOrderAfterTwoOddRounds(t *testing.T) {
	f := newFixture(t)
	f.seatAll(t)
	ctx := context.Background()

	f.commitNext(t)

	odd := ladder.Odd
	preview, err := f.scheduler.PreviewPairings(ctx, f.event.ID, &odd)
	require.NoError(t, err)
	assert.Equal(t, ladder.OddSecond, preview.Phase)
	_, err = f.scheduler.CommitPairings(ctx, f.event.ID, preview, time.Now(), 0)
	require.NoError(t, err)

	next, err := f.scheduler.PreviewPairings(ctx, f.event.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, next.RoundNumber)
	assert.Equal(t, ladder.Even, next.Phase.Parity())
	assert.Equal(t, ladder.EvenFirst, next.Phase)
}

func TestFullCycle(t *testing.T) {
	f := newFixture(t)
	f.seatAll(t)
	ctx := context.Background()

	want := []ladder.Phase{ladder.OddFirst, ladder.EvenFirst, ladder.OddSecond, ladder.EvenSecond}
	for i, phase := range want {
		status, err := f.scheduler.GetCycleStatus(ctx, f.event.ID)
		require.NoError(t, err)
		assert.Equal(t, phase, status.NextPhase, "round %d", i+1)
		assert.False(t, status.CycleComplete)
		f.commitNext(t)
	}

	status, err := f.scheduler.GetCycleStatus(ctx, f.event.ID)
	require.NoError(t, err)
	assert.True(t, status.CycleComplete)
	assert.Equal(t, 1, status.CyclesCompleted)
	assert.Equal(t, 2, status.OddCount)
	assert.Equal(t, 2, status.EvenCount)

	// a completed cycle never blocks the next round
	preview, err := f.scheduler.PreviewPairings(ctx, f.event.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, preview.RoundNumber)
	assert.Equal(t, ladder.OddFirst, preview.Phase)
}
