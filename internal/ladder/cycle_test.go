package ladder

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullLadder(t *testing.T) ([]Slot, []uuid.UUID) {
	t.Helper()
	eventID := uuid.New()
	slots := EmptyLadder(eventID)
	ids := make([]uuid.UUID, len(slots))
	for i := range slots {
		id := uuid.New()
		ids[i] = id
		slots[i].OccupantID = &id
	}
	return slots, ids
}

func TestPositionPairs(t *testing.T) {
	odd := PositionPairs(Odd)
	require.Len(t, odd, 9)
	assert.Equal(t, [2]int{19, 18}, odd[0])
	assert.Equal(t, [2]int{3, 2}, odd[len(odd)-1])
	for _, pair := range odd {
		assert.NotContains(t, pair, 1)
		assert.NotContains(t, pair, 20)
		assert.Equal(t, pair[0]-1, pair[1])
	}

	even := PositionPairs(Even)
	require.Len(t, even, 10)
	assert.Equal(t, [2]int{20, 19}, even[0])
	assert.Equal(t, [2]int{2, 1}, even[len(even)-1])
}

func TestProposePairingsFullLadder(t *testing.T) {
	slots, ids := fullLadder(t)

	odd := ProposePairings(slots, Odd, 1)
	require.Len(t, odd, 9)
	for _, p := range odd {
		assert.NotEqual(t, 1, p.SlotA)
		assert.NotEqual(t, 1, p.SlotB)
		assert.NotEqual(t, 20, p.SlotA)
		assert.NotEqual(t, 20, p.SlotB)
		assert.Equal(t, ids[p.SlotA-1], p.CompetitorA)
		assert.Equal(t, ids[p.SlotB-1], p.CompetitorB)
		assert.Equal(t, 1, p.RoundNumber)
	}

	even := ProposePairings(slots, Even, 2)
	require.Len(t, even, 10)
	seen := map[int]bool{}
	for _, p := range even {
		seen[p.SlotA], seen[p.SlotB] = true, true
	}
	assert.Len(t, seen, 20)
}

func TestProposePairingsSkipsVacantSlots(t *testing.T) {
	slots, _ := fullLadder(t)
	slots[17].OccupantID = nil // position 18
	slots[0].OccupantID = nil  // position 1

	odd := ProposePairings(slots, Odd, 1)
	assert.Len(t, odd, 8)
	for _, p := range odd {
		assert.NotEqual(t, 19, p.SlotA)
	}

	even := ProposePairings(slots, Even, 1)
	assert.Len(t, even, 8)

	assert.Empty(t, ProposePairings(EmptyLadder(uuid.New()), Odd, 1))
}

func TestNextParity(t *testing.T) {
	cases := []struct {
		name     string
		progress CycleProgress
		want     Parity
		phase    Phase
	}{
		{"fresh event opens with odd", CycleProgress{}, Odd, OddFirst},
		{"even follows the first odd", CycleProgress{OddCount: 1, Last: Odd}, Even, EvenFirst},
		{"two odds still need an even", CycleProgress{OddCount: 2, Last: Odd}, Even, EvenFirst},
		{"alternate after even", CycleProgress{OddCount: 1, EvenCount: 1, Last: Even}, Odd, OddSecond},
		{"alternate after odd", CycleProgress{OddCount: 2, EvenCount: 1, Last: Odd}, Even, EvenSecond},
		{"new cycle after a full one", CycleProgress{OddCount: 2, EvenCount: 2, Last: Even}, Odd, OddFirst},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.progress.NextParity())
			assert.Equal(t, tc.phase, tc.progress.NextPhase())
		})
	}
}

func TestCycleComplete(t *testing.T) {
	assert.False(t, CycleProgress{}.CycleComplete())
	assert.False(t, CycleProgress{OddCount: 1, EvenCount: 1}.CycleComplete())
	assert.False(t, CycleProgress{OddCount: 2, EvenCount: 1}.CycleComplete())
	assert.True(t, CycleProgress{OddCount: 2, EvenCount: 2}.CycleComplete())
	assert.True(t, CycleProgress{OddCount: 4, EvenCount: 4}.CycleComplete())

	done := CycleProgress{OddCount: 2, EvenCount: 2, Last: Even}
	assert.Equal(t, 1, done.CyclesCompleted())
	assert.Contains(t, done.Status(), "cycle 1 complete")
	assert.Contains(t, CycleProgress{OddCount: 1}.Status(), "in progress")
}

func TestPhaseParity(t *testing.T) {
	assert.Equal(t, Odd, OddFirst.Parity())
	assert.Equal(t, Odd, OddSecond.Parity())
	assert.Equal(t, Even, EvenFirst.Parity())
	assert.Equal(t, Even, EvenSecond.Parity())
	assert.False(t, Phase("weekly").Valid())

	_, err := ParseParity("sideways")
	assert.Error(t, err)
}

func TestIsPhasePair(t *testing.T) {
	assert.True(t, IsPhasePair(Odd, 19, 18))
	assert.True(t, IsPhasePair(Odd, 18, 19))
	assert.False(t, IsPhasePair(Odd, 20, 19))
	assert.True(t, IsPhasePair(Even, 2, 1))
	assert.False(t, IsPhasePair(Even, 3, 2))
}
