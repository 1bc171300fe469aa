package ladder

import (
	"fmt"

	"github.com/google/uuid"
)

// Phase is one of the four stages of a ladder cycle.
type Phase string

const (
	OddFirst   Phase = "odd_first"
	EvenFirst  Phase = "even_first"
	OddSecond  Phase = "odd_second"
	EvenSecond Phase = "even_second"
)

// Parity says which set of adjacent pairs a phase plays.
type Parity string

const (
	Odd  Parity = "odd"
	Even Parity = "even"
)

func (p Phase) Parity() Parity {
	if p == OddFirst || p == OddSecond {
		return Odd
	}
	return Even
}

func (p Phase) Valid() bool {
	switch p {
	case OddFirst, EvenFirst, OddSecond, EvenSecond:
		return true
	}
	return false
}

func ParseParity(s string) (Parity, error) {
	switch Parity(s) {
	case Odd, Even:
		return Parity(s), nil
	}
	return "", fmt.Errorf("unknown phase %q", s)
}

// CycleProgress counts the rounds an event has committed so far.
type CycleProgress struct {
	OddCount  int
	EvenCount int
	// Parity of the most recently created round, empty when there is none
	Last Parity
}

// NextParity picks the parity of the next round. Odd rounds open a cycle,
// one even round must follow, and after that the rounds strictly alternate.
func (c CycleProgress) NextParity() Parity {
	switch {
	case c.OddCount == 0:
		return Odd
	case c.EvenCount == 0:
		return Even
	case c.Last == Odd:
		return Even
	default:
		return Odd
	}
}

// PhaseFor maps a parity to the concrete cycle phase given the rounds already played.
func (c CycleProgress) PhaseFor(parity Parity) Phase {
	if parity == Odd {
		if c.OddCount%2 == 0 {
			return OddFirst
		}
		return OddSecond
	}
	if c.EvenCount%2 == 0 {
		return EvenFirst
	}
	return EvenSecond
}

func (c CycleProgress) NextPhase() Phase {
	return c.PhaseFor(c.NextParity())
}

func (c CycleProgress) CycleComplete() bool {
	return c.OddCount > 0 && c.OddCount == c.EvenCount && c.OddCount%2 == 0 && c.EvenCount%2 == 0
}

func (c CycleProgress) CyclesCompleted() int {
	if c.OddCount < c.EvenCount {
		return c.OddCount / 2
	}
	return c.EvenCount / 2
}

// Status is only informational, a finished cycle never blocks scheduling.
func (c CycleProgress) Status() string {
	if c.CycleComplete() {
		return fmt.Sprintf("cycle %d complete, next round starts a new cycle", c.CyclesCompleted())
	}
	return fmt.Sprintf("cycle %d in progress: %d odd and %d even rounds played", c.CyclesCompleted()+1, c.OddCount, c.EvenCount)
}

// PositionPairs lists the adjacent slot pairs played in a phase, worse position first.
// Odd phases leave positions 1 and 20 out.
func PositionPairs(parity Parity) [][2]int {
	start := BottomPosition
	if parity == Odd {
		start = BottomPosition - 1
	}

	pairs := make([][2]int, 0, Size/2)
	for p := start; p-1 >= TopPosition; p -= 2 {
		pairs = append(pairs, [2]int{p, p - 1})
	}
	return pairs
}

// Pairing is a proposed match between two adjacent slots.
type Pairing struct {
	CompetitorA uuid.UUID `json:"competitor_a_id"`
	CompetitorB uuid.UUID `json:"competitor_b_id"`
	SlotA       int       `json:"slot_a"`
	SlotB       int       `json:"slot_b"`
	RoundNumber int       `json:"round_number"`
}

// ProposePairings builds the pairings of a phase over the given ladder.
// Pairs with a vacant slot are skipped.
func ProposePairings(slots []Slot, parity Parity, roundNumber int) []Pairing {
	byPosition := make(map[int]Slot, len(slots))
	for _, s := range slots {
		byPosition[s.Position] = s
	}

	var pairings []Pairing
	for _, pair := range PositionPairs(parity) {
		a, okA := byPosition[pair[0]]
		b, okB := byPosition[pair[1]]
		if !okA || !okB || a.IsVacant() || b.IsVacant() {
			continue
		}
		pairings = append(pairings, Pairing{
			CompetitorA: *a.OccupantID,
			CompetitorB: *b.OccupantID,
			SlotA:       a.Position,
			SlotB:       b.Position,
			RoundNumber: roundNumber,
		})
	}
	return pairings
}

// IsPhasePair reports whether two positions are one of the phase's pairs, in either order.
func IsPhasePair(parity Parity, slotA, slotB int) bool {
	for _, pair := range PositionPairs(parity) {
		if (pair[0] == slotA && pair[1] == slotB) || (pair[0] == slotB && pair[1] == slotA) {
			return true
		}
	}
	return false
}
