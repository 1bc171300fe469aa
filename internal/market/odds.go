// Package market holds the pari-mutuel arithmetic: pool totals, odds and payouts.
// Everything here is a pure function over a match's bets.
package market

import (
	"github.com/AdamBeresnev/op-ladder/internal/ladder"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OddsPlaces is the precision odds are shown with and frozen at when betting locks.
const OddsPlaces = 2

var (
	DefaultNeutralOdds = decimal.NewFromInt(2)

	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

type Pool struct {
	TotalA int64 `json:"total_a"`
	TotalB int64 `json:"total_b"`
}

func (p Pool) Total() int64 {
	return p.TotalA + p.TotalB
}

// PoolFor sums the stakes on each side of a match.
func PoolFor(m *ladder.Match, bets []ladder.Bet) Pool {
	var p Pool
	for _, b := range bets {
		switch b.CompetitorID {
		case m.CompetitorA:
			p.TotalA += b.Amount
		case m.CompetitorB:
			p.TotalB += b.Amount
		}
	}
	return p
}

type Odds struct {
	OddsA     decimal.Decimal `json:"odds_a"`
	OddsB     decimal.Decimal `json:"odds_b"`
	TotalA    int64           `json:"total_a"`
	TotalB    int64           `json:"total_b"`
	TotalPool int64           `json:"total_pool"`
	PctA      decimal.Decimal `json:"pct_a"`
	PctB      decimal.Decimal `json:"pct_b"`
	Locked    bool            `json:"locked"`
}

// SideOdds is max(1, pool/side) rounded for display, or neutral when nobody backed the side.
func SideOdds(side, total int64, neutral decimal.Decimal) decimal.Decimal {
	if side <= 0 {
		return neutral
	}
	o := decimal.NewFromInt(total).Div(decimal.NewFromInt(side))
	return decimal.Max(one, o).Round(OddsPlaces)
}

// Compute derives the live odds of a pool. Percentages always add up to 100
// when there is at least one bet and are both zero otherwise.
func Compute(p Pool, neutral decimal.Decimal) Odds {
	total := p.Total()
	o := Odds{
		OddsA:     SideOdds(p.TotalA, total, neutral),
		OddsB:     SideOdds(p.TotalB, total, neutral),
		TotalA:    p.TotalA,
		TotalB:    p.TotalB,
		TotalPool: total,
		PctA:      decimal.Zero,
		PctB:      decimal.Zero,
	}
	if total > 0 {
		o.PctA = hundred.Mul(decimal.NewFromInt(p.TotalA)).Div(decimal.NewFromInt(total)).Round(OddsPlaces)
		o.PctB = hundred.Sub(o.PctA)
	}
	return o
}

// OddsFor returns the frozen odds of the given side of a locked match.
func OddsFor(m *ladder.Match, competitorID uuid.UUID) (decimal.Decimal, bool) {
	switch competitorID {
	case m.CompetitorA:
		return m.OddsAAtLock.Decimal, m.OddsAAtLock.Valid
	case m.CompetitorB:
		return m.OddsBAtLock.Decimal, m.OddsBAtLock.Valid
	}
	return decimal.Zero, false
}

// Payout is round(amount * odds), halves rounded away from zero.
func Payout(amount int64, odds decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(odds).Round(0).IntPart()
}

// Payouts computes what each winning bet pays at the frozen odds.
func Payouts(bets []ladder.Bet, winnerID uuid.UUID, odds decimal.Decimal) map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64)
	for _, b := range bets {
		if b.CompetitorID != winnerID {
			continue
		}
		out[b.ID] = Payout(b.Amount, odds)
	}
	return out
}
