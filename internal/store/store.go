package store

import "github.com/jmoiron/sqlx"

// Stores bundles every store over one database handle.
type Stores struct {
	Events  *EventStore
	Ladder  *LadderStore
	Matches *MatchStore
	Bets    *BetStore
	Users   *UserStore
}

func New(db *sqlx.DB) *Stores {
	return &Stores{
		Events:  NewEventStore(db),
		Ladder:  NewLadderStore(db),
		Matches: NewMatchStore(db),
		Bets:    NewBetStore(db),
		Users:   NewUserStore(db),
	}
}
