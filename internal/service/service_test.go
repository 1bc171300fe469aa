package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	ladderdb "github.com/AdamBeresnev/op-ladder/internal/db"
	"github.com/AdamBeresnev/op-ladder/internal/events"
	"github.com/AdamBeresnev/op-ladder/internal/ladder"
	"github.com/AdamBeresnev/op-ladder/internal/market"
	"github.com/AdamBeresnev/op-ladder/internal/store"
	users "github.com/AdamBeresnev/op-ladder/internal/user"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	// every connection to :memory: is its own database
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	t.Cleanup(func() { database.Close() })
	return database
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	db        *sqlx.DB
	stores    *store.Stores
	ladders   *LadderService
	scheduler *SchedulerService
	market    *MarketService
	matches   *MatchService
	overview  *EventService
	published *recordingPublisher

	event *ladder.Event
	// seated[i] holds position i+1 after seatAll
	seated []uuid.UUID
}

// setupFileDB opens a migrated database file the way the server does, with
// a real connection pool so concurrent transactions contend for the write lock.
func setupFileDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := ladderdb.InitDB(filepath.Join(t.TempDir(), "ladder.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, ladderdb.RunMigrations(database.DB, "file://../../migrations"))
	return database
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, setupTestDB(t))
}

func newFixtureOn(t *testing.T, db *sqlx.DB) *fixture {
	t.Helper()
	stores := store.New(db)
	pub := &recordingPublisher{}

	ladders := NewLadderService(db, stores)
	scheduler := NewSchedulerService(db, stores)
	marketService := NewMarketService(db, stores, pub, market.DefaultNeutralOdds)

	f := &fixture{
		db:        db,
		stores:    stores,
		ladders:   ladders,
		scheduler: scheduler,
		market:    marketService,
		matches:   NewMatchService(db, stores, ladders, marketService, pub),
		overview:  NewEventService(db, stores, scheduler, marketService),
		published: pub,
	}

	event, err := ladders.CreateEvent(context.Background(), "Friday Night Ladder")
	require.NoError(t, err)
	f.event = event
	return f
}

func (f *fixture) seatAll(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	f.seated = make([]uuid.UUID, ladder.Size)
	for p := ladder.TopPosition; p <= ladder.BottomPosition; p++ {
		c, err := f.ladders.CreateCompetitor(ctx, fmt.Sprintf("Player %02d", p))
		require.NoError(t, err)
		_, err = f.ladders.AssignSlot(ctx, f.event.ID, p, &c.ID)
		require.NoError(t, err)
		f.seated[p-1] = c.ID
	}
}

func (f *fixture) at(position int) uuid.UUID {
	return f.seated[position-1]
}

func (f *fixture) user(t *testing.T, points int64) *users.User {
	t.Helper()
	u, err := f.ladders.CreateUser(context.Background(), "bettor-"+uuid.NewString()[:8], points)
	require.NoError(t, err)
	return u
}

func (f *fixture) balance(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	u, err := f.stores.Users.GetUser(context.Background(), userID)
	require.NoError(t, err)
	return u.Points
}

// commitNext previews and commits the next round of the cycle.
func (f *fixture) commitNext(t *testing.T) []uuid.UUID {
	t.Helper()
	ctx := context.Background()
	preview, err := f.scheduler.PreviewPairings(ctx, f.event.ID, nil)
	require.NoError(t, err)
	ids, err := f.scheduler.CommitPairings(ctx, f.event.ID, preview, time.Now(), 0)
	require.NoError(t, err)
	return ids
}

func (f *fixture) match(t *testing.T, id uuid.UUID) *ladder.Match {
	t.Helper()
	m, err := f.matches.GetMatch(context.Background(), id)
	require.NoError(t, err)
	return m
}

func (f *fixture) occupant(t *testing.T, position int) uuid.UUID {
	t.Helper()
	slot, err := f.ladders.GetSlot(context.Background(), f.event.ID, position)
	require.NoError(t, err)
	require.NotNil(t, slot.OccupantID, "slot %d is vacant", position)
	return *slot.OccupantID
}
