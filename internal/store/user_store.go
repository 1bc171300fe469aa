package store

import (
	"context"

	users "github.com/AdamBeresnev/op-ladder/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	getUserQuery    = "SELECT * FROM users WHERE id = ?"
	createUserQuery = `
		INSERT INTO users (id, username, points, created_at) VALUES
		(:id, :username, :points, :created_at)
	`
	debitPointsQuery = `
		UPDATE users SET
		points = points - ?
		WHERE id = ? AND points >= ?
	`
	creditPointsQuery = "UPDATE users SET points = points + ? WHERE id = ?"
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserQuery, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) GetUserTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*users.User, error) {
	var user users.User
	err := tx.GetContext(ctx, &user, getUserQuery, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, createUserQuery, user)
	return translate(err)
}

// DebitPoints takes amount from the balance only if the balance covers it.
// It reports false when nothing was debited.
func (s *UserStore) DebitPoints(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount int64) (bool, error) {
	res, err := tx.ExecContext(ctx, debitPointsQuery, amount, id, amount)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (s *UserStore) CreditPoints(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount int64) (bool, error) {
	res, err := tx.ExecContext(ctx, creditPointsQuery, amount, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
