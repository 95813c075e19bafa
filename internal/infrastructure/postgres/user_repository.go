package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/collabmarket/settlement-hub/internal/domain/user"
)

// UserDirectory implements user.Directory.
type UserDirectory struct {
	pool *pgxpool.Pool
}

func NewUserDirectory(pool *pgxpool.Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

func (r *UserDirectory) GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	var u user.User
	var account *string
	err := r.pool.QueryRow(ctx, `SELECT id, name, role, stripe_account_id FROM users WHERE id=$1`, userID).
		Scan(&u.ID, &u.Name, &u.Role, &account)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if account != nil {
		u.StripeAccountID = *account
	}
	return &u, nil
}
