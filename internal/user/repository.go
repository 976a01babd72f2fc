package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/hotel-booking-backend/internal/db"
)

// Repository defines methods for accessing user data from storage.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// UpdatePoints adds delta to the balance inside the caller's transaction.
	UpdatePoints(ctx context.Context, id string, delta int64) error
}

type pgxUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgxRepository creates a new Repository implementation using pgxpool.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxUserRepository{pool: pool}
}

var userColumns = []string{"id", "email", "full_name", "phone", "role", "points_balance", "created_at"}

func (r *pgxUserRepository) get(ctx context.Context, where squirrel.Sqlizer) (*User, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(userColumns...).
		From("public.users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get user query failed: %w", err)
	}

	var u User
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.FullName, &u.Phone, &u.Role, &u.PointsBalance, &u.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user failed: %w", err)
	}
	return &u, nil
}

func (r *pgxUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.get(ctx, squirrel.Eq{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *pgxUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.get(ctx, squirrel.Eq{"id": id})
}

func (r *pgxUserRepository) UpdatePoints(ctx context.Context, id string, delta int64) error {
	const query = `
		UPDATE public.users
		SET points_balance = points_balance + $1
		WHERE id = $2
	`

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("update points failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
