package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vivenda-app/vivenda/internal/platform/db"
	"github.com/vivenda-app/vivenda/internal/platform/httpx"
	"github.com/vivenda-app/vivenda/internal/rbac"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for the users admin.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all accounts with their profile role, newest first.
func (r *Repository) List(ctx context.Context) ([]Account, error) {
	const query = `SELECT u.id, u.email, coalesce(p.name, ''), coalesce(p.role, ''), u.is_active, u.created_at
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		ORDER BY u.created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		var role string
		if err := rows.Scan(&a.ID, &a.Email, &a.Name, &role, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Role = rbac.Role(role)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Create inserts the account and its profile in one transaction.
func (r *Repository) Create(ctx context.Context, email, passwordHash, name string, role rbac.Role) (*Account, error) {
	var account Account
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO users (email, password_hash, is_active, email_confirmed)
			VALUES ($1, $2, true, true)
			RETURNING id, created_at`,
			email, passwordHash,
		).Scan(&account.ID, &account.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO profiles (user_id, name, role) VALUES ($1, $2, $3)`,
			account.ID, name, string(role))
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, httpx.ErrDuplicate
		}
		return nil, err
	}
	account.Email = email
	account.Name = name
	account.Role = role
	account.IsActive = true
	return &account, nil
}

// SetRole changes the profile role of an account.
func (r *Repository) SetRole(ctx context.Context, userID int64, role rbac.Role) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET role = $2, updated_at = now() WHERE user_id = $1`,
		userID, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
