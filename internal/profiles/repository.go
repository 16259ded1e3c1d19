package profiles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vivenda-app/vivenda/internal/rbac"
	"github.com/vivenda-app/vivenda/internal/shared"
)

// Repository provides PostgreSQL backed persistence for profiles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByUserID fetches the profile for a user account.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Profile, error) {
	const query = `SELECT id, user_id, name, role, avatar_url, created_at, updated_at
		FROM profiles WHERE user_id = $1`
	var p Profile
	var role string
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.Name, &role, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	p.Role = rbac.Role(role)
	return &p, nil
}

// Upsert creates or updates the profile for a user account.
func (r *Repository) Upsert(ctx context.Context, p *Profile) error {
	const query = `INSERT INTO profiles (user_id, name, role, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (user_id) DO UPDATE
		SET name = EXCLUDED.name, role = EXCLUDED.role, avatar_url = EXCLUDED.avatar_url, updated_at = now()
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, p.UserID, p.Name, string(p.Role), p.AvatarURL).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// SetRole changes the role stored on a user's profile.
func (r *Repository) SetRole(ctx context.Context, userID int64, role rbac.Role) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET role = $2, updated_at = now() WHERE user_id = $1`,
		userID, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
