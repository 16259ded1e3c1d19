package posts

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for posts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns the latest posts with the author's display name.
func (r *Repository) List(ctx context.Context, limit int) ([]Post, error) {
	query := `SELECT p.id, p.author_id, coalesce(pr.name, ''), p.title, p.body, p.published_at
		FROM posts p
		LEFT JOIN profiles pr ON pr.user_id = p.author_id
		ORDER BY p.published_at DESC
		LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.AuthorName, &p.Title, &p.Body, &p.PublishedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create stores a new post.
func (r *Repository) Create(ctx context.Context, p *Post) error {
	query := `INSERT INTO posts (author_id, title, body, published_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	return r.pool.QueryRow(ctx, query, p.AuthorID, p.Title, p.Body, p.PublishedAt).Scan(&p.ID)
}

// CountSince counts posts published after the given instant.
func (r *Repository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM posts WHERE published_at >= $1`, since).Scan(&n)
	return n, err
}
