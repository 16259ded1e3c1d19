package projects

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vivenda-app/vivenda/internal/platform/httpx"
	"github.com/vivenda-app/vivenda/internal/shared"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for projects.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const projectColumns = `id, code, name, description, status, city, address,
	latitude, longitude, budget_cents, progress, created_at, updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	var status string
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &status, &p.City, &p.Address,
		&p.Latitude, &p.Longitude, &p.BudgetCents, &p.Progress, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = Status(status)
	return &p, nil
}

// List returns a page of projects, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status Status, page shared.Pagination) ([]Project, int, error) {
	var total int
	countQuery := `SELECT count(*) FROM projects WHERE ($1 = '' OR status = $1)`
	if err := r.pool.QueryRow(ctx, countQuery, string(status)).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + projectColumns + ` FROM projects
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, string(status), page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// Get fetches a project by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// Create inserts a new project. Duplicate codes map to httpx.ErrDuplicate.
func (r *Repository) Create(ctx context.Context, p *Project) error {
	const query = `INSERT INTO projects
		(code, name, description, status, city, address, latitude, longitude, budget_cents, progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		p.Code, p.Name, p.Description, string(p.Status), p.City, p.Address,
		p.Latitude, p.Longitude, p.BudgetCents, p.Progress,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return httpx.ErrDuplicate
		}
		return err
	}
	return nil
}

// Update rewrites a project's mutable fields.
func (r *Repository) Update(ctx context.Context, p *Project) error {
	const query = `UPDATE projects SET
		code = $2, name = $3, description = $4, status = $5, city = $6, address = $7,
		latitude = $8, longitude = $9, budget_cents = $10, progress = $11, updated_at = now()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query,
		p.ID, p.Code, p.Name, p.Description, string(p.Status), p.City, p.Address,
		p.Latitude, p.Longitude, p.BudgetCents, p.Progress)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return httpx.ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// CountByStatus aggregates project counts for the dashboard.
func (r *Repository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM projects GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var c StatusCount
		var status string
		if err := rows.Scan(&status, &c.Count); err != nil {
			return nil, err
		}
		c.Status = Status(status)
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// TotalBudget sums the budget of all projects.
func (r *Repository) TotalBudget(ctx context.Context) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT coalesce(sum(budget_cents), 0) FROM projects`).Scan(&total)
	return total, err
}

// AverageProgress returns the mean progress of projects that are not done.
func (r *Repository) AverageProgress(ctx context.Context) (float64, error) {
	var avg float64
	err := r.pool.QueryRow(ctx,
		`SELECT coalesce(avg(progress), 0) FROM projects WHERE status <> 'done'`).Scan(&avg)
	return avg, err
}

// MonthlyProgress returns the average progress of ongoing projects per month
// over the last six months, oldest first.
func (r *Repository) MonthlyProgress(ctx context.Context) ([]ProgressPoint, error) {
	const query = `SELECT to_char(date_trunc('month', updated_at), 'MM/YYYY'), avg(progress)
		FROM projects
		WHERE updated_at >= date_trunc('month', now()) - interval '5 months'
		GROUP BY date_trunc('month', updated_at)
		ORDER BY date_trunc('month', updated_at)`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []ProgressPoint
	for rows.Next() {
		var p ProgressPoint
		if err := rows.Scan(&p.Month, &p.Average); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Located returns projects that carry coordinates, for the map view.
func (r *Repository) Located(ctx context.Context) ([]Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE latitude IS NOT NULL AND longitude IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}
