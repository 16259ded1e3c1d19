package finance

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for finance entries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `id, project_id, external_ref, kind, amount_cents,
	description, occurred_at, created_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	var kind string
	err := row.Scan(&e.ID, &e.ProjectID, &e.ExternalRef, &kind, &e.AmountCents,
		&e.Description, &e.OccurredAt, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Kind = EntryKind(kind)
	return &e, nil
}

// Insert stores an imported entry. Entries already imported, identified by
// external ref, are skipped. Returns whether a row was written.
func (r *Repository) Insert(ctx context.Context, e *Entry) (bool, error) {
	query := `INSERT INTO finance_entries
		(project_id, external_ref, kind, amount_cents, description, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_ref) DO NOTHING`
	tag, err := r.pool.Exec(ctx, query,
		e.ProjectID, e.ExternalRef, string(e.Kind), e.AmountCents, e.Description, e.OccurredAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// LastOccurredAt returns the newest imported movement date. The zero time
// means nothing has been imported yet.
func (r *Repository) LastOccurredAt(ctx context.Context) (time.Time, error) {
	var last *time.Time
	err := r.pool.QueryRow(ctx, `SELECT max(occurred_at) FROM finance_entries`).Scan(&last)
	if err != nil {
		return time.Time{}, err
	}
	if last == nil {
		return time.Time{}, nil
	}
	return *last, nil
}

// Recent lists the latest imported entries.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM finance_entries
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Summary aggregates income and expense across all entries.
func (r *Repository) Summary(ctx context.Context) (Summary, error) {
	query := `SELECT
		coalesce(sum(amount_cents) FILTER (WHERE kind = 'income'), 0),
		coalesce(sum(amount_cents) FILTER (WHERE kind = 'expense'), 0)
		FROM finance_entries`
	var s Summary
	if err := r.pool.QueryRow(ctx, query).Scan(&s.IncomeCents, &s.ExpenseCents); err != nil {
		return Summary{}, err
	}
	s.BalanceCents = s.IncomeCents - s.ExpenseCents
	return s, nil
}

// SummaryByProject aggregates income and expense for a single project.
func (r *Repository) SummaryByProject(ctx context.Context, projectID int64) (Summary, error) {
	query := `SELECT
		coalesce(sum(amount_cents) FILTER (WHERE kind = 'income'), 0),
		coalesce(sum(amount_cents) FILTER (WHERE kind = 'expense'), 0)
		FROM finance_entries WHERE project_id = $1`
	var s Summary
	if err := r.pool.QueryRow(ctx, query, projectID).Scan(&s.IncomeCents, &s.ExpenseCents); err != nil {
		return Summary{}, err
	}
	s.BalanceCents = s.IncomeCents - s.ExpenseCents
	return s, nil
}
