package finance

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RepositoryPort defines data access methods for finance entries.
type RepositoryPort interface {
	Insert(ctx context.Context, e *Entry) (bool, error)
	LastOccurredAt(ctx context.Context) (time.Time, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Summary(ctx context.Context) (Summary, error)
	SummaryByProject(ctx context.Context, projectID int64) (Summary, error)
}

// Service imports movements from the external system and serves summaries.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	client ExternalClient
}

// NewService builds a Service instance.
func NewService(logger *slog.Logger, repo RepositoryPort, client ExternalClient) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, repo: repo, client: client}
}

// Sync runs one import pass. The cursor is the newest movement date already
// stored; the upstream is asked only for movements after it. A single attempt
// is made, upstream failures are returned without partial rollback.
func (s *Service) Sync(ctx context.Context) (SyncResult, error) {
	cursor, err := s.repo.LastOccurredAt(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("load sync cursor: %w", err)
	}

	external, err := s.client.EntriesSince(ctx, cursor)
	if err != nil {
		s.logger.Warn("financial sync failed", slog.Any("error", err))
		return SyncResult{}, fmt.Errorf("fetch external entries: %w", err)
	}

	result := SyncResult{Fetched: len(external), Cursor: cursor}
	for _, ext := range external {
		if !ValidKind(ext.Kind) {
			s.logger.Warn("skipping entry with unknown kind",
				slog.String("ref", ext.Ref), slog.String("kind", string(ext.Kind)))
			continue
		}
		entry := &Entry{
			ProjectID:   ext.ProjectID,
			ExternalRef: ext.Ref,
			Kind:        ext.Kind,
			AmountCents: ext.AmountCents,
			Description: ext.Description,
			OccurredAt:  ext.OccurredAt,
		}
		inserted, err := s.repo.Insert(ctx, entry)
		if err != nil {
			return result, fmt.Errorf("store entry %s: %w", ext.Ref, err)
		}
		if inserted {
			result.Imported++
			if ext.OccurredAt.After(result.Cursor) {
				result.Cursor = ext.OccurredAt
			}
		}
	}

	s.logger.Info("financial sync finished",
		slog.Int("fetched", result.Fetched), slog.Int("imported", result.Imported))
	return result, nil
}

// Overview returns the overall summary plus the latest entries.
func (s *Service) Overview(ctx context.Context, limit int) (Summary, []Entry, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return Summary{}, nil, err
	}
	entries, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return Summary{}, nil, err
	}
	return summary, entries, nil
}

// ProjectSummary returns the summary for one project.
func (s *Service) ProjectSummary(ctx context.Context, projectID int64) (Summary, error) {
	return s.repo.SummaryByProject(ctx, projectID)
}

// Balance returns the overall balance in cents.
func (s *Service) Balance(ctx context.Context) (int64, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return 0, err
	}
	return summary.BalanceCents, nil
}
