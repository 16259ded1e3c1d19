package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vivenda-app/vivenda/internal/projects"
)

// ProjectStats is the slice of project data the dashboard needs.
type ProjectStats interface {
	CountByStatus(ctx context.Context) ([]projects.StatusCount, error)
	TotalBudget(ctx context.Context) (int64, error)
	MonthlyProgress(ctx context.Context) ([]projects.ProgressPoint, error)
}

// BalanceSource reports the overall financial balance.
type BalanceSource interface {
	Balance(ctx context.Context) (int64, error)
}

// PostCounter counts recently published posts.
type PostCounter interface {
	RecentCount(ctx context.Context, window time.Duration) (int, error)
}

// Summary is the KPI block shown at the top of the dashboard.
type Summary struct {
	ActiveProjects   int
	DoneProjects     int
	TotalBudgetCents int64
	BalanceCents     int64
	RecentPosts      int
}

// Data carries everything the dashboard page renders.
type Data struct {
	Summary      Summary
	StatusCounts []projects.StatusCount
	Progress     []projects.ProgressPoint
}

// Service aggregates the dashboard numbers from the domain services.
type Service struct {
	projects ProjectStats
	finance  BalanceSource
	posts    PostCounter
}

// NewService builds a Service instance.
func NewService(projects ProjectStats, finance BalanceSource, posts PostCounter) *Service {
	return &Service{projects: projects, finance: finance, posts: posts}
}

// Load gathers all dashboard data, fanning the queries out concurrently.
func (s *Service) Load(ctx context.Context) (Data, error) {
	var data Data

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.projects.CountByStatus(ctx)
		if err != nil {
			return err
		}
		data.StatusCounts = counts
		for _, c := range counts {
			switch c.Status {
			case projects.StatusActive:
				data.Summary.ActiveProjects = c.Count
			case projects.StatusDone:
				data.Summary.DoneProjects = c.Count
			}
		}
		return nil
	})
	g.Go(func() error {
		total, err := s.projects.TotalBudget(ctx)
		if err != nil {
			return err
		}
		data.Summary.TotalBudgetCents = total
		return nil
	})
	g.Go(func() error {
		points, err := s.projects.MonthlyProgress(ctx)
		if err != nil {
			return err
		}
		data.Progress = points
		return nil
	})
	g.Go(func() error {
		balance, err := s.finance.Balance(ctx)
		if err != nil {
			return err
		}
		data.Summary.BalanceCents = balance
		return nil
	})
	g.Go(func() error {
		n, err := s.posts.RecentCount(ctx, 7*24*time.Hour)
		if err != nil {
			return err
		}
		data.Summary.RecentPosts = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return Data{}, err
	}
	return data, nil
}
