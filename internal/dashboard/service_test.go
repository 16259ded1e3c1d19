package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivenda-app/vivenda/internal/projects"
)

type stubStats struct {
	counts   []projects.StatusCount
	budget   int64
	progress []projects.ProgressPoint
	err      error
}

func (s stubStats) CountByStatus(context.Context) ([]projects.StatusCount, error) {
	return s.counts, s.err
}

func (s stubStats) TotalBudget(context.Context) (int64, error) {
	return s.budget, s.err
}

func (s stubStats) MonthlyProgress(context.Context) ([]projects.ProgressPoint, error) {
	return s.progress, s.err
}

type stubBalance struct {
	balance int64
	err     error
}

func (s stubBalance) Balance(context.Context) (int64, error) {
	return s.balance, s.err
}

type stubPosts struct {
	count int
}

func (s stubPosts) RecentCount(context.Context, time.Duration) (int, error) {
	return s.count, nil
}

func TestLoadAggregatesSummary(t *testing.T) {
	svc := NewService(stubStats{
		counts: []projects.StatusCount{
			{Status: projects.StatusActive, Count: 4},
			{Status: projects.StatusDone, Count: 2},
			{Status: projects.StatusPaused, Count: 1},
		},
		budget: 9_000_00,
		progress: []projects.ProgressPoint{
			{Month: "02/2026", Average: 40},
			{Month: "03/2026", Average: 55},
		},
	}, stubBalance{balance: 1_250_00}, stubPosts{count: 3})

	data, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, data.Summary.ActiveProjects)
	assert.Equal(t, 2, data.Summary.DoneProjects)
	assert.Equal(t, int64(9_000_00), data.Summary.TotalBudgetCents)
	assert.Equal(t, int64(1_250_00), data.Summary.BalanceCents)
	assert.Equal(t, 3, data.Summary.RecentPosts)
	assert.Len(t, data.Progress, 2)
}

func TestLoadPropagatesErrors(t *testing.T) {
	svc := NewService(stubStats{}, stubBalance{err: errors.New("redis down")}, stubPosts{})

	_, err := svc.Load(context.Background())
	require.Error(t, err)
}
