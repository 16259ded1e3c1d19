package projects

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivenda-app/vivenda/internal/platform/httpx"
	"github.com/vivenda-app/vivenda/internal/shared"
)

type mockRepository struct {
	projects map[int64]*Project
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{projects: map[int64]*Project{}, nextID: 1}
}

func (m *mockRepository) List(_ context.Context, status Status, page shared.Pagination) ([]Project, int, error) {
	var out []Project
	for _, p := range m.projects {
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *mockRepository) Create(_ context.Context, p *Project) error {
	for _, existing := range m.projects {
		if existing.Code == p.Code {
			return httpx.ErrDuplicate
		}
	}
	p.ID = m.nextID
	m.nextID++
	clone := *p
	m.projects[p.ID] = &clone
	return nil
}

func (m *mockRepository) Update(_ context.Context, p *Project) error {
	if _, ok := m.projects[p.ID]; !ok {
		return httpx.ErrNotFound
	}
	clone := *p
	m.projects[p.ID] = &clone
	return nil
}

func (m *mockRepository) CountByStatus(_ context.Context) ([]StatusCount, error) {
	counts := map[Status]int{}
	for _, p := range m.projects {
		counts[p.Status]++
	}
	var out []StatusCount
	for status, n := range counts {
		out = append(out, StatusCount{Status: status, Count: n})
	}
	return out, nil
}

func (m *mockRepository) TotalBudget(_ context.Context) (int64, error) {
	var total int64
	for _, p := range m.projects {
		total += p.BudgetCents
	}
	return total, nil
}

func (m *mockRepository) AverageProgress(_ context.Context) (float64, error) {
	if len(m.projects) == 0 {
		return 0, nil
	}
	var sum int
	for _, p := range m.projects {
		sum += p.Progress
	}
	return float64(sum) / float64(len(m.projects)), nil
}

func (m *mockRepository) Located(_ context.Context) ([]Project, error) {
	var out []Project
	for _, p := range m.projects {
		if p.Latitude != nil && p.Longitude != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func validInput() Input {
	return Input{
		Code:        "VIV-001",
		Name:        "Residencial Aurora",
		Status:      StatusActive,
		City:        "Fortaleza",
		BudgetCents: 120_000_00,
		Progress:    35,
	}
}

func TestCreateProject(t *testing.T) {
	svc := NewService(newMockRepository())

	p, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, StatusActive, p.Status)
}

func TestCreateProjectDefaultsStatus(t *testing.T) {
	svc := NewService(newMockRepository())

	in := validInput()
	in.Status = ""
	p, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, StatusPlanning, p.Status)
}

func TestCreateProjectValidation(t *testing.T) {
	svc := NewService(newMockRepository())

	cases := map[string]func(*Input){
		"missing code":     func(in *Input) { in.Code = "" },
		"short name":       func(in *Input) { in.Name = "ab" },
		"unknown status":   func(in *Input) { in.Status = "archived" },
		"negative budget":  func(in *Input) { in.BudgetCents = -1 },
		"progress too big": func(in *Input) { in.Progress = 101 },
		"orphan latitude":  func(in *Input) { lat := -3.73; in.Latitude = &lat },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := svc.Create(context.Background(), in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, httpx.ErrValidation))
		})
	}
}

func TestCreateProjectDuplicateCode(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validInput())
	assert.True(t, errors.Is(err, httpx.ErrDuplicate))
}

func TestUpdateProject(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	in := validInput()
	in.Name = "Residencial Aurora II"
	in.Progress = 80
	updated, err := svc.Update(context.Background(), created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Residencial Aurora II", updated.Name)
	assert.Equal(t, 80, updated.Progress)

	stored, err := repo.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, stored.Progress)
}

func TestUpdateProjectNotFound(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Update(context.Background(), 999, validInput())
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestListProjectsRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newMockRepository())

	_, _, err := svc.List(context.Background(), "archived", 1, 20)
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestListProjectsFiltersByStatus(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	in := validInput()
	in.Code = "VIV-002"
	in.Status = StatusDone
	_, err = svc.Create(context.Background(), in)
	require.NoError(t, err)

	active, _, err := svc.List(context.Background(), StatusActive, 1, 20)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "VIV-001", active[0].Code)
}

func TestLocatedOnlyIncludesCoordinates(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	in := validInput()
	in.Code = "VIV-002"
	lat, lon := -3.7327, -38.5270
	in.Latitude = &lat
	in.Longitude = &lon
	_, err = svc.Create(context.Background(), in)
	require.NoError(t, err)

	located, err := svc.Located(context.Background())
	require.NoError(t, err)
	require.Len(t, located, 1)
	assert.Equal(t, "VIV-002", located[0].Code)
}
