package projects

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vivenda-app/vivenda/internal/platform/httpx"
	"github.com/vivenda-app/vivenda/internal/shared"
)

// RepositoryPort defines data access methods for projects.
type RepositoryPort interface {
	List(ctx context.Context, status Status, page shared.Pagination) ([]Project, int, error)
	Get(ctx context.Context, id int64) (*Project, error)
	Create(ctx context.Context, p *Project) error
	Update(ctx context.Context, p *Project) error
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	TotalBudget(ctx context.Context) (int64, error)
	AverageProgress(ctx context.Context) (float64, error)
	Located(ctx context.Context) ([]Project, error)
}

// Input carries the editable fields of a project.
type Input struct {
	Code        string `validate:"required,min=2,max=32"`
	Name        string `validate:"required,min=3,max=160"`
	Description string `validate:"max=4000"`
	Status      Status
	City        string `validate:"max=120"`
	Address     string `validate:"max=240"`
	Latitude    *float64
	Longitude   *float64
	BudgetCents int64 `validate:"gte=0"`
	Progress    int   `validate:"gte=0,lte=100"`
}

// Service handles project business logic.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// List returns a page of projects with pagination metadata.
func (s *Service) List(ctx context.Context, status Status, page, perPage int) ([]Project, shared.Pagination, error) {
	if status != "" && !ValidStatus(status) {
		return nil, shared.Pagination{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, status)
	}
	pagination := shared.NewPagination(page, perPage, 0)
	projects, total, err := s.repo.List(ctx, status, pagination)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return projects, shared.NewPagination(page, perPage, total), nil
}

// Get fetches a single project.
func (s *Service) Get(ctx context.Context, id int64) (*Project, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new project.
func (s *Service) Create(ctx context.Context, in Input) (*Project, error) {
	p, err := s.apply(&Project{}, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update validates and stores changes to an existing project.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Project, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.apply(existing, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Located lists projects that can be plotted on the map.
func (s *Service) Located(ctx context.Context) ([]Project, error) {
	return s.repo.Located(ctx)
}

func (s *Service) apply(p *Project, in Input) (*Project, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Status == "" {
		in.Status = StatusPlanning
	}
	if !ValidStatus(in.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, in.Status)
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, fmt.Errorf("%w: latitude and longitude must be set together", httpx.ErrValidation)
	}

	p.Code = in.Code
	p.Name = in.Name
	p.Description = strings.TrimSpace(in.Description)
	p.Status = in.Status
	p.City = strings.TrimSpace(in.City)
	p.Address = strings.TrimSpace(in.Address)
	p.Latitude = in.Latitude
	p.Longitude = in.Longitude
	p.BudgetCents = in.BudgetCents
	p.Progress = in.Progress
	return p, nil
}
