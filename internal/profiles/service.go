package profiles

import (
	"context"

	"github.com/vivenda-app/vivenda/internal/rbac"
)

// RepositoryPort defines data access methods for profiles.
type RepositoryPort interface {
	GetByUserID(ctx context.Context, userID int64) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
	SetRole(ctx context.Context, userID int64, role rbac.Role) error
}

// Service handles profile business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// GetByUserID returns the profile for a user account.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Profile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// Save creates or updates a profile.
func (s *Service) Save(ctx context.Context, p *Profile) error {
	return s.repo.Upsert(ctx, p)
}

// SetRole changes a user's role.
func (s *Service) SetRole(ctx context.Context, userID int64, role rbac.Role) error {
	return s.repo.SetRole(ctx, userID, role)
}
