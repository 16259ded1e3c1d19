package users

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/vivenda-app/vivenda/internal/authstate"
	"github.com/vivenda-app/vivenda/internal/platform/httpx"
	"github.com/vivenda-app/vivenda/internal/rbac"
)

// RepositoryPort defines data access methods for the users admin.
type RepositoryPort interface {
	List(ctx context.Context) ([]Account, error)
	Create(ctx context.Context, email, passwordHash, name string, role rbac.Role) (*Account, error)
	SetRole(ctx context.Context, userID int64, role rbac.Role) error
}

// Input carries the fields of the new-user form.
type Input struct {
	Email    string `validate:"required,email"`
	Name     string `validate:"required,min=2,max=120"`
	Password string `validate:"required,min=8,max=72"`
	Role     rbac.Role
}

// Service handles user administration.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	events *redis.Client
	valid  *validator.Validate
}

// NewService builds a Service instance.
func NewService(logger *slog.Logger, repo RepositoryPort, events *redis.Client) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, repo: repo, events: events, valid: validator.New()}
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// Create registers a new account with a hashed password and a profile.
func (s *Service) Create(ctx context.Context, in Input) (*Account, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Role == "" {
		in.Role = rbac.RoleUser
	}
	if !rbac.ValidRole(in.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, in.Role)
	}
	if err := s.valid.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Create(ctx, in.Email, string(hash), in.Name, in.Role)
}

// ChangeRole updates an account's role and notifies every running instance so
// cached profiles are refreshed.
func (s *Service) ChangeRole(ctx context.Context, userID int64, role rbac.Role) error {
	if !rbac.ValidRole(role) {
		return fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, role)
	}
	if err := s.repo.SetRole(ctx, userID, role); err != nil {
		return err
	}
	ev := authstate.Event{Kind: authstate.KindUserUpdated, UserID: strconv.FormatInt(userID, 10)}
	if err := authstate.PublishEvent(ctx, s.events, ev); err != nil {
		s.logger.Warn("publish user-updated event", slog.Int64("user_id", userID), slog.Any("error", err))
	}
	return nil
}
