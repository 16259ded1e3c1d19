package posts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vivenda-app/vivenda/internal/platform/httpx"
)

// RepositoryPort defines data access methods for posts.
type RepositoryPort interface {
	List(ctx context.Context, limit int) ([]Post, error)
	Create(ctx context.Context, p *Post) error
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// Input carries the editable fields of a post.
type Input struct {
	Title string `validate:"required,min=3,max=160"`
	Body  string `validate:"required,min=3,max=8000"`
}

// Service handles post business logic.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	now      func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New(), now: time.Now}
}

// List returns the latest posts.
func (s *Service) List(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, limit)
}

// Create validates and publishes a post by the given author.
func (s *Service) Create(ctx context.Context, authorID int64, in Input) (*Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	p := &Post{
		AuthorID:    authorID,
		Title:       in.Title,
		Body:        in.Body,
		PublishedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RecentCount counts posts published in the given window.
func (s *Service) RecentCount(ctx context.Context, window time.Duration) (int, error) {
	return s.repo.CountSince(ctx, s.now().UTC().Add(-window))
}
