package nav

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Crumb is a single breadcrumb segment.
type Crumb struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// BreadcrumbStore persists per-user breadcrumb label overrides in a Redis
// hash under a fixed key. No versioning; the hash maps path → label.
type BreadcrumbStore struct {
	client *redis.Client
}

// NewBreadcrumbStore constructs a BreadcrumbStore.
func NewBreadcrumbStore(client *redis.Client) *BreadcrumbStore {
	return &BreadcrumbStore{client: client}
}

func (s *BreadcrumbStore) key(userID string) string {
	return "breadcrumbs:" + userID
}

// Overrides returns all label overrides for a user.
func (s *BreadcrumbStore) Overrides(ctx context.Context, userID string) (map[string]string, error) {
	return s.client.HGetAll(ctx, s.key(userID)).Result()
}

// SetOverride stores a label override for a path.
func (s *BreadcrumbStore) SetOverride(ctx context.Context, userID, path, label string) error {
	return s.client.HSet(ctx, s.key(userID), path, label).Err()
}

// ClearOverride removes a label override.
func (s *BreadcrumbStore) ClearOverride(ctx context.Context, userID, path string) error {
	return s.client.HDel(ctx, s.key(userID), path).Err()
}

// Trail builds the breadcrumb trail for a path. Labels come from the nav
// descriptors, then per-user overrides; unmatched segments fall back to the
// raw segment text.
func Trail(path string, overrides map[string]string) []Crumb {
	labels := make(map[string]string)
	for _, item := range Items() {
		labels[item.Path] = item.Label
	}

	var crumbs []Crumb
	current := ""
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if segment == "" {
			continue
		}
		current += "/" + segment
		label := segment
		if l, ok := labels[current]; ok {
			label = l
		}
		if l, ok := overrides[current]; ok {
			label = l
		}
		crumbs = append(crumbs, Crumb{Path: current, Label: label})
	}
	return crumbs
}
