package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Item is one favorited resource.
type Item struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Subtitle string            `json:"subtitle,omitempty"`
	Image    string            `json:"image,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type document struct {
	Items []Item `json:"items"`
}

// Store persists each user's favorites as a single JSON document in Redis.
type Store struct {
	redis *redis.Client
}

// NewStore constructs a store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func key(userID string) string {
	return "favorites:" + userID
}

func (s *Store) load(ctx context.Context, userID string) (document, error) {
	raw, err := s.redis.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return document{}, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("load favorites: %w", err)
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		// A corrupt document is treated as empty rather than locking the
		// user out of the feature.
		return document{}, nil
	}
	return doc, nil
}

func (s *Store) save(ctx context.Context, userID string, doc document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, key(userID), payload, 0).Err(); err != nil {
		return fmt.Errorf("save favorites: %w", err)
	}
	return nil
}

// List returns the user's favorites in insertion order.
func (s *Store) List(ctx context.Context, userID string) ([]Item, error) {
	doc, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return doc.Items, nil
}

// Add appends an item, deduplicating by id. Adding an existing id replaces
// the stored item in place.
func (s *Store) Add(ctx context.Context, userID string, item Item) error {
	if item.ID == "" {
		return errors.New("favorite id is required")
	}
	doc, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range doc.Items {
		if existing.ID == item.ID {
			doc.Items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Items = append(doc.Items, item)
	}
	return s.save(ctx, userID, doc)
}

// Remove deletes the item with the given id. Removing an absent id is a no-op.
func (s *Store) Remove(ctx context.Context, userID, itemID string) error {
	doc, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	filtered := doc.Items[:0]
	for _, existing := range doc.Items {
		if existing.ID != itemID {
			filtered = append(filtered, existing)
		}
	}
	doc.Items = filtered
	return s.save(ctx, userID, doc)
}
