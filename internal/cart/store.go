package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// ErrBasketNotFound is returned when a basket id is unknown or expired.
var ErrBasketNotFound = errors.New("cart: basket not found")

// Line is a stored item snapshot: the product code and the price it had
// when it was added.
type Line struct {
	Code    string          `json:"code"`
	Price   decimal.Decimal `json:"price"`
	AddedAt time.Time       `json:"addedAt"`
}

// Store keeps basket item snapshots in Redis as JSON under a TTL that is
// refreshed on every write.
type Store struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

func (s Store) key(id string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "basket:"
	}
	return prefix + id
}

func (s Store) ttl() time.Duration {
	if s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

// Create registers an empty basket.
func (s Store) Create(ctx context.Context, id string) error {
	ok, err := s.Client.SetNX(ctx, s.key(id), "[]", s.ttl()).Result()
	if err != nil {
		return fmt.Errorf("create basket: %w", err)
	}
	if !ok {
		return fmt.Errorf("create basket: id %s already exists", id)
	}
	return nil
}

// Load returns the stored lines in the order they were added.
func (s Store) Load(ctx context.Context, id string) ([]Line, error) {
	data, err := s.Client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrBasketNotFound
		}
		return nil, fmt.Errorf("load basket: %w", err)
	}
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("decode basket: %w", err)
	}
	return lines, nil
}

// Save overwrites the lines of an existing basket.
func (s Store) Save(ctx context.Context, id string, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode basket: %w", err)
	}
	ok, err := s.Client.SetXX(ctx, s.key(id), data, s.ttl()).Result()
	if err != nil {
		return fmt.Errorf("save basket: %w", err)
	}
	if !ok {
		return ErrBasketNotFound
	}
	return nil
}
