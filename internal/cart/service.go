package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/backend-basket/internal/basket"
	"github.com/noah-isme/backend-basket/internal/obs"
	"github.com/noah-isme/backend-basket/internal/pricing"
)

// Catalog builds a basket over the current catalog, rules and offers.
type Catalog interface {
	NewBasket(ctx context.Context) (*basket.Basket, error)
}

// SessionStore persists basket lines.
type SessionStore interface {
	Create(ctx context.Context, id string) error
	Load(ctx context.Context, id string) ([]Line, error)
	Save(ctx context.Context, id string, lines []Line) error
}

// Locker serialises work on a key across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Quote is a basket's items with its computed pricing.
type Quote struct {
	ID      string
	Items   []Line
	Summary pricing.Summary
}

// Service manages stored baskets and prices them with the basket engine.
type Service struct {
	Catalog Catalog
	Store   SessionStore
	Locker  Locker
	LockTTL time.Duration
	Now     func() time.Time
}

var tracer = otel.Tracer("cart")

// Create starts an empty basket and returns its id.
func (s *Service) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := s.Store.Create(ctx, id); err != nil {
		return "", err
	}
	observe("create", nil)
	return id, nil
}

// AddItem adds the catalog product with code to the basket. Work on one
// basket is serialised through the locker; an unknown code returns
// *basket.UnknownProductError and leaves the stored lines untouched.
func (s *Service) AddItem(ctx context.Context, id, code string) (quote Quote, err error) {
	ctx, span := tracer.Start(ctx, "cart.AddItem")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("basket.id", id), attribute.String("product.code", code))

	code = strings.TrimSpace(code)
	err = s.withLock(ctx, id, func(ctx context.Context) error {
		lines, err := s.Store.Load(ctx, id)
		if err != nil {
			return err
		}
		b, err := s.rehydrate(ctx, lines)
		if err != nil {
			return err
		}
		if _, err := b.Add(code); err != nil {
			return err
		}
		items := b.Items()
		added := items[len(items)-1]
		lines = append(lines, Line{Code: added.Code(), Price: added.Price(), AddedAt: s.now()})
		if err := s.Store.Save(ctx, id, lines); err != nil {
			return err
		}
		quote = Quote{ID: id, Items: lines, Summary: b.Breakdown()}
		return nil
	})
	observe("add_item", err)
	return quote, err
}

// Quote prices the stored basket.
func (s *Service) Quote(ctx context.Context, id string) (Quote, error) {
	ctx, span := tracer.Start(ctx, "cart.Quote")
	defer span.End()
	span.SetAttributes(attribute.String("basket.id", id))

	lines, err := s.Store.Load(ctx, id)
	if err != nil {
		observe("quote", err)
		return Quote{}, err
	}
	b, err := s.rehydrate(ctx, lines)
	if err != nil {
		observe("quote", err)
		return Quote{}, err
	}
	summary := b.Breakdown()
	observe("quote", nil)
	if obs.BasketTotal != nil {
		obs.BasketTotal.Observe(summary.Total.InexactFloat64())
	}
	return Quote{ID: id, Items: lines, Summary: summary}, nil
}

func (s *Service) rehydrate(ctx context.Context, lines []Line) (*basket.Basket, error) {
	b, err := s.Catalog.NewBasket(ctx)
	if err != nil {
		return nil, fmt.Errorf("build basket: %w", err)
	}
	items := make([]basket.Product, 0, len(lines))
	for _, l := range lines {
		items = append(items, basket.NewProduct(l.Code, l.Price))
	}
	b.SetItems(items)
	return b, nil
}

func (s *Service) withLock(ctx context.Context, id string, fn func(context.Context) error) error {
	if s.Locker == nil {
		return fn(ctx)
	}
	return s.Locker.WithLock(ctx, "lock:basket:"+id, s.LockTTL, fn)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func observe(op string, err error) {
	if obs.BasketOperationsTotal == nil {
		return
	}
	result := "ok"
	var unknown *basket.UnknownProductError
	switch {
	case err == nil:
	case errors.As(err, &unknown):
		result = "unknown_product"
	case errors.Is(err, ErrBasketNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	obs.BasketOperationsTotal.WithLabelValues(op, result).Inc()
}
