package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-basket/internal/basket"
	"github.com/noah-isme/backend-basket/internal/common"
	"github.com/noah-isme/backend-basket/internal/ruleset"
	"github.com/noah-isme/backend-basket/internal/store"
)

// Repository is the persistence surface the catalog needs.
type Repository interface {
	ListProducts(ctx context.Context) ([]store.Product, error)
	GetProduct(ctx context.Context, code string) (store.Product, error)
	UpsertProduct(ctx context.Context, code, name string, price decimal.Decimal) (store.Product, error)
	ListDeliveryRules(ctx context.Context) ([]ruleset.Definition, error)
	ListOffers(ctx context.Context) ([]ruleset.Definition, error)
}

// Enqueuer schedules background tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Service serves the product catalog and pricing policies with a Redis
// cache in front of Postgres.
type Service struct {
	repo   Repository
	cache  *Cache
	tasks  Enqueuer
	logger zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Repo   Repository
	Cache  *Cache
	Tasks  Enqueuer
	Logger *zerolog.Logger
}

// Policies holds the stored delivery rule and offer definitions.
type Policies struct {
	Rules  []ruleset.Definition `json:"rules"`
	Offers []ruleset.Definition `json:"offers"`
}

// UpsertInput is the payload accepted by Upsert.
type UpsertInput struct {
	Code  string          `json:"code" validate:"required,max=32"`
	Name  string          `json:"name" validate:"max=200"`
	Price decimal.Decimal `json:"price"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repo == nil {
		return nil, errors.New("catalog: repository is required")
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Service{repo: cfg.Repo, cache: cfg.Cache, tasks: cfg.Tasks, logger: logger}, nil
}

// Products returns every catalog product ordered by code.
func (s *Service) Products(ctx context.Context) ([]store.Product, error) {
	var cached []store.Product
	if ok, err := s.cache.GetJSON(ctx, productsKey, &cached); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache read")
	} else if ok {
		return cached, nil
	}
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, internalError("unable to load products", err)
	}
	if err := s.cache.SetJSON(ctx, productsKey, products); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache write")
	}
	return products, nil
}

// Product returns a single product by code.
func (s *Service) Product(ctx context.Context, code string) (store.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return store.Product{}, common.NewAppError("BAD_REQUEST", "product code is required", http.StatusBadRequest, nil)
	}
	p, err := s.repo.GetProduct(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Product{}, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, err)
		}
		return store.Product{}, internalError("unable to load product", err)
	}
	return p, nil
}

// Upsert creates or overwrites a catalog product and invalidates the cache.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (store.Product, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if err := common.Validate(in); err != nil {
		return store.Product{}, err
	}
	if in.Price.IsNegative() {
		return store.Product{}, common.NewAppError("VALIDATION_FAILED", "price must not be negative", http.StatusBadRequest, nil)
	}
	p, err := s.repo.UpsertProduct(ctx, in.Code, in.Name, in.Price)
	if err != nil {
		return store.Product{}, internalError("unable to save product", err)
	}
	if err := s.cache.Delete(ctx, productsKey); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache invalidate")
	}
	if s.tasks != nil {
		if _, err := s.tasks.EnqueueContext(ctx, NewRefreshTask()); err != nil {
			s.logger.Warn().Err(err).Msg("enqueue catalog refresh")
		}
	}
	return p, nil
}

// Policies returns the delivery rule and offer definitions.
func (s *Service) Policies(ctx context.Context) (Policies, error) {
	var cached Policies
	if ok, err := s.cache.GetJSON(ctx, policiesKey, &cached); err != nil {
		s.logger.Warn().Err(err).Msg("policy cache read")
	} else if ok {
		return cached, nil
	}
	policies, err := s.loadPolicies(ctx)
	if err != nil {
		return Policies{}, err
	}
	if err := s.cache.SetJSON(ctx, policiesKey, policies); err != nil {
		s.logger.Warn().Err(err).Msg("policy cache write")
	}
	return policies, nil
}

// Refresh reloads products and policies from the repository into the cache.
func (s *Service) Refresh(ctx context.Context) error {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("refresh products: %w", err)
	}
	policies, err := s.loadPolicies(ctx)
	if err != nil {
		return fmt.Errorf("refresh policies: %w", err)
	}
	if err := s.cache.SetJSON(ctx, productsKey, products); err != nil {
		return fmt.Errorf("cache products: %w", err)
	}
	if err := s.cache.SetJSON(ctx, policiesKey, policies); err != nil {
		return fmt.Errorf("cache policies: %w", err)
	}
	return nil
}

// NewBasket builds an empty basket over the current catalog, delivery rules
// and offers.
func (s *Service) NewBasket(ctx context.Context) (*basket.Basket, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	policies, err := s.Policies(ctx)
	if err != nil {
		return nil, err
	}
	rules, err := ruleset.BuildRules(policies.Rules)
	if err != nil {
		return nil, internalError("invalid delivery rules", err)
	}
	offers, err := ruleset.BuildOffers(policies.Offers)
	if err != nil {
		return nil, internalError("invalid offers", err)
	}
	catalog := make([]basket.Product, 0, len(products))
	for _, p := range products {
		catalog = append(catalog, basket.NewProduct(p.Code, p.Price))
	}
	return basket.New(catalog, rules, offers), nil
}

func (s *Service) loadPolicies(ctx context.Context) (Policies, error) {
	rules, err := s.repo.ListDeliveryRules(ctx)
	if err != nil {
		return Policies{}, internalError("unable to load delivery rules", err)
	}
	offers, err := s.repo.ListOffers(ctx)
	if err != nil {
		return Policies{}, internalError("unable to load offers", err)
	}
	return Policies{Rules: rules, Offers: offers}, nil
}

func internalError(message string, err error) error {
	return common.NewAppError("INTERNAL", message, http.StatusInternalServerError, err)
}
