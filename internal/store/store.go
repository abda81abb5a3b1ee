// Package store persists the product catalog, delivery rules and offers in
// Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-basket/internal/ruleset"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Product is a catalog row.
type Product struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Store runs catalog queries.
type Store struct {
	db DBTX
}

// New constructs a Store.
func New(db DBTX) *Store {
	return &Store{db: db}
}

const listProducts = `SELECT code, name, price::text, updated_at FROM products ORDER BY code`

// ListProducts returns every catalog product ordered by code.
func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.db.Query(ctx, listProducts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

const getProduct = `SELECT code, name, price::text, updated_at FROM products WHERE code = $1`

// GetProduct returns the product with the given code.
func (s *Store) GetProduct(ctx context.Context, code string) (Product, error) {
	p, err := scanProduct(s.db.QueryRow(ctx, getProduct, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

const upsertProduct = `
INSERT INTO products (code, name, price, updated_at)
VALUES ($1, $2, $3::numeric, now())
ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price, updated_at = now()
RETURNING code, name, price::text, updated_at`

// UpsertProduct inserts the product or overwrites the existing row.
func (s *Store) UpsertProduct(ctx context.Context, code, name string, price decimal.Decimal) (Product, error) {
	p, err := scanProduct(s.db.QueryRow(ctx, upsertProduct, code, name, price.String()))
	if err != nil {
		return Product{}, fmt.Errorf("upsert product %s: %w", code, err)
	}
	return p, nil
}

const listDeliveryRules = `
SELECT kind, limit_amount::text, cost::text
FROM delivery_rules WHERE active ORDER BY position, id`

// ListDeliveryRules returns the active delivery rule definitions in order.
func (s *Store) ListDeliveryRules(ctx context.Context) ([]ruleset.Definition, error) {
	rows, err := s.db.Query(ctx, listDeliveryRules)
	if err != nil {
		return nil, fmt.Errorf("list delivery rules: %w", err)
	}
	defer rows.Close()

	var out []ruleset.Definition
	for rows.Next() {
		var kind, limit, cost string
		if err := rows.Scan(&kind, &limit, &cost); err != nil {
			return nil, fmt.Errorf("scan delivery rule: %w", err)
		}
		def := ruleset.Definition{Kind: kind}
		if def.Limit, err = decimal.NewFromString(limit); err != nil {
			return nil, fmt.Errorf("parse rule limit: %w", err)
		}
		if def.Cost, err = decimal.NewFromString(cost); err != nil {
			return nil, fmt.Errorf("parse rule cost: %w", err)
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

const listOffers = `
SELECT kind, product_code, codes, percent_bps, amount::text, min_spend::text
FROM offers WHERE active ORDER BY position, id`

// ListOffers returns the active offer definitions in order.
func (s *Store) ListOffers(ctx context.Context) ([]ruleset.Definition, error) {
	rows, err := s.db.Query(ctx, listOffers)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var out []ruleset.Definition
	for rows.Next() {
		var (
			def              ruleset.Definition
			amount, minSpend string
		)
		if err := rows.Scan(&def.Kind, &def.Code, &def.Codes, &def.Bps, &amount, &minSpend); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		if def.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse offer amount: %w", err)
		}
		if def.MinSpend, err = decimal.NewFromString(minSpend); err != nil {
			return nil, fmt.Errorf("parse offer min spend: %w", err)
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p     Product
		price string
	)
	if err := row.Scan(&p.Code, &p.Name, &price, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("parse price for %s: %w", p.Code, err)
	}
	p.Price = parsed
	return p, nil
}

// ReplaceDeliveryRules swaps the stored delivery rules for defs, keeping
// their order as position. Run it inside a transaction.
func (s *Store) ReplaceDeliveryRules(ctx context.Context, defs []ruleset.Definition) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM delivery_rules`); err != nil {
		return fmt.Errorf("clear delivery rules: %w", err)
	}
	for i, def := range defs {
		_, err := s.db.Exec(ctx,
			`INSERT INTO delivery_rules (kind, limit_amount, cost, position) VALUES ($1, $2::numeric, $3::numeric, $4)`,
			def.Kind, def.Limit.String(), def.Cost.String(), i)
		if err != nil {
			return fmt.Errorf("insert delivery rule %d: %w", i, err)
		}
	}
	return nil
}

// ReplaceOffers swaps the stored offers for defs, keeping their order as
// position. Run it inside a transaction.
func (s *Store) ReplaceOffers(ctx context.Context, defs []ruleset.Definition) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM offers`); err != nil {
		return fmt.Errorf("clear offers: %w", err)
	}
	for i, def := range defs {
		codes := def.Codes
		if codes == nil {
			codes = []string{}
		}
		_, err := s.db.Exec(ctx,
			`INSERT INTO offers (kind, product_code, codes, percent_bps, amount, min_spend, position)
VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7)`,
			def.Kind, def.Code, codes, def.Bps, def.Amount.String(), def.MinSpend.String(), i)
		if err != nil {
			return fmt.Errorf("insert offer %d: %w", i, err)
		}
	}
	return nil
}
