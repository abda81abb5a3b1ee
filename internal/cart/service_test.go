package cart_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-basket/internal/basket"
	"github.com/noah-isme/backend-basket/internal/cart"
	"github.com/noah-isme/backend-basket/internal/delivery"
	"github.com/noah-isme/backend-basket/internal/lock"
	"github.com/noah-isme/backend-basket/internal/offer"
)

type stubCatalog struct {
	mu     sync.Mutex
	prices map[string]string
}

func (c *stubCatalog) NewBasket(context.Context) (*basket.Basket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	products := make([]basket.Product, 0, len(c.prices))
	for code, price := range c.prices {
		products = append(products, basket.NewProduct(code, decimal.RequireFromString(price)))
	}
	rules := []basket.Rule{
		delivery.Below{Limit: decimal.NewFromInt(50), Cost: decimal.RequireFromString("4.95")},
		delivery.Below{Limit: decimal.NewFromInt(90), Cost: decimal.RequireFromString("2.95")},
	}
	offers := []basket.Offer{offer.SecondHalfPrice{Code: "R01"}}
	return basket.New(products, rules, offers), nil
}

func (c *stubCatalog) setPrice(code, price string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[code] = price
}

type fixture struct {
	svc     *cart.Service
	catalog *stubCatalog
	store   cart.Store
	mr      *miniredis.Miniredis
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	catalog := &stubCatalog{prices: map[string]string{"R01": "32.95", "G01": "24.95", "B01": "7.95"}}
	store := cart.Store{Client: client, TTL: time.Hour}
	svc := &cart.Service{
		Catalog: catalog,
		Store:   store,
		Locker:  lock.Locker{R: client, RetryBackoff: 2 * time.Millisecond},
		LockTTL: time.Second,
	}
	return fixture{svc: svc, catalog: catalog, store: store, mr: mr}
}

func codes(lines []cart.Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Code)
	}
	return out
}

func TestAddItemAndQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Create(ctx)
	require.NoError(t, err)

	empty, err := f.svc.Quote(ctx, id)
	require.NoError(t, err)
	require.Empty(t, empty.Items)
	// Delivery rules still see the zero subtotal.
	require.Equal(t, "4.95", empty.Summary.Total.StringFixed(2))

	var quote cart.Quote
	for _, code := range []string{"B01", "B01", "R01", "R01", "R01"} {
		quote, err = f.svc.AddItem(ctx, id, code)
		require.NoError(t, err)
	}
	require.Equal(t, "98.27", quote.Summary.Total.StringFixed(2))

	stored, err := f.svc.Quote(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []string{"B01", "B01", "R01", "R01", "R01"}, codes(stored.Items))
	require.Equal(t, "98.27", stored.Summary.Total.StringFixed(2))
}

func TestAddUnknownProductLeavesBasketUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.Create(ctx)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, id, "G01")
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, id, "X99")
	var unknown *basket.UnknownProductError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "X99", unknown.Code)

	lines, err := f.store.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []string{"G01"}, codes(lines))
}

func TestStoredItemsKeepAddTimePrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.Create(ctx)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, id, "G01")
	require.NoError(t, err)
	f.catalog.setPrice("G01", "99.00")

	quote, err := f.svc.Quote(ctx, id)
	require.NoError(t, err)
	require.True(t, quote.Items[0].Price.Equal(decimal.RequireFromString("24.95")))
	require.Equal(t, "29.90", quote.Summary.Total.StringFixed(2))
}

func TestUnknownBasket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Quote(ctx, "missing")
	require.ErrorIs(t, err, cart.ErrBasketNotFound)
	_, err = f.svc.AddItem(ctx, "missing", "R01")
	require.ErrorIs(t, err, cart.ErrBasketNotFound)
}

func TestBasketExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.Create(ctx)
	require.NoError(t, err)
	f.mr.FastForward(2 * time.Hour)
	_, err = f.svc.Quote(ctx, id)
	require.ErrorIs(t, err, cart.ErrBasketNotFound)
}

func TestConcurrentAddsAreSerialised(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := f.svc.Create(ctx)
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddItem(ctx, id, "B01")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	lines, err := f.store.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, lines, n)
}

func routed(f fixture) http.Handler {
	h := &cart.Handler{Svc: f.svc, Currency: "USD"}
	r := chi.NewRouter()
	r.Post("/baskets", h.Create)
	r.Post("/baskets/{id}/items", h.AddItem)
	r.Get("/baskets/{id}", h.Get)
	return r
}

func TestHandlers(t *testing.T) {
	f := newFixture(t)
	router := routed(f)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/baskets", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data struct {
			BasketID string `json:"basketId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created.Data.BasketID
	require.NotEmpty(t, id)

	for _, code := range []string{"B01", "G01"} {
		rec = httptest.NewRecorder()
		body := strings.NewReader(`{"code":"` + code + `"}`)
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/baskets/"+id+"/items", body))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/baskets/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var quote struct {
		Data struct {
			Items []struct {
				Code string `json:"code"`
			} `json:"items"`
			Pricing struct {
				Delivery string `json:"delivery"`
				Total    string `json:"total"`
			} `json:"pricing"`
			Currency string `json:"currency"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	require.Len(t, quote.Data.Items, 2)
	require.Equal(t, "4.95", quote.Data.Pricing.Delivery)
	require.Equal(t, "37.85", quote.Data.Pricing.Total)
	require.Equal(t, "USD", quote.Data.Currency)

	t.Run("unknown product", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/baskets/"+id+"/items", strings.NewReader(`{"code":"X99"}`)))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Contains(t, rec.Body.String(), "Product with code X99 not in product catalogue.")
	})

	t.Run("missing code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/baskets/"+id+"/items", strings.NewReader(`{}`)))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/baskets/not-a-uuid", nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown basket", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/baskets/11111111-1111-1111-1111-111111111111", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
