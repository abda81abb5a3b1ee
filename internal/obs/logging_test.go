package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-basket/internal/common"
	"github.com/noah-isme/backend-basket/internal/obs"
)

func TestRequestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.RequestLogger{Logger: zerolog.New(&buf)}
	handler := logger.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("{}"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/baskets", nil)
	req = req.WithContext(common.WithSubject(obs.WithRoutePattern(req.Context(), "/api/v1/baskets"), "admin"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "http_request", entry["message"])
	require.Equal(t, "/api/v1/baskets", entry["route"])
	require.EqualValues(t, 201, entry["status"])
	require.EqualValues(t, 2, entry["bytes"])
	require.Equal(t, "admin", entry["subject"])
}

func TestDomainMetricsRegistered(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("basket", registry)
	obs.BasketOperationsTotal.WithLabelValues("quote", "ok").Inc()
	obs.BasketTotal.Observe(37.85)

	require.Equal(t, float64(1), testutil.ToFloat64(obs.BasketOperationsTotal.WithLabelValues("quote", "ok")))
	count, err := testutil.GatherAndCount(registry, "basket_basket_quote_total")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
