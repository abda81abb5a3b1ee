package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-basket/internal/common"
)

func newTestVerifier(t *testing.T, now time.Time) *Verifier {
	t.Helper()
	v, err := NewVerifier(VerifierConfig{
		Secret:   "test-secret",
		Issuer:   "basket",
		Audience: "basket-admin",
		TokenTTL: time.Hour,
		Now:      func() time.Time { return now },
	})
	require.NoError(t, err)
	return v
}

func TestVerifierRoundTrip(t *testing.T) {
	now := time.Now()
	v := newTestVerifier(t, now)
	token, expiresAt, err := v.Issue("ops")
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Hour), expiresAt)

	subject, err := v.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "ops", subject)
}

func TestVerifierRejectsForeignSecret(t *testing.T) {
	now := time.Now()
	v := newTestVerifier(t, now)
	tok, err := jwt.NewBuilder().Subject("ops").Issuer("basket").Audience([]string{"basket-admin"}).Expiration(now.Add(time.Minute)).Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("other-secret")))
	require.NoError(t, err)

	_, err = v.Verify(string(signed))
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
}

func TestVerifierRejectsExpired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	token, _, err := newTestVerifier(t, issuedAt).Issue("ops")
	require.NoError(t, err)

	_, err = newTestVerifier(t, time.Now()).Verify(token)
	require.Error(t, err)
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier(VerifierConfig{})
	require.Error(t, err)
}

func TestRequireAdmin(t *testing.T) {
	v := newTestVerifier(t, time.Now())
	mw := Middleware{Verifier: v}
	var seen string
	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = common.Subject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/admin/products/R01", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/products/R01", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := v.Issue("ops")
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/v1/admin/products/R01", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "ops", seen)
}
