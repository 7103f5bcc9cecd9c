package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpattn/formexport/internal/domain"
)

const testSecret = "test-secret"

func TestMiddlewareStoresAccount(t *testing.T) {
	account := domain.Account{ID: "7", AccountName: "editor", Email: "editor@example.com", Langcode: "de"}
	token, err := GenerateToken(testSecret, account, "", time.Hour)
	require.NoError(t, err)

	var seen domain.Account
	handler := Middleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := AccountFromContext(r.Context())
		require.True(t, ok)
		seen = got
	}))

	req := httptest.NewRequest(http.MethodGet, "/exports/pending", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, account, seen)
}

func TestMiddlewareRejectsMissingAndInvalidTokens(t *testing.T) {
	handler := Middleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	other, err := GenerateToken("another-secret", domain.Account{ID: "1"}, "", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := GenerateToken(testSecret, domain.Account{ID: "1"}, "", -time.Minute)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	protected := Middleware(testSecret)(RequireRole(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	for role, want := range map[string]int{RoleAdmin: http.StatusNoContent, "": http.StatusForbidden} {
		token, err := GenerateToken(testSecret, domain.Account{ID: "1", AccountName: "a"}, role, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		require.Equal(t, want, rec.Code, "role %q", role)
	}
}

func TestAccountFromContextWithoutAccount(t *testing.T) {
	_, ok := AccountFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	require.False(t, ok)
}
