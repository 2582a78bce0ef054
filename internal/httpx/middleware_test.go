package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressline/dryclean-api/internal/access"
	"github.com/pressline/dryclean-api/internal/apperr"
	"github.com/pressline/dryclean-api/internal/auth"
)

type fakeResolver struct {
	actors map[string]access.Actor
}

func (f *fakeResolver) Resolve(ctx context.Context, userID string) (access.Actor, error) {
	a, ok := f.actors[userID]
	if !ok {
		return access.Actor{}, apperr.New(apperr.KindNotFound, "user not found")
	}
	return a, nil
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewManager("test-secret", time.Hour)
	resolver := &fakeResolver{actors: map[string]access.Actor{
		"u1": access.NewActor("u1", access.RoleCustomer, ""),
	}}

	var seen access.Actor
	handler := RequireAuth(tokens, resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ActorFrom(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := do("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do("Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, apperr.KindUnauthorized, body.ErrorKind)

	// a valid token for a user that no longer exists is still unauthorized
	ghost, err := tokens.GenerateToken("gone", "customer")
	require.NoError(t, err)
	rec = do("Bearer " + ghost)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := tokens.GenerateToken("u1", "customer")
	require.NoError(t, err)
	rec = do("Bearer " + tok)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u1", seen.UserID)
	assert.Equal(t, access.RoleCustomer, seen.Role)
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	expired := auth.NewManager("test-secret", -time.Hour)
	tok, err := expired.GenerateToken("u1", "customer")
	require.NoError(t, err)

	tokens := auth.NewManager("test-secret", time.Hour)
	handler := RequireAuth(tokens, &fakeResolver{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
