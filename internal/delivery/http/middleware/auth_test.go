package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/product_directory/internal/delivery/http/response"
	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
)

func actorEcho(t *testing.T) (http.Handler, **domain.Actor) {
	t.Helper()
	var seen *domain.Actor
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = domain.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}), &seen
}

func TestAuthenticate_ValidToken(t *testing.T) {
	auth := NewAuthenticator("secret", "directory", logger.Nop())
	actor := domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin}
	token, err := auth.Issue(actor)
	require.NoError(t, err)

	next, seen := actorEcho(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	auth.Authenticate(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, *seen)
	assert.Equal(t, actor, **seen)
}

func TestAuthenticate_Anonymous(t *testing.T) {
	auth := NewAuthenticator("secret", "", logger.Nop())
	next, seen := actorEcho(t)
	w := httptest.NewRecorder()

	auth.Authenticate(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, *seen)
}

func TestAuthenticate_Rejects(t *testing.T) {
	auth := NewAuthenticator("secret", "directory", logger.Nop())
	other := NewAuthenticator("other", "directory", logger.Nop())
	wrongIssuer := NewAuthenticator("secret", "elsewhere", logger.Nop())

	forged, err := other.Issue(domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin})
	require.NoError(t, err)
	foreign, err := wrongIssuer.Issue(domain.Actor{UserID: uuid.New()})
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "admin"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"wrong scheme", "Basic abc"},
		{"garbage", "Bearer not-a-token"},
		{"wrong secret", "Bearer " + forged},
		{"wrong issuer", "Bearer " + foreign},
		{"no subject", "Bearer " + noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, seen := actorEcho(t)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()

			auth.Authenticate(next).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Nil(t, *seen)
			var body response.ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, domain.CodeUnauthenticated, body.Error.Code)
		})
	}
}

func TestParse_UnknownRoleIsUser(t *testing.T) {
	auth := NewAuthenticator("secret", "", logger.Nop())
	id := uuid.New()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "superuser",
		RegisteredClaims: jwt.RegisteredClaims{Subject: id.String()},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	actor, err := auth.Parse(token)

	require.NoError(t, err)
	assert.Equal(t, id, actor.UserID)
	assert.Equal(t, domain.RoleUser, actor.Role)
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()

	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.CodeInternal, body.Error.Code)
}
