package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/delivery/http/response"
	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
)

// Claims are the bearer token claims understood by the API
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator turns bearer tokens into request actors
type Authenticator struct {
	secret []byte
	issuer string
	logger *logger.Logger
}

// NewAuthenticator creates an HS256 token verifier. An empty issuer accepts any issuer.
func NewAuthenticator(secret, issuer string, log *logger.Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, logger: log}
}

// Authenticate attaches the actor of a valid bearer token to the request context.
// Requests without a token continue anonymously; an invalid token is rejected.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			response.Error(w, http.StatusUnauthorized, domain.CodeUnauthenticated, "invalid authorization header format")
			return
		}

		actor, err := a.Parse(parts[1])
		if err != nil {
			a.logger.WithFields(map[string]any{
				"path":  r.URL.Path,
				"error": err.Error(),
			}).Debug("Rejected bearer token")
			response.Error(w, http.StatusUnauthorized, domain.CodeUnauthenticated, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(domain.WithActor(r.Context(), actor)))
	})
}

// Parse verifies a token and returns its actor
func (a *Authenticator) Parse(token string) (*domain.Actor, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("token verification is not configured")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var claims Claims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...); err != nil {
		return nil, err
	}

	raw := claims.UserID
	if raw == "" {
		raw = claims.Subject
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil, errors.New("token subject is not a user ID")
	}

	role := domain.Role(claims.Role)
	if role != domain.RoleAdmin {
		role = domain.RoleUser
	}
	return &domain.Actor{UserID: userID, Role: role}, nil
}

// Issue signs a token for the actor. Used by tests and local tooling.
func (a *Authenticator) Issue(actor domain.Actor) (string, error) {
	claims := Claims{
		UserID: actor.UserID.String(),
		Role:   string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: actor.UserID.String(),
			Issuer:  a.issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
