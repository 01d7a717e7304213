package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/augbriz/desarrollo-FE-tp/pkg/errors"
	"github.com/augbriz/desarrollo-FE-tp/pkg/httputil"
	"github.com/augbriz/desarrollo-FE-tp/pkg/logger"
)

type contextKeyType string

const (
	tokenKey  contextKeyType = "bearer_token"
	claimsKey contextKeyType = "claims"
)

// ErrTokenExpired is returned by a TokenInspector for a token past its expiry.
var ErrTokenExpired = errors.New("token expired")

// Claims holds what the service reads from a bearer token. Opaque tokens
// produce empty claims. Verified is set only when the signature was checked.
type Claims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
	Verified  bool
}

// TokenInspector inspects a bearer token without contacting the issuer.
// Signature verification stays with the store API, which owns the keys.
type TokenInspector func(token string) (*Claims, error)

// Auth requires an "Authorization: Bearer" header, inspects the token and
// stores both token and claims in the request context.
func Auth(inspect TokenInspector, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httputil.WriteError(w, r, apperrors.Unauthorized("missing or malformed authorization header"), l)
				return
			}

			claims, err := inspect(token)
			switch {
			case errors.Is(err, ErrTokenExpired):
				httputil.WriteError(w, r, apperrors.Unauthorized("session expired, sign in again"), l)
				return
			case err != nil:
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid token"), l)
				return
			}

			ctx := WithToken(r.Context(), token)
			ctx = context.WithValue(ctx, claimsKey, claims)
			if claims.Subject != "" {
				ctx = logger.WithAdminID(ctx, claims.Subject)
				annotateAdmin(r, claims.Subject)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithToken stores a bearer token in ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the bearer token stored by Auth.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}

// ClaimsFromContext returns the claims stored by Auth, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	if c, ok := ctx.Value(claimsKey).(*Claims); ok {
		return c
	}
	return nil
}
