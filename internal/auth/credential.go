package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	apperrors "github.com/augbriz/desarrollo-FE-tp/pkg/errors"
	"github.com/augbriz/desarrollo-FE-tp/pkg/middleware"
)

// Credential is the bearer token of the current request and the key its
// server-side state is stored under.
type Credential struct {
	Token string
	Owner string
}

// FromContext returns the credential stored by the auth middleware. A missing
// token yields an Unauthorized error.
func FromContext(ctx context.Context) (Credential, error) {
	token, ok := middleware.TokenFromContext(ctx)
	if !ok {
		return Credential{}, ErrNotAuthenticated()
	}
	return Credential{Token: token, Owner: OwnerKey(token, middleware.ClaimsFromContext(ctx))}, nil
}

// OwnerKey identifies whoever holds token: the subject of a verified token,
// otherwise a digest of the token itself. Unverified subjects can be forged
// and are never used.
func OwnerKey(token string, claims *middleware.Claims) string {
	if claims != nil && claims.Verified && claims.Subject != "" {
		return "sub:" + claims.Subject
	}
	sum := sha256.Sum256([]byte(token))
	return "tok:" + hex.EncodeToString(sum[:16])
}

// ErrNotAuthenticated is returned when a call needs a credential and none
// is present.
func ErrNotAuthenticated() *apperrors.AppError {
	return apperrors.Unauthorized("not authenticated")
}
