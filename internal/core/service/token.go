package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ntuclms/lms-client/internal/core/domain"
)

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// decodeIdentity reads the subject, role and expiry from a JWT payload.
//
// The signature and expiry are NOT verified. The backend is the only
// authority on whether a token is valid; ValidateToken is how the client asks
// it. Identity is used for UI gating only.
func decodeIdentity(token string) (*domain.Identity, error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, err
	}

	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return domain.NewIdentity(token, claims.Subject, domain.ParseRole(claims.Role), exp), nil
}
