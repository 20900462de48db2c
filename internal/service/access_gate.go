package service

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inkpress/content-platform/internal/security"
)

var (
	ErrInvalidToken = errors.New("invalid access token")
	ErrTokenExpired = errors.New("access token expired")
)

// AccessGate is the per-request façade: a rate pre-check for every route and
// a stateless session check for protected ones. CheckSession deliberately
// never touches the session store; device revocation takes effect at most one
// access-token lifetime later, at rotation.
type AccessGate struct {
	limiter *RateLimiter
	jwtMgr  *security.JWTManager
}

func NewAccessGate(limiter *RateLimiter, jwtMgr *security.JWTManager) *AccessGate {
	return &AccessGate{limiter: limiter, jwtMgr: jwtMgr}
}

func (g *AccessGate) CheckRate(ctx context.Context, ip, resourceKey string) (bool, error) {
	return g.limiter.Admit(ctx, ip, resourceKey)
}

// CheckSession verifies the access token's signature and expiry and returns
// the user id it names.
func (g *AccessGate) CheckSession(accessToken string) (string, error) {
	claims, err := g.jwtMgr.ParseAccessToken(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (g *AccessGate) Limiter() *RateLimiter { return g.limiter }
