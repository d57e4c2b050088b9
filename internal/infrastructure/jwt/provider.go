package jwtinfra

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hostly-api/internal/config"
	"github.com/hostly-api/internal/domain"
	"github.com/hostly-api/internal/pkg/id"
)

var (
	// ErrInvalidToken covers empty, malformed, wrong-algorithm and
	// bad-signature tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired means the signature checked out but the token is past
	// its expiry. Kept distinct so callers can tell "log in again" apart from
	// "malformed request".
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the JWT payload. TokenType distinguishes access from refresh
// tokens; verification does not enforce it — callers check it against the
// operation they are authorizing.
type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs. It is stateless: the signing secret
// and lifetimes are fixed at construction and safe for concurrent use.
type Provider struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewProvider(cfg *config.Config) *Provider {
	return &Provider{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}
}

// CreateAccessToken mints a short-lived access token for userID.
func (p *Provider) CreateAccessToken(userID string) (string, error) {
	return p.sign(userID, domain.TokenTypeAccess, p.accessTTL)
}

// CreateRefreshToken mints a long-lived refresh token for userID.
func (p *Provider) CreateRefreshToken(userID string) (string, error) {
	return p.sign(userID, domain.TokenTypeRefresh, p.refreshTTL)
}

// AccessTTL exposes the configured access-token lifetime so callers can
// report expiry to clients without re-parsing the token.
func (p *Provider) AccessTTL() time.Duration { return p.accessTTL }

func (p *Provider) sign(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        id.New(), // jti, reserved for future revocation/audit
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// VerifyToken validates signature, algorithm and expiry, and returns the
// decoded claims. All timestamp comparison happens in UTC via NumericDate.
func (p *Provider) VerifyToken(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, ErrInvalidToken
			}
			return p.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
