package domain

import "time"

// Token type tags carried in the token_type claim. Only access tokens
// authenticate API calls; refresh tokens are exchanged for new pairs.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenPair is the result of any successful authentication.
type TokenPair struct {
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}
