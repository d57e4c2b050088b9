package magiclink

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// CodeStore is the expiring key-value backend for login codes. The Redis
// implementation lives in internal/infrastructure/redis.
type CodeStore interface {
	Set(ctx context.Context, email, code string, ttl time.Duration) error
	CompareAndDelete(ctx context.Context, email, code string) (bool, error)
	Delete(ctx context.Context, email string) (bool, error)
	TTL(ctx context.Context, email string) (time.Duration, bool, error)
}

// Service issues and verifies single-use login codes. Per identity the code
// moves through issued → consumed-or-expired; issuing again replaces any
// unconsumed code, so at most one is live at a time.
type Service struct {
	store CodeStore
	ttl   time.Duration
}

func NewService(store CodeStore, ttl time.Duration) *Service {
	return &Service{store: store, ttl: ttl}
}

// CreateCode issues a fresh 6-digit zero-padded code for email and stores it
// with the configured expiry. The code comes from crypto/rand, uniform over
// 000000–999999.
func (s *Service) CreateCode(ctx context.Context, email string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())
	if err := s.store.Set(ctx, normalize(email), code, s.ttl); err != nil {
		return "", err
	}
	return code, nil
}

// VerifyCode consumes the live code for email when it matches. Absent,
// expired and mismatched codes all report false without error; a mismatch
// leaves the code valid for further attempts. Store failures are returned
// as errors, never folded into false.
func (s *Service) VerifyCode(ctx context.Context, email, code string) (bool, error) {
	return s.store.CompareAndDelete(ctx, normalize(email), code)
}

// InvalidateCode drops any pending code for email, reporting whether one existed.
func (s *Service) InvalidateCode(ctx context.Context, email string) (bool, error) {
	return s.store.Delete(ctx, normalize(email))
}

// RemainingTTL reports how long the live code for email stays valid, if any.
func (s *Service) RemainingTTL(ctx context.Context, email string) (time.Duration, bool, error) {
	return s.store.TTL(ctx, normalize(email))
}

// TTL returns the configured code lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
