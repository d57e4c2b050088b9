package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hostly-api/internal/domain"
	jwtinfra "github.com/hostly-api/internal/infrastructure/jwt"
	"github.com/hostly-api/internal/infrastructure/smtp"
	"github.com/hostly-api/internal/infrastructure/sns"
	"github.com/hostly-api/internal/pkg/id"
)

// RequestCodeRequest asks for a one-time login code. Channel defaults to email.
type RequestCodeRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Channel string `json:"channel" validate:"omitempty,oneof=email sms"`
}

// VerifyCodeRequest exchanges a one-time login code for a token pair.
type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// LoginRequest is the password login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, *domain.TokenPair, error)
	Login(ctx context.Context, req LoginRequest) (*domain.User, *domain.TokenPair, error)
	RequestLoginCode(ctx context.Context, req RequestCodeRequest) (time.Duration, error)
	VerifyLoginCode(ctx context.Context, req VerifyCodeRequest) (*domain.User, *domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type codeService interface {
	CreateCode(ctx context.Context, email string) (string, error)
	VerifyCode(ctx context.Context, email, code string) (bool, error)
	TTL() time.Duration
}

type tokenProvider interface {
	CreateAccessToken(userID string) (string, error)
	CreateRefreshToken(userID string) (string, error)
	VerifyToken(token string) (*jwtinfra.Claims, error)
	AccessTTL() time.Duration
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
	NeedsRehash(encoded string) bool
}

type service struct {
	userRepo  userStore
	codes     codeService
	tokens    tokenProvider
	hasher    passwordHasher
	mailer    smtp.Mailer
	smsSender sns.SMSSender
}

type ServiceDeps struct {
	UserRepo  userStore
	Codes     codeService
	Tokens    tokenProvider
	Hasher    passwordHasher
	Mailer    smtp.Mailer
	SMSSender sns.SMSSender
}

func NewService(deps ServiceDeps) Service {
	return &service{
		userRepo:  deps.UserRepo,
		codes:     deps.Codes,
		tokens:    deps.Tokens,
		hasher:    deps.Hasher,
		mailer:    deps.Mailer,
		smsSender: deps.SMSSender,
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, *domain.TokenPair, error) {
	email := normalizeEmail(req.Email)
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}

	// Password is optional: accounts without one can only log in via code.
	var hash string
	if req.Password != "" {
		var err error
		hash, err = s.hasher.Hash(req.Password)
		if err != nil {
			return nil, nil, err
		}
	}

	role := req.Role
	if role == "" {
		role = domain.RoleGuest
	}

	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Put(ctx, u); err != nil {
		return nil, nil, err
	}

	pair, err := s.issuePair(u.UserID)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*domain.User, *domain.TokenPair, error) {
	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, nil, err
		}
		// Same outcome as a bad password, so responses don't reveal which
		// emails have accounts.
		return nil, nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if u.PasswordHash == "" || !s.hasher.Verify(req.Password, u.PasswordHash) {
		return nil, nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.IsActive {
		return nil, nil, fmt.Errorf("account deactivated: %w", domain.ErrUnauthorized)
	}

	// Online parameter upgrade: this is the only moment the plaintext is in hand.
	if s.hasher.NeedsRehash(u.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(req.Password); hashErr == nil {
			if updErr := s.userRepo.Update(ctx, u.UserID, map[string]interface{}{"password_hash": newHash}); updErr != nil {
				slog.Warn("failed to persist rehashed password", "user_id", u.UserID, "err", updErr)
			}
		}
	}

	pair, err := s.issuePair(u.UserID)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

func (s *service) RequestLoginCode(ctx context.Context, req RequestCodeRequest) (time.Duration, error) {
	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}

	code, err := s.codes.CreateCode(ctx, u.Email)
	if err != nil {
		return 0, err
	}

	switch req.Channel {
	case "sms":
		if u.Phone == nil {
			return 0, fmt.Errorf("no phone number on account: %w", domain.ErrBadRequest)
		}
		if err := s.smsSender.SendSMS(ctx, *u.Phone, "Your Hostly login code: "+code); err != nil {
			return 0, err
		}
	default:
		if err := s.mailer.SendEmail(u.Email, "Your Hostly login code", "Your login code: "+code); err != nil {
			return 0, err
		}
	}
	return s.codes.TTL(), nil
}

func (s *service) VerifyLoginCode(ctx context.Context, req VerifyCodeRequest) (*domain.User, *domain.TokenPair, error) {
	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("invalid or expired code: %w", domain.ErrUnauthorized)
	}

	ok, err := s.codes.VerifyCode(ctx, u.Email, req.Code)
	if err != nil {
		// Store unavailability is an infrastructure failure, not a rejection.
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fmt.Errorf("invalid or expired code: %w", domain.ErrUnauthorized)
	}
	if !u.IsActive {
		return nil, nil, fmt.Errorf("account deactivated: %w", domain.ErrUnauthorized)
	}

	pair, err := s.issuePair(u.UserID)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.VerifyToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrUnauthorized)
	}
	if claims.TokenType != domain.TokenTypeRefresh {
		return nil, fmt.Errorf("wrong token type: %w", domain.ErrUnauthorized)
	}

	u, err := s.userRepo.Get(ctx, claims.Subject)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("unknown subject: %w", domain.ErrUnauthorized)
	}
	if !u.IsActive {
		return nil, fmt.Errorf("account deactivated: %w", domain.ErrUnauthorized)
	}
	return s.issuePair(u.UserID)
}

func (s *service) issuePair(userID string) (*domain.TokenPair, error) {
	access, err := s.tokens.CreateAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.CreateRefreshToken(userID)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: time.Now().UTC().Add(s.tokens.AccessTTL()),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
