package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hostly-api/internal/domain"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldEmail        = "email"
	fieldPhone        = "phone"
	fieldFirstName    = "first_name"
	fieldLastName     = "last_name"
	fieldBio          = "bio"
	fieldRole         = "role"
	fieldAvatarURL    = "avatar_url"
	fieldPasswordHash = "password_hash"
)

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	Deactivate(ctx context.Context, userID string) error
	SetAvatar(ctx context.Context, userID, filename string, r io.Reader, contentType string) (*domain.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

type service struct {
	repo    userStore
	avatars objectStore
	hasher  passwordHasher
}

type ServiceDeps struct {
	UserRepo    userStore
	AvatarStore objectStore
	Hasher      passwordHasher
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:    deps.UserRepo,
		avatars: deps.AvatarStore,
		hasher:  deps.Hasher,
	}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.Email != nil {
		// Stored lower-cased, same as registration: the email GSI lookup is an
		// exact match, so a mixed-case write would orphan the account from login.
		email := normalizeEmail(*req.Email)
		existing, err := s.repo.GetByEmail(ctx, email)
		switch {
		case err == nil && existing.UserID != userID:
			return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		updates[fieldEmail] = email
	}
	if req.Phone != nil {
		updates[fieldPhone] = *req.Phone
	}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.Bio != nil {
		updates[fieldBio] = *req.Bio
	}
	if req.Role != nil {
		switch *req.Role {
		case domain.RoleGuest, domain.RoleHost, domain.RoleAdmin:
			updates[fieldRole] = *req.Role
		default:
			return nil, fmt.Errorf("invalid role: %w", domain.ErrBadRequest)
		}
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, userID)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

// Deactivate soft-deletes the account. Outstanding tokens keep verifying
// cryptographically, but the authentication gate rejects them once
// is_active is false.
func (s *service) Deactivate(ctx context.Context, userID string) error {
	return s.repo.SoftDelete(ctx, userID)
}

func (s *service) SetAvatar(ctx context.Context, userID, filename string, r io.Reader, contentType string) (*domain.User, error) {
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("avatars/%s/%d-%s", userID, time.Now().UTC().Unix(), filename)
	url, err := s.avatars.Upload(ctx, key, r, contentType)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldAvatarURL: url}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	// Passwordless accounts set their first password without a current one.
	if u.PasswordHash != "" && !s.hasher.Verify(currentPassword, u.PasswordHash) {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, userID, map[string]interface{}{fieldPasswordHash: hash})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
