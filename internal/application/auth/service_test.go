package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hostly-api/internal/domain"
	jwtinfra "github.com/hostly-api/internal/infrastructure/jwt"
	"github.com/hostly-api/internal/pkg/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type mockCodes struct{ mock.Mock }

func (m *mockCodes) CreateCode(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}
func (m *mockCodes) VerifyCode(ctx context.Context, email, code string) (bool, error) {
	args := m.Called(ctx, email, code)
	return args.Bool(0), args.Error(1)
}
func (m *mockCodes) TTL() time.Duration { return 15 * time.Minute }

type mockTokens struct{ mock.Mock }

func (m *mockTokens) CreateAccessToken(userID string) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}
func (m *mockTokens) CreateRefreshToken(userID string) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}
func (m *mockTokens) VerifyToken(token string) (*jwtinfra.Claims, error) {
	args := m.Called(token)
	if c, _ := args.Get(0).(*jwtinfra.Claims); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokens) AccessTTL() time.Duration { return 15 * time.Minute }

type mockHasher struct{ mock.Mock }

func (m *mockHasher) Hash(pw string) (string, error) {
	args := m.Called(pw)
	return args.String(0), args.Error(1)
}
func (m *mockHasher) Verify(pw, encoded string) bool {
	return m.Called(pw, encoded).Bool(0)
}
func (m *mockHasher) NeedsRehash(encoded string) bool {
	return m.Called(encoded).Bool(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockSMSSender struct{ mock.Mock }

func (m *mockSMSSender) SendSMS(ctx context.Context, to, msg string) error {
	return m.Called(ctx, to, msg).Error(0)
}

// --- builder ---

func newService(us *mockUserStore, codes *mockCodes, tk *mockTokens, h *mockHasher, ml *mockMailer, sms *mockSMSSender) Service {
	return NewService(ServiceDeps{
		UserRepo:  us,
		Codes:     codes,
		Tokens:    tk,
		Hasher:    h,
		Mailer:    ml,
		SMSSender: sms,
	})
}

func expectPair(tk *mockTokens, userID string) {
	tk.On("CreateAccessToken", userID).Return("access-token", nil)
	tk.On("CreateRefreshToken", userID).Return("refresh-token", nil)
}

func strPtr(s string) *string { return &s }

// --- Register ---

func TestRegister_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	h := &mockHasher{}
	tk := &mockTokens{}

	us.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	h.On("Hash", "secret-password").Return("$argon2id$hash", nil)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	expectPair(tk, mock.Anything)

	svc := newService(us, nil, tk, h, nil, nil)
	u, pair, err := svc.Register(context.Background(), domain.CreateUserRequest{
		Email:     "A@B.com",
		Password:  "secret-password",
		FirstName: "Alice",
		LastName:  "Doe",
	})

	require.NoError(t, err)
	assert.Equal(t, "a@b.com", u.Email)
	assert.Equal(t, domain.RoleGuest, u.Role)
	assert.True(t, u.IsActive)
	assert.Equal(t, "$argon2id$hash", u.PasswordHash)
	assert.Equal(t, "access-token", pair.AccessToken)
	assert.Equal(t, "refresh-token", pair.RefreshToken)
	us.AssertExpectations(t)
}

func TestRegister_EmailTaken(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.User{UserID: "u1"}, nil)

	svc := newService(us, nil, nil, nil, nil, nil)
	_, _, err := svc.Register(context.Background(), domain.CreateUserRequest{Email: "a@b.com", Password: "secret-password"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRegister_WeakPassword(t *testing.T) {
	us := &mockUserStore{}
	h := &mockHasher{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	h.On("Hash", "short").Return("", password.ErrWeakPassword)

	svc := newService(us, nil, nil, h, nil, nil)
	_, _, err := svc.Register(context.Background(), domain.CreateUserRequest{Email: "a@b.com", Password: "short"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, password.ErrWeakPassword))
}

func TestRegister_Passwordless(t *testing.T) {
	us := &mockUserStore{}
	h := &mockHasher{}
	tk := &mockTokens{}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	expectPair(tk, mock.Anything)

	svc := newService(us, nil, tk, h, nil, nil)
	u, _, err := svc.Register(context.Background(), domain.CreateUserRequest{Email: "a@b.com"})

	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)
	h.AssertNotCalled(t, "Hash", mock.Anything)
}

// --- Login ---

func TestLogin_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	h := &mockHasher{}
	tk := &mockTokens{}
	user := &domain.User{UserID: "u1", Email: "a@b.com", PasswordHash: "$h", IsActive: true}

	us.On("GetByEmail", mock.Anything, "a@b.com").Return(user, nil)
	h.On("Verify", "secret-password", "$h").Return(true)
	h.On("NeedsRehash", "$h").Return(false)
	expectPair(tk, "u1")

	svc := newService(us, nil, tk, h, nil, nil)
	u, pair, err := svc.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "secret-password"})

	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	assert.Equal(t, "access-token", pair.AccessToken)
}

func TestLogin_RehashesStaleHash(t *testing.T) {
	us := &mockUserStore{}
	h := &mockHasher{}
	tk := &mockTokens{}
	user := &domain.User{UserID: "u1", Email: "a@b.com", PasswordHash: "$old", IsActive: true}

	us.On("GetByEmail", mock.Anything, "a@b.com").Return(user, nil)
	h.On("Verify", "secret-password", "$old").Return(true)
	h.On("NeedsRehash", "$old").Return(true)
	h.On("Hash", "secret-password").Return("$new", nil)
	us.On("Update", mock.Anything, "u1", map[string]interface{}{"password_hash": "$new"}).Return(nil)
	expectPair(tk, "u1")

	svc := newService(us, nil, tk, h, nil, nil)
	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "secret-password"})

	require.NoError(t, err)
	us.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	us := &mockUserStore{}
	h := &mockHasher{}
	user := &domain.User{UserID: "u1", PasswordHash: "$h", IsActive: true}

	us.On("GetByEmail", mock.Anything, "a@b.com").Return(user, nil)
	h.On("Verify", "wrong", "$h").Return(false)

	svc := newService(us, nil, nil, h, nil, nil)
	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "wrong"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_UnknownEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "x@x.com").Return(nil, domain.ErrNotFound)

	svc := newService(us, nil, nil, nil, nil, nil)
	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "x@x.com", Password: "whatever"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_PasswordlessAccount(t *testing.T) {
	us := &mockUserStore{}
	user := &domain.User{UserID: "u1", PasswordHash: "", IsActive: true}
	us.On("GetByEmail", mock.Anything, "a@b.com").Return(user, nil)

	svc := newService(us, nil, nil, &mockHasher{}, nil, nil)
	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "anything"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	us := &mockUserStore{}
	h := &mockHasher{}
	user := &domain.User{UserID: "u1", PasswordHash: "$h", IsActive: false}

	us.On("GetByEmail", mock.Anything, "a@b.com").Return(user, nil)
	h.On("Verify", "secret-password", "$h").Return(true)

	svc := newService(us, nil, nil, h, nil, nil)
	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "secret-password"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

// --- RequestLoginCode ---

func TestRequestLoginCode_Email(t *testing.T) {
	us := &mockUserStore{}
	codes := &mockCodes{}
	ml := &mockMailer{}
	user := &domain.User{UserID: "u1", Email: "a@b.com", IsActive: true}

	us.On("GetByEmail", mock.Anything, "a@b.com").Return(user, nil)
	codes.On("CreateCode", mock.Anything, "a@b.com").Return("123456", nil)
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.MatchedBy(func(body string) bool {
		return body == "Your login code: 123456"
	})).Return(nil)

	svc := newService(us, codes, nil, nil, ml, nil)
	ttl, err := svc.RequestLoginCode(context.Background(), RequestCodeRequest{Email: "a@b.com"})

	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, ttl)
	ml.AssertExpectations(t)
}

func TestRequestLoginCode_SMS(t *testing.T) {
	us := &mockUserStore{}
	codes := &mockCodes{}
	sms := &mockSMSSender{}
	user := &domain.User{UserID: "u1", Email: "a@b.com", Phone: strPtr("+15551234"), IsActive: true}

	us.On("GetByEmail", mock.Anything, "a@b.com").Return(user, nil)
	codes.On("CreateCode", mock.Anything, "a@b.com").Return("654321", nil)
	sms.On("SendSMS", mock.Anything, "+15551234", mock.Anything).Return(nil)

	svc := newService(us, codes, nil, nil, nil, sms)
	_, err := svc.RequestLoginCode(context.Background(), RequestCodeRequest{Email: "a@b.com", Channel: "sms"})

	require.NoError(t, err)
	sms.AssertExpectations(t)
}

func TestRequestLoginCode_SMSWithoutPhone(t *testing.T) {
	us := &mockUserStore{}
	codes := &mockCodes{}
	user := &domain.User{UserID: "u1", Email: "a@b.com", IsActive: true}

	us.On("GetByEmail", mock.Anything, "a@b.com").Return(user, nil)
	codes.On("CreateCode", mock.Anything, "a@b.com").Return("654321", nil)

	svc := newService(us, codes, nil, nil, nil, nil)
	_, err := svc.RequestLoginCode(context.Background(), RequestCodeRequest{Email: "a@b.com", Channel: "sms"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestRequestLoginCode_UnknownEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "x@x.com").Return(nil, domain.ErrNotFound)

	svc := newService(us, nil, nil, nil, nil, nil)
	_, err := svc.RequestLoginCode(context.Background(), RequestCodeRequest{Email: "x@x.com"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// --- VerifyLoginCode ---

func TestVerifyLoginCode_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	codes := &mockCodes{}
	tk := &mockTokens{}
	user := &domain.User{UserID: "u1", Email: "a@b.com", IsActive: true}

	us.On("GetByEmail", mock.Anything, "a@b.com").Return(user, nil)
	codes.On("VerifyCode", mock.Anything, "a@b.com", "123456").Return(true, nil)
	expectPair(tk, "u1")

	svc := newService(us, codes, tk, nil, nil, nil)
	u, pair, err := svc.VerifyLoginCode(context.Background(), VerifyCodeRequest{Email: "a@b.com", Code: "123456"})

	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestVerifyLoginCode_WrongCode(t *testing.T) {
	us := &mockUserStore{}
	codes := &mockCodes{}
	user := &domain.User{UserID: "u1", Email: "a@b.com", IsActive: true}

	us.On("GetByEmail", mock.Anything, "a@b.com").Return(user, nil)
	codes.On("VerifyCode", mock.Anything, "a@b.com", "000000").Return(false, nil)

	svc := newService(us, codes, nil, nil, nil, nil)
	_, _, err := svc.VerifyLoginCode(context.Background(), VerifyCodeRequest{Email: "a@b.com", Code: "000000"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestVerifyLoginCode_StoreErrorIsNotUnauthorized(t *testing.T) {
	us := &mockUserStore{}
	codes := &mockCodes{}
	user := &domain.User{UserID: "u1", Email: "a@b.com", IsActive: true}

	us.On("GetByEmail", mock.Anything, "a@b.com").Return(user, nil)
	codes.On("VerifyCode", mock.Anything, "a@b.com", "123456").Return(false, errors.New("redis: connection refused"))

	svc := newService(us, codes, nil, nil, nil, nil)
	_, _, err := svc.VerifyLoginCode(context.Background(), VerifyCodeRequest{Email: "a@b.com", Code: "123456"})

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestVerifyLoginCode_DeactivatedAccount(t *testing.T) {
	us := &mockUserStore{}
	codes := &mockCodes{}
	user := &domain.User{UserID: "u1", Email: "a@b.com", IsActive: false}

	us.On("GetByEmail", mock.Anything, "a@b.com").Return(user, nil)
	codes.On("VerifyCode", mock.Anything, "a@b.com", "123456").Return(true, nil)

	svc := newService(us, codes, nil, nil, nil, nil)
	_, _, err := svc.VerifyLoginCode(context.Background(), VerifyCodeRequest{Email: "a@b.com", Code: "123456"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

// --- Refresh ---

func refreshClaims(userID, tokenType string) *jwtinfra.Claims {
	return &jwtinfra.Claims{
		TokenType:        tokenType,
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
	}
}

func TestRefresh_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	tk := &mockTokens{}
	user := &domain.User{UserID: "u1", IsActive: true}

	tk.On("VerifyToken", "refresh-token").Return(refreshClaims("u1", domain.TokenTypeRefresh), nil)
	us.On("Get", mock.Anything, "u1").Return(user, nil)
	expectPair(tk, "u1")

	svc := newService(us, nil, tk, nil, nil, nil)
	pair, err := svc.Refresh(context.Background(), "refresh-token")

	require.NoError(t, err)
	assert.Equal(t, "access-token", pair.AccessToken)
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	tk := &mockTokens{}
	tk.On("VerifyToken", "access-token").Return(refreshClaims("u1", domain.TokenTypeAccess), nil)

	svc := newService(nil, nil, tk, nil, nil, nil)
	_, err := svc.Refresh(context.Background(), "access-token")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.Contains(t, err.Error(), "wrong token type")
}

func TestRefresh_InvalidToken(t *testing.T) {
	tk := &mockTokens{}
	tk.On("VerifyToken", "garbage").Return(nil, jwtinfra.ErrInvalidToken)

	svc := newService(nil, nil, tk, nil, nil, nil)
	_, err := svc.Refresh(context.Background(), "garbage")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestRefresh_DeactivatedAccount(t *testing.T) {
	us := &mockUserStore{}
	tk := &mockTokens{}
	user := &domain.User{UserID: "u1", IsActive: false}

	tk.On("VerifyToken", "refresh-token").Return(refreshClaims("u1", domain.TokenTypeRefresh), nil)
	us.On("Get", mock.Anything, "u1").Return(user, nil)

	svc := newService(us, nil, tk, nil, nil, nil)
	_, err := svc.Refresh(context.Background(), "refresh-token")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}
