package authservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authjwt "github.com/polp-online/schedule-service/app/modules/auth/infrastructure/jwt"
	scheduledb "github.com/polp-online/schedule-service/app/modules/schedule/infrastructure/repositories"
)

// ------------------------
// Fake Identity Provider
// ------------------------

type FakeIdentityProvider struct {
	AuthCodeURLFunc func(state string) string
	ExchangeFunc    func(ctx context.Context, code string) (*Identity, error)
}

func (f *FakeIdentityProvider) AuthCodeURL(state string) string {
	if f.AuthCodeURLFunc != nil {
		return f.AuthCodeURLFunc(state)
	}
	return "https://provider.example.com/auth?state=" + state
}

func (f *FakeIdentityProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	if f.ExchangeFunc != nil {
		return f.ExchangeFunc(ctx, code)
	}
	return &Identity{Email: "user@example.com", Name: "Test User"}, nil
}

// ------------------------
// Fake User Repository
// ------------------------

type FakeUserRepository struct {
	trace []string

	GetUserByEmailFunc func(ctx context.Context, email string) (*scheduledb.User, error)
	CreateUserFunc     func(ctx context.Context, user *scheduledb.User) error
}

func (f *FakeUserRepository) Trace() []string {
	return f.trace
}

func (f *FakeUserRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeUserRepository) GetUserByEmail(ctx context.Context, email string) (*scheduledb.User, error) {
	f.record("GetUserByEmail")
	if f.GetUserByEmailFunc != nil {
		return f.GetUserByEmailFunc(ctx, email)
	}
	return &scheduledb.User{ID: 1, Email: email}, nil
}

func (f *FakeUserRepository) CreateUser(ctx context.Context, user *scheduledb.User) error {
	f.record("CreateUser")
	if f.CreateUserFunc != nil {
		return f.CreateUserFunc(ctx, user)
	}
	user.ID = 99
	return nil
}

// ------------------------
// Fake JWT Provider
// ------------------------

type FakeJWTProvider struct {
	GenerateTokenFunc func(claims *authjwt.Claims, ttl time.Duration) (string, error)
	ValidateTokenFunc func(tokenString string) (*authjwt.Claims, error)
}

func (f *FakeJWTProvider) GenerateToken(claims *authjwt.Claims, ttl time.Duration) (string, error) {
	if f.GenerateTokenFunc != nil {
		return f.GenerateTokenFunc(claims, ttl)
	}
	return "fake-token", nil
}

func (f *FakeJWTProvider) ValidateToken(tokenString string) (*authjwt.Claims, error) {
	if f.ValidateTokenFunc != nil {
		return f.ValidateTokenFunc(tokenString)
	}
	return &authjwt.Claims{UserID: 1}, nil
}

func newTestAuthService(identity *FakeIdentityProvider, users *FakeUserRepository, jwtProvider *FakeJWTProvider) *Service {
	return NewService(identity, users, jwtProvider, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleCallback_ExistingUser(t *testing.T) {
	var issued *authjwt.Claims
	users := &FakeUserRepository{
		GetUserByEmailFunc: func(_ context.Context, email string) (*scheduledb.User, error) {
			return &scheduledb.User{ID: 7, Email: email, Admin: true}, nil
		},
	}
	jwtProvider := &FakeJWTProvider{
		GenerateTokenFunc: func(claims *authjwt.Claims, ttl time.Duration) (string, error) {
			issued = claims
			assert.Equal(t, time.Hour, ttl)
			return "signed-token", nil
		},
	}

	token, err := newTestAuthService(&FakeIdentityProvider{}, users, jwtProvider).
		HandleCallback(context.Background(), "auth-code")
	require.NoError(t, err)

	assert.Equal(t, "signed-token", token)
	require.NotNil(t, issued)
	assert.Equal(t, int64(7), issued.UserID)
	assert.Equal(t, "user@example.com", issued.Email)
	assert.True(t, issued.Admin)
	assert.Equal(t, []string{"GetUserByEmail"}, users.Trace())
}

func TestHandleCallback_CreatesUserOnFirstLogin(t *testing.T) {
	var created *scheduledb.User
	users := &FakeUserRepository{
		GetUserByEmailFunc: func(context.Context, string) (*scheduledb.User, error) {
			return nil, scheduledb.ErrUserNotFound
		},
		CreateUserFunc: func(_ context.Context, user *scheduledb.User) error {
			user.ID = 123
			created = user
			return nil
		},
	}

	token, err := newTestAuthService(&FakeIdentityProvider{}, users, &FakeJWTProvider{}).
		HandleCallback(context.Background(), "auth-code")
	require.NoError(t, err)

	assert.Equal(t, "fake-token", token)
	require.NotNil(t, created)
	assert.Equal(t, "user@example.com", created.Email)
	require.NotNil(t, created.Name)
	assert.Equal(t, "Test User", *created.Name)
	assert.Equal(t, []string{"GetUserByEmail", "CreateUser"}, users.Trace())
}

func TestHandleCallback_ExchangeFailure(t *testing.T) {
	identity := &FakeIdentityProvider{
		ExchangeFunc: func(context.Context, string) (*Identity, error) {
			return nil, errors.New("code already used")
		},
	}
	users := &FakeUserRepository{}

	_, err := newTestAuthService(identity, users, &FakeJWTProvider{}).
		HandleCallback(context.Background(), "auth-code")

	require.Error(t, err)
	assert.Empty(t, users.Trace(), "no store access when the exchange fails")
}

func TestHandleCallback_LookupFailureIsNotTreatedAsNewUser(t *testing.T) {
	storeErr := errors.New("connection refused")
	users := &FakeUserRepository{
		GetUserByEmailFunc: func(context.Context, string) (*scheduledb.User, error) {
			return nil, storeErr
		},
	}

	_, err := newTestAuthService(&FakeIdentityProvider{}, users, &FakeJWTProvider{}).
		HandleCallback(context.Background(), "auth-code")

	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, []string{"GetUserByEmail"}, users.Trace())
}

func TestLoginURL(t *testing.T) {
	svc := newTestAuthService(&FakeIdentityProvider{}, &FakeUserRepository{}, &FakeJWTProvider{})

	url := svc.LoginURL("xyz")
	assert.Contains(t, url, "state=xyz")
}
