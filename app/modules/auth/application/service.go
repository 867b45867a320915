package authservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	authjwt "github.com/polp-online/schedule-service/app/modules/auth/infrastructure/jwt"
	scheduledb "github.com/polp-online/schedule-service/app/modules/schedule/infrastructure/repositories"
	"github.com/polp-online/schedule-service/config"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Identity is what the OAuth exchange yields about the caller.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// IdentityProvider turns an authorization code into a verified identity.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// Service handles login: OAuth exchange, user lookup-or-create by email,
// and token issuance.
type Service struct {
	identity IdentityProvider
	users    scheduledb.UserRepository
	jwt      authjwt.Provider
	ttl      time.Duration
	logger   *slog.Logger
}

// NewService creates the auth service.
func NewService(identity IdentityProvider, users scheduledb.UserRepository, jwtProvider authjwt.Provider, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		identity: identity,
		users:    users,
		jwt:      jwtProvider,
		ttl:      ttl,
		logger:   logger,
	}
}

// LoginURL returns the provider URL the client is redirected to.
func (s *Service) LoginURL(state string) string {
	return s.identity.AuthCodeURL(state)
}

// HandleCallback completes the OAuth flow: exchanges the code, resolves
// the user by email (creating the row on first login), and issues a
// bearer token.
func (s *Service) HandleCallback(ctx context.Context, code string) (string, error) {
	identity, err := s.identity.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("oauth exchange failed: %w", err)
	}

	user, err := s.users.GetUserByEmail(ctx, identity.Email)
	if err != nil {
		if !errors.Is(err, scheduledb.ErrUserNotFound) {
			return "", fmt.Errorf("failed to look up user: %w", err)
		}

		user = &scheduledb.User{
			Email: identity.Email,
		}
		if identity.Name != "" {
			user.Name = &identity.Name
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return "", fmt.Errorf("failed to create user: %w", err)
		}

		s.logger.InfoContext(ctx, "created user on first login",
			slog.Int64("user_id", user.ID),
			slog.String("email", user.Email),
		)
	}

	token, err := s.jwt.GenerateToken(&authjwt.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Admin:  user.Admin,
	}, s.ttl)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	return token, nil
}

// googleIdentityProvider is the production IdentityProvider backed by
// Google's OAuth endpoint.
type googleIdentityProvider struct {
	config *oauth2.Config
}

// NewGoogleIdentityProvider builds the Google-backed identity provider
// from service configuration.
func NewGoogleIdentityProvider(cfg config.OAuthConfig) IdentityProvider {
	return &googleIdentityProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (p *googleIdentityProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (p *googleIdentityProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	client := p.config.Client(ctx, token)
	resp, err := client.Get(userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("user info request returned status %d", resp.StatusCode)
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if identity.Email == "" {
		return nil, fmt.Errorf("user info response contained no email")
	}

	return &identity, nil
}
