package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"habitual/internal/config"
	"habitual/internal/core"
	"habitual/internal/log"
	"habitual/internal/storage"
)

// Service handles Google sign-in and session management.
type Service struct {
	repo   *storage.Repository
	oauth  *oauth2.Config
	logger *log.Logger
}

func NewService(cfg *config.Config, repo *storage.Repository, logger *log.Logger) *Service {
	return &Service{
		repo: repo,
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		logger: logger.WithComponent(log.ComponentAuth),
	}
}

// LoginURL returns the Google consent page URL carrying the CSRF state.
func (s *Service) LoginURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// HandleCallback exchanges the authorization code, fetches the Google profile
// and upserts the matching user.
func (s *Service) HandleCallback(ctx context.Context, code string) (core.User, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return core.User{}, fmt.Errorf("exchange code: %w", err)
	}

	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(s.oauth.TokenSource(ctx, token)))
	if err != nil {
		return core.User{}, fmt.Errorf("create userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return core.User{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	if info.Email == "" {
		return core.User{}, fmt.Errorf("userinfo response missing email")
	}

	return s.upsertUser(ctx, info)
}

func (s *Service) upsertUser(ctx context.Context, info *oauth2api.Userinfo) (core.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, info.Email)
	if errors.Is(err, storage.ErrNotFound) {
		user, err = s.repo.CreateUser(ctx, core.User{
			Name:          info.Name,
			Email:         info.Email,
			Image:         info.Picture,
			ShareProgress: true,
		})
		if err != nil {
			return core.User{}, fmt.Errorf("create user: %w", err)
		}
		s.logger.InfoContext(ctx, "New user signed up",
			log.FieldUserID, user.ID)
		return user, nil
	}
	if err != nil {
		return core.User{}, fmt.Errorf("look up user: %w", err)
	}

	// Refresh the Google-sourced profile fields on every sign-in.
	if user.Name != info.Name || user.Image != info.Picture {
		user.Name = info.Name
		user.Image = info.Picture
		if err := s.repo.UpdateProfile(ctx, user); err != nil {
			return core.User{}, fmt.Errorf("refresh profile: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "User signed in", log.FieldUserID, user.ID)
	return user, nil
}
