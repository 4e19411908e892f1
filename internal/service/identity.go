package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/oauth2"

	"github.com/sakif/skill-sangam/internal/apperror"
	"github.com/sakif/skill-sangam/internal/credential"
	"github.com/sakif/skill-sangam/internal/identity"
	"github.com/sakif/skill-sangam/internal/model"
	"github.com/sakif/skill-sangam/internal/repository"
)

// IdentityService binds provider logins to users and browser sessions.
//
// A grant is keyed by (user, browser session, provider). Tokens are sealed
// before they reach the store and opened only when a caller asks for the
// grant, so the database never holds a usable bearer token.
type IdentityService struct {
	users  repository.UserRepository
	oauth  repository.OAuthRepository
	sealer *credential.Sealer
	retry  RetryPolicy
	logger *slog.Logger
}

func NewIdentityService(
	users repository.UserRepository,
	oauth repository.OAuthRepository,
	sealer *credential.Sealer,
	retry RetryPolicy,
	logger *slog.Logger,
) *IdentityService {
	return &IdentityService{users: users, oauth: oauth, sealer: sealer, retry: retry, logger: logger}
}

// Login creates the user on first sight (or refreshes the provider-owned
// profile fields) and stores the token for this browser session. Two logins
// racing on the same session leave exactly one grant.
func (s *IdentityService) Login(ctx context.Context, profile *identity.Profile, provider, sessionKey string, tok *oauth2.Token) (*model.User, error) {
	if profile == nil {
		return nil, apperror.ValidationFailed("profile", "identity profile is required")
	}

	user := &model.User{
		ID:              strings.TrimSpace(profile.ID),
		Email:           trimPtr(&profile.Email),
		FirstName:       strings.TrimSpace(profile.FirstName),
		LastName:        strings.TrimSpace(profile.LastName),
		ProfileImageURL: strings.TrimSpace(profile.ProfileImageURL),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	sealed, err := s.sealer.Seal(tok)
	if err != nil {
		return nil, apperror.ValidationFailed("token", err.Error())
	}
	cred := &model.OAuthCredential{
		Provider:          strings.TrimSpace(provider),
		Token:             sealed,
		UserID:            user.ID,
		BrowserSessionKey: strings.TrimSpace(sessionKey),
	}
	if err := cred.Validate(); err != nil {
		return nil, err
	}

	err = withRetryErr(ctx, s.retry, s.logger, "login", func() error {
		if err := s.users.Upsert(ctx, user); err != nil {
			return fmt.Errorf("upserting user %s: %w", user.ID, err)
		}
		if err := s.oauth.Upsert(ctx, cred); err != nil {
			return fmt.Errorf("storing grant for user %s: %w", user.ID, err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("login failed",
			slog.String("userID", user.ID),
			slog.String("provider", cred.Provider),
			errAttr(err),
		)
		return nil, err
	}

	s.logger.Info("user authenticated",
		slog.String("userID", user.ID),
		slog.String("provider", cred.Provider),
	)
	return user, nil
}

// Refresh replaces the token of an existing grant. It never creates one.
func (s *IdentityService) Refresh(ctx context.Context, key model.OAuthKey, tok *oauth2.Token) error {
	if err := key.Validate(); err != nil {
		return err
	}
	sealed, err := s.sealer.Seal(tok)
	if err != nil {
		return apperror.ValidationFailed("token", err.Error())
	}
	err = withRetryErr(ctx, s.retry, s.logger, "refreshing grant", func() error {
		return s.oauth.UpdateToken(ctx, key, sealed)
	})
	if err != nil {
		return err
	}
	s.logger.Debug("grant refreshed", slog.String("userID", key.UserID), slog.String("provider", key.Provider))
	return nil
}

// Grant returns the opened token stored for key.
func (s *IdentityService) Grant(ctx context.Context, key model.OAuthKey) (*oauth2.Token, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	cred, err := s.oauth.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	tok, err := s.sealer.Open(cred.Token)
	if err != nil {
		return nil, fmt.Errorf("opening grant %s: %w", key, err)
	}
	return tok, nil
}

func (s *IdentityService) Logout(ctx context.Context, key model.OAuthKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	err := withRetryErr(ctx, s.retry, s.logger, "logout", func() error {
		return s.oauth.Delete(ctx, key)
	})
	if err != nil {
		return err
	}
	s.logger.Info("user logged out", slog.String("userID", key.UserID), slog.String("provider", key.Provider))
	return nil
}

// Sessions lists the user's grants, most recently refreshed first. Tokens
// stay sealed.
func (s *IdentityService) Sessions(ctx context.Context, userID string) ([]model.OAuthCredential, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}
	return s.oauth.ListByUser(ctx, userID)
}
