package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/sakif/skill-sangam/internal/apperror"
)

const MaxProviderLength = 50

// OAuthKey identifies one grant: a user, signed in from one browser session,
// through one provider. At most one credential exists per key.
type OAuthKey struct {
	UserID            string
	BrowserSessionKey string
	Provider          string
}

func (k OAuthKey) String() string {
	return k.UserID + "/" + k.Provider + "/" + k.BrowserSessionKey
}

func (k OAuthKey) Validate() error {
	if strings.TrimSpace(k.UserID) == "" {
		return apperror.ValidationFailed("userId", "user id is required")
	}
	if strings.TrimSpace(k.BrowserSessionKey) == "" {
		return apperror.ValidationFailed("browserSessionKey", "browser session key is required")
	}
	provider := strings.TrimSpace(k.Provider)
	if provider == "" {
		return apperror.ValidationFailed("provider", "provider is required")
	}
	if len(provider) > MaxProviderLength {
		return apperror.ValidationFailed("provider",
			fmt.Sprintf("provider must be %d characters or less", MaxProviderLength))
	}
	return nil
}

// OAuthCredential is a stored provider grant.
//
// Token is an opaque sealed payload (see package credential). The store never
// looks inside it.
type OAuthCredential struct {
	ID                string    `json:"id"`
	Provider          string    `json:"provider"`
	Token             []byte    `json:"-"`
	UserID            string    `json:"userId"`
	BrowserSessionKey string    `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (c *OAuthCredential) Key() OAuthKey {
	return OAuthKey{UserID: c.UserID, BrowserSessionKey: c.BrowserSessionKey, Provider: c.Provider}
}

func (c *OAuthCredential) Validate() error {
	if err := c.Key().Validate(); err != nil {
		return err
	}
	if len(c.Token) == 0 {
		return apperror.ValidationFailed("token", "token payload is required")
	}
	return nil
}
