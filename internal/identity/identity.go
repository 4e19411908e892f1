// Package identity adapts external OAuth identity providers to the profile
// the user store needs on login.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. The caller redirects the browser to AuthURL(state).
//  2. The provider redirects back with a short-lived code.
//  3. Exchange trades the code for a token (server-to-server, using the
//     client secret) and fetches the user's profile with it.
//
// The returned token is handed to the identity service, which seals it and
// binds it to the browser session. Nothing in this package stores anything.
package identity

import (
	"context"

	"golang.org/x/oauth2"
)

// Profile is what a provider tells us about the person who just signed in.
// ID is namespaced by provider ("github:12345") so ids never collide across
// providers.
type Profile struct {
	ID              string
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
	Login           string
}

// Provider is one external identity provider.
type Provider interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, *oauth2.Token, error)
}

// NewState returns an unguessable value for the OAuth state parameter: 32
// random bytes, base64url encoded. The caller stores it (cookie, session)
// and compares it on callback.
func NewState() string {
	return oauth2.GenerateVerifier()
}
