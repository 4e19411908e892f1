package identity

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeGitHub serves the token and /user endpoints.
func fakeGitHub(t *testing.T, userStatus int, userBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"bad_verification_code"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"gho_abc","token_type":"bearer","scope":"read:user"}`)
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gho_abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(userStatus)
		fmt.Fprint(w, userBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server) *GitHubProvider {
	return NewGitHubProvider(GitHubConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		CallbackURL:  "http://localhost/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   srv.URL + "/login/oauth/authorize",
			TokenURL:  srv.URL + "/login/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		UserURL: srv.URL + "/user",
	})
}

func TestGitHubExchange(t *testing.T) {
	srv := fakeGitHub(t, http.StatusOK,
		`{"id":42,"login":"sakif","name":"Sakif Ahmed","email":"s@example.com","avatar_url":"https://img/42"}`)
	p := newTestProvider(srv)

	profile, tok, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "gho_abc", tok.AccessToken)
	assert.Equal(t, &Profile{
		ID:              "github:42",
		Email:           "s@example.com",
		FirstName:       "Sakif",
		LastName:        "Ahmed",
		ProfileImageURL: "https://img/42",
		Login:           "sakif",
	}, profile)
}

func TestGitHubExchangeErrors(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		status int
		body   string
	}{
		{"bad code", "bad-code", http.StatusOK, `{"id":1}`},
		{"user api failure", "good-code", http.StatusInternalServerError, `{}`},
		{"zero id", "good-code", http.StatusOK, `{"id":0,"login":"ghost"}`},
		{"malformed body", "good-code", http.StatusOK, `{not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(fakeGitHub(t, tt.status, tt.body))
			_, _, err := p.Exchange(context.Background(), tt.code)
			assert.Error(t, err)
		})
	}
}

func TestGitHubAuthURL(t *testing.T) {
	p := NewGitHubProvider(GitHubConfig{ClientID: "client", CallbackURL: "http://localhost/cb"})
	assert.Equal(t, "github", p.Name())

	u, err := url.Parse(p.AuthURL("state-123"))
	require.NoError(t, err)
	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "state-123", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
	assert.Equal(t, "read:user user:email", u.Query().Get("scope"))
}

func TestProfileNameFallback(t *testing.T) {
	p := githubUser{ID: 7, Login: "solo"}.profile()
	assert.Equal(t, "solo", p.FirstName)
	assert.Empty(t, p.LastName)
	assert.Equal(t, "github:7", p.ID)
}

func TestNewStateUnpredictable(t *testing.T) {
	a, b := NewState(), NewState()
	assert.NotEqual(t, a, b)

	// 32 random bytes, unpadded base64url.
	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	shared := 0
	for shared < len(a) && shared < len(b) && a[shared] == b[shared] {
		shared++
	}
	assert.Less(t, shared, 8, "consecutive states share a %d character prefix: %s %s", shared, a, b)
}
