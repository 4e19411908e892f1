package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const defaultGitHubUserURL = "https://api.github.com/user"

// githubUser is the portion of the GitHub /user response we use.
//
// GitHub API docs: https://docs.github.com/en/rest/users/users#get-the-authenticated-user
type githubUser struct {
	ID        int64  `json:"id"` // stable, never changes
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"` // empty if hidden in GitHub settings
	AvatarURL string `json:"avatar_url"`
}

type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string

	// Endpoint and UserURL default to github.com. Tests and GitHub
	// Enterprise installs override them.
	Endpoint oauth2.Endpoint
	UserURL  string
}

// GitHubProvider wraps golang.org/x/oauth2 for GitHub sign-in.
//
// Scopes requested:
//   - "read:user"  public profile (id, login, name, avatar)
//   - "user:email" the primary email
type GitHubProvider struct {
	config  *oauth2.Config
	userURL string
}

var _ Provider = (*GitHubProvider)(nil)

func NewGitHubProvider(cfg GitHubConfig) *GitHubProvider {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = github.Endpoint
	}
	userURL := cfg.UserURL
	if userURL == "" {
		userURL = defaultGitHubUserURL
	}
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     endpoint,
		},
		userURL: userURL,
	}
}

func (p *GitHubProvider) Name() string { return "github" }

func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for a token and the user's profile.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Profile, *oauth2.Token, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("identity: exchanging OAuth code: %w", err)
	}

	// The client adds "Authorization: Bearer <token>" to every request.
	client := p.config.Client(ctx, tok)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("identity: building GitHub /user request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("identity: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("identity: GitHub /user API returned status %d", resp.StatusCode)
	}

	var gh githubUser
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return nil, nil, fmt.Errorf("identity: decoding GitHub /user response: %w", err)
	}
	if gh.ID == 0 {
		return nil, nil, fmt.Errorf("identity: GitHub returned an invalid user (ID = 0)")
	}

	return gh.profile(), tok, nil
}

func (u githubUser) profile() *Profile {
	first, last, _ := strings.Cut(strings.TrimSpace(u.Name), " ")
	if first == "" {
		first = u.Login
	}
	return &Profile{
		ID:              "github:" + strconv.FormatInt(u.ID, 10),
		Email:           u.Email,
		FirstName:       first,
		LastName:        strings.TrimSpace(last),
		ProfileImageURL: u.AvatarURL,
		Login:           u.Login,
	}
}
