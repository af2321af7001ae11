package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPIURL = "https://api.github.com"

// GitHubOAuthConfig holds GitHub client credentials.
type GitHubOAuthConfig struct {
	ClientID     string   `env:"GITHUB_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"GITHUB_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"GITHUB_OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"GITHUB_OAUTH_SCOPES" envSeparator:"," envDefault:"read:user,user:email"`
}

type githubAdapter struct {
	conf       *oauth2.Config
	httpClient *http.Client
	apiURL     string
}

func NewGitHubAdapter(cfg GitHubOAuthConfig) ProviderAdapter {
	return &githubAdapter{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     github.Endpoint,
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     githubAPIURL,
	}
}

func (a *githubAdapter) ProviderID() string {
	return OAuthProviderGithub
}

func (a *githubAdapter) AuthURL(state string) (string, error) {
	return a.conf.AuthCodeURL(state), nil
}

// ResolveProfile reads the verification flag from /user/emails since
// /user may omit the email or return an unverified one.
func (a *githubAdapter) ResolveProfile(ctx context.Context, code string) (ProviderProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return ProviderProfile{}, exchangeError(err)
	}

	var u struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, a.httpClient, a.apiURL+"/user", tok.AccessToken, &u); err != nil {
		return ProviderProfile{}, fmt.Errorf("fetch github user: %w", err)
	}
	if u.ID == 0 {
		return ProviderProfile{}, fmt.Errorf("github user without id: %w", ErrProviderUnavailable)
	}

	var emails []ghEmail
	if err := getJSON(ctx, a.httpClient, a.apiURL+"/user/emails", tok.AccessToken, &emails); err != nil {
		return ProviderProfile{}, fmt.Errorf("fetch github emails: %w", err)
	}

	email, ok := pickGitHubEmail(emails)
	if !ok {
		return ProviderProfile{}, ErrNoPrimaryEmail
	}

	name := u.Name
	if name == "" {
		name = u.Login
	}

	return ProviderProfile{
		Subject:       strconv.FormatInt(u.ID, 10),
		Email:         email,
		EmailVerified: true,
		Name:          name,
		AvatarURL:     u.AvatarURL,
	}, nil
}

type ghEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// pickGitHubEmail prefers the primary verified address, then any verified one.
func pickGitHubEmail(emails []ghEmail) (string, bool) {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, true
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, true
		}
	}
	return "", false
}

var _ ProviderAdapter = (*githubAdapter)(nil)
