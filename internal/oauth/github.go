package oauth

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dimitrije/sitecms/internal/config"
	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

type GitHubProvider struct {
	config     *oauth2.Config
	apiBaseURL *url.URL
}

func NewGitHubProvider(cfg config.OAuthConfig) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"read:user"},
			Endpoint:     github.Endpoint,
		},
	}
}

// WithAPIBaseURL points user lookups at a GitHub Enterprise or test server.
func (p *GitHubProvider) WithAPIBaseURL(raw string) (*GitHubProvider, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	p.apiBaseURL = u
	return p, nil
}

func (p *GitHubProvider) Name() string {
	return "github"
}

func (p *GitHubProvider) GetConsentURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (p *GitHubProvider) ExchangeCode(ctx context.Context, code string) (*UserInfo, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	client := gh.NewClient(p.config.Client(ctx, token))
	if p.apiBaseURL != nil {
		client.BaseURL = p.apiBaseURL
	}

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	if user.GetLogin() == "" {
		return nil, fmt.Errorf("github user has no login")
	}

	name := user.GetName()
	if name == "" {
		name = user.GetLogin()
	}

	return &UserInfo{
		Login:     user.GetLogin(),
		Name:      name,
		Email:     user.GetEmail(),
		AvatarURL: user.GetAvatarURL(),
		ID:        fmt.Sprintf("%d", user.GetID()),
		Provider:  "github",
	}, nil
}
