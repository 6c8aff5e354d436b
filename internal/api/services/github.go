package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"

	"cvforge/internal/config"
)

// GitHubOAuth drives the optional "log in with GitHub" flow.
type GitHubOAuth struct {
	config *oauth2.Config
}

func NewGitHubOAuth(cfg config.GitHubOAuthConfig) *GitHubOAuth {
	return &GitHubOAuth{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     oauthgithub.Endpoint,
		},
	}
}

func (g *GitHubOAuth) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

type GitHubUser struct {
	Login string `json:"login"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Exchange trades the callback code for a token and fetches the GitHub user
// behind it.
func (g *GitHubOAuth) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	client := g.config.Client(ctx, token)
	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from user info endpoint", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var user GitHubUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	if user.Email == "" {
		// The public email can be hidden; fall back to the noreply form.
		user.Email = user.Login + "@users.noreply.github.com"
	}
	return &user, nil
}
