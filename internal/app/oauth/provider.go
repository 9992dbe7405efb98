// Package oauth talks to the third-party OAuth identity provider.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Provider exchanges authorization codes and resolves the provider's stable user id.
type Provider interface {
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchUserID(ctx context.Context, token *oauth2.Token) (int64, error)
}

type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	APIBaseURL   string // e.g. https://api.github.com
}

// GitHubProvider implements Provider for GitHub-compatible servers.
type GitHubProvider struct {
	oauth      *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

func NewGitHubProvider(cfg Config) *GitHubProvider {
	return &GitHubProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBaseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return tok, nil
}

type githubUser struct {
	ID *int64 `json:"id"`
}

func (p *GitHubProvider) FetchUserID(ctx context.Context, token *oauth2.Token) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+"/user", nil)
	if err != nil {
		return 0, fmt.Errorf("building user request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("fetching user: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var u githubUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return 0, fmt.Errorf("decoding user: %w", err)
	}
	if u.ID == nil {
		return 0, errors.New("user response has no id")
	}
	return *u.ID, nil
}
