package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/worldboard/server/internal/model"
)

// RemoteProvider queries an identity service over HTTP.
//
//	GET {base}/users/by-username/{username} -> {"user_id": "..."}
//	GET {base}/users/{id}/profile           -> model.Profile
type RemoteProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewRemoteProvider creates a new remote provider.
func NewRemoteProvider(client *http.Client, baseURL, apiKey string) *RemoteProvider {
	return &RemoteProvider{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// ResolveUsername resolves a username through the identity service.
func (p *RemoteProvider) ResolveUsername(ctx context.Context, username string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", ErrUserNotFound
	}

	var out struct {
		UserID string `json:"user_id"`
	}
	if err := p.get(ctx, "/users/by-username/"+url.PathEscape(username), &out); err != nil {
		return "", err
	}
	if out.UserID == "" {
		return "", ErrUserNotFound
	}
	return out.UserID, nil
}

// GetProfile fetches a profile from the identity service.
func (p *RemoteProvider) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	if err := p.get(ctx, "/users/"+url.PathEscape(userID)+"/profile", &profile); err != nil {
		return nil, err
	}
	if profile.UserID == "" {
		profile.UserID = userID
	}
	return &profile, nil
}

func (p *RemoteProvider) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrUserNotFound
	case resp.StatusCode >= 300:
		return fmt.Errorf("identity service returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode identity response: %w", err)
	}
	return nil
}
