// Package client is a Go client for the board API. It implements the
// reorder transport so a Synchronizer can persist moves through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worldboard/server/internal/model"
	"github.com/worldboard/server/internal/reorder"
	"github.com/worldboard/server/internal/shared/config"
	apperrors "github.com/worldboard/server/internal/utils/errors"
)

// Client calls the board API as one authenticated user.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// New creates a client for the API rooted at baseURL, e.g.
// "https://board.example.com/api/v1".
func New(httpClient *http.Client, baseURL, token string) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// ListTasks fetches a world's task list in position order.
func (c *Client) ListTasks(ctx context.Context, worldID uuid.UUID) (*model.TaskList, error) {
	var list model.TaskList
	if err := c.do(ctx, http.MethodGet, "/worlds/"+worldID.String()+"/tasks", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Reorder sends a full reorder batch and returns the new list version.
func (c *Client) Reorder(ctx context.Context, worldID uuid.UUID, updates []model.PositionUpdate) (int64, error) {
	body := struct {
		Positions []model.PositionUpdate `json:"positions"`
	}{Positions: updates}

	var out struct {
		Version int64 `json:"version"`
	}
	if err := c.do(ctx, http.MethodPut, "/worlds/"+worldID.String()+"/tasks/positions", body, &out); err != nil {
		return 0, err
	}
	return out.Version, nil
}

// Synchronizer returns a reorder synchronizer for a world that persists
// through c.
func (c *Client) Synchronizer(worldID uuid.UUID, cfg *config.ReorderConfig, logger *zap.Logger) *reorder.Synchronizer {
	var opts []reorder.Option
	if logger != nil {
		opts = append(opts, reorder.WithLogger(logger))
	}
	if cfg != nil && cfg.GraceWindow > 0 {
		opts = append(opts, reorder.WithGraceWindow(cfg.GraceWindow))
	}
	return reorder.NewSynchronizer(worldID, c, opts...)
}

// Refresh fetches the world's task list and offers it to s. It reports
// whether s took the list.
func (c *Client) Refresh(ctx context.Context, s *reorder.Synchronizer, worldID uuid.UUID) (bool, error) {
	list, err := c.ListTasks(ctx, worldID)
	if err != nil {
		return false, err
	}
	return s.Apply(*list), nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError turns an error response back into the AppError the server
// sent, so callers can tell denials from conflicts.
func decodeError(resp *http.Response) error {
	var body apperrors.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return apperrors.FromResponse(resp.StatusCode, body)
}
