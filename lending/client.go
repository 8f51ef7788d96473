// Package lending talks to the Go lending backend and aggregates
// portfolio data for the assistant. The backend returns loosely typed
// records; missing or malformed fields degrade to zero values and never
// propagate as errors past the aggregator.
package lending

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Backend is the remote lending API contract.
type Backend interface {
	RegisterUser(ctx context.Context, accountID, topicID string) (map[string]any, error)
	GetPortfolio(ctx context.Context, accountID string) (map[string]any, error)
	GetTokenizedAssets(ctx context.Context, accountID string) ([]map[string]any, error)
	TokenizePortfolio(ctx context.Context, accountID string) (map[string]any, error)
	CheckTopicExists(ctx context.Context, accountID string) (map[string]any, error)
}

// Client is the HTTP client for the lending backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a lending backend client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// RegisterUser registers a user by ledger account and consensus topic.
// An idempotency key makes blind retries safe under network partitions.
func (c *Client) RegisterUser(ctx context.Context, accountID, topicID string) (map[string]any, error) {
	return c.postObject(ctx, fmt.Sprintf("/auth/register/%s/%s", accountID, topicID), true)
}

// GetPortfolio fetches the raw portfolio snapshot for an account.
func (c *Client) GetPortfolio(ctx context.Context, accountID string) (map[string]any, error) {
	return c.getObject(ctx, "/portfolio/"+accountID)
}

// GetTokenizedAssets fetches the raw tokenized-asset entries for an account.
func (c *Client) GetTokenizedAssets(ctx context.Context, accountID string) ([]map[string]any, error) {
	body, err := c.get(ctx, "/tokenized-assets/"+accountID)
	if err != nil {
		return nil, err
	}

	var list []map[string]any
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tokenized assets: %w", err)
	}
	return list, nil
}

// TokenizePortfolio asks the backend to tokenize eligible assets.
func (c *Client) TokenizePortfolio(ctx context.Context, accountID string) (map[string]any, error) {
	body, err := c.do(ctx, http.MethodGet, "/tokenize-portfolio/"+accountID, true)
	if err != nil {
		return nil, err
	}
	return unmarshalObject(body)
}

// CheckTopicExists reports whether a consensus topic is already
// registered for the account.
func (c *Client) CheckTopicExists(ctx context.Context, accountID string) (map[string]any, error) {
	return c.getObject(ctx, "/topics/exists/"+accountID)
}

func (c *Client) getObject(ctx context.Context, path string) (map[string]any, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	return unmarshalObject(body)
}

func (c *Client) postObject(ctx context.Context, path string, idempotent bool) (map[string]any, error) {
	body, err := c.do(ctx, http.MethodPost, path, idempotent)
	if err != nil {
		return nil, err
	}
	return unmarshalObject(body)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, false)
}

func (c *Client) do(ctx context.Context, method, path string, idempotent bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if idempotent {
		req.Header.Set("X-Idempotency-Key", uuid.New().String())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend error [%d]: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func unmarshalObject(body []byte) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return obj, nil
}
