package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// TokenSource mints a bearer token for the dispatch call; the server wires
// in its own JWT issuer here.
type TokenSource func() (string, error)

// Client calls the notification dispatch function over HTTP. Dispatch is
// best-effort and stateless; callers treat failures as loggable, never as
// something to roll back for.
type Client struct {
	url        string
	tokens     TokenSource
	httpClient *http.Client
}

func NewClient(url string, tokens TokenSource) *Client {
	return &Client{
		url:    url,
		tokens: tokens,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Dispatch(ctx context.Context, r Request) error {
	token, err := c.tokens()
	if err != nil {
		return fmt.Errorf("mint dispatch token: %w", err)
	}

	body, err := json.Marshal(r)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch request: %w", err)
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("dispatch response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !out.Success {
		if out.Error != "" {
			return fmt.Errorf("dispatch failed: %s", out.Error)
		}
		return fmt.Errorf("dispatch failed: status %d", resp.StatusCode)
	}
	return nil
}
