package ytraceweb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client queries and mutates a remote registry through its ytraceweb
// endpoint. Pair it with an HTTP client whose transport has unix socket
// support registered to reach http+unix:// URIs.
type Client struct {
	client HTTPClient
	uri    string
}

func NewClient(client HTTPClient, uri string) *Client {
	if !strings.Contains(uri, "://") {
		uri = "http://" + uri
	}
	return &Client{
		client: client,
		uri:    uri,
	}
}

// State fetches the current points and timers.
func (c *Client) State(ctx context.Context) (*StateData, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.uri, nil)
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}

	httpReq.Header.Set("accept", "application/json")

	var data StateData
	if err := c.do(httpReq, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Toggle applies the given action, returning how many points it applied to.
func (c *Client) Toggle(ctx context.Context, action string, specs []string) (int, error) {
	body, err := json.Marshal(ToggleRequest{Action: action, Specs: specs})
	if err != nil {
		return 0, fmt.Errorf("encode toggle request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.uri, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create HTTP request: %w", err)
	}

	httpReq.Header.Set("content-type", "application/json; charset=utf-8")

	var res ToggleResponse
	if err := c.do(httpReq, &res); err != nil {
		return 0, err
	}
	return res.Applied, nil
}

func (c *Client) do(httpReq *http.Request, into any) error {
	httpRes, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("execute HTTP request: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, httpRes.Body)
		httpRes.Body.Close()
	}()

	if httpRes.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP response %d %s", httpRes.StatusCode, http.StatusText(httpRes.StatusCode))
	}

	if err := json.NewDecoder(httpRes.Body).Decode(into); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

var _ HTTPClient = (*http.Client)(nil)
