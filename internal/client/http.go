package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chain-calculator/internal/auth"
	"chain-calculator/internal/db"
	"chain-calculator/internal/logger"
	"chain-calculator/internal/respond"
)

// HTTPClient is the REST implementation of ChainClient.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient talks to the REST API rooted at baseURL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Signup(ctx context.Context, username, password string) (int64, error) {
	var resp auth.SignupResponse
	err := c.do(ctx, http.MethodPost, "/signup", "", auth.Credentials{Username: username, Password: password}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.UserID, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*Session, error) {
	var resp auth.LoginResponse
	err := c.do(ctx, http.MethodPost, "/login", "", auth.Credentials{Username: username, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	return &Session{Token: resp.Token, Username: resp.Username, UserID: resp.UserID}, nil
}

func (c *HTTPClient) ListNodes(ctx context.Context) ([]*db.Node, error) {
	var resp struct {
		Data []*db.Node `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/post", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *HTTPClient) CreateRoot(ctx context.Context, token, value string) (*db.Node, error) {
	var node db.Node
	body := map[string]string{"value": value}
	if err := c.do(ctx, http.MethodPost, "/post", token, body, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

func (c *HTTPClient) Reply(ctx context.Context, token string, parentID int64, operation, value string) (*db.Node, error) {
	var node db.Node
	body := map[string]any{"parentId": parentID, "operation": operation, "value": value}
	if err := c.do(ctx, http.MethodPost, "/post/reply", token, body, &node); err != nil {
		return nil, err
	}
	return &node, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	logger.Log.Debug().Str("method", method).Str("path", path).Msg("sending request")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var body respond.ErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	}

	logger.Log.Debug().Int("status", apiErr.Status).Str("error", apiErr.Message).Msg("request failed")
	return apiErr
}
