package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/lorekeeper/internal/common"
)

// HTTPClient is the Client implementation backed by the backend's JSON API.
// One instance is shared by the auth service and the status watcher, so the
// token is guarded by a mutex.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPClient constructs a client for the given base URL ("https://host").
// timeout bounds every request; there is no other cancellation path, so a
// hung backend surfaces as ErrUnavailable after at most timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type verificationResponse struct {
	EmailVerified bool `json:"email_verified"`
}

type pingResponse struct {
	Status string `json:"status"`
}

type createProjectRequest struct {
	Name  string `json:"name"`
	Genre string `json:"genre"`
}

func (c *HTTPClient) SignUp(ctx context.Context, email string, password []byte) (*AuthResult, error) {
	var out AuthResult
	status, err := c.do(ctx, http.MethodPost, "/api/auth/signup", signUpRequest{Email: email, Password: string(password)}, &out, false)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK, http.StatusCreated:
		c.SetToken(out.Token)
		return &out, nil
	case http.StatusConflict:
		return nil, common.ErrEmailTaken
	default:
		return nil, c.unexpectedStatus(status)
	}
}

func (c *HTTPClient) SignIn(ctx context.Context, email string, password []byte, rememberMe bool) (*AuthResult, error) {
	var out AuthResult
	status, err := c.do(ctx, http.MethodPost, "/api/auth/signin", signInRequest{Email: email, Password: string(password), RememberMe: rememberMe}, &out, false)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		c.SetToken(out.Token)
		return &out, nil
	case http.StatusUnauthorized:
		return nil, common.ErrInvalidCredentials
	default:
		return nil, c.unexpectedStatus(status)
	}
}

func (c *HTTPClient) SignOut(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodPost, "/api/auth/signout", nil, nil, true)
	if err != nil {
		return err
	}
	c.SetToken("")
	if status != http.StatusNoContent && status != http.StatusOK {
		return c.unexpectedStatus(status)
	}
	return nil
}

func (c *HTTPClient) RequestPasswordReset(ctx context.Context, email string) error {
	status, err := c.do(ctx, http.MethodPost, "/api/auth/password-reset", resetRequest{Email: email}, nil, false)
	if err != nil {
		return err
	}
	if status != http.StatusAccepted && status != http.StatusOK {
		return c.unexpectedStatus(status)
	}
	return nil
}

func (c *HTTPClient) VerificationStatus(ctx context.Context) (bool, error) {
	var out verificationResponse
	status, err := c.do(ctx, http.MethodGet, "/api/auth/verification", nil, &out, true)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return out.EmailVerified, nil
	case http.StatusUnauthorized:
		return false, common.ErrUnauthorized
	default:
		return false, c.unexpectedStatus(status)
	}
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	var out pingResponse
	status, err := c.do(ctx, http.MethodGet, "/api/ping", nil, &out, false)
	if err != nil {
		return err
	}
	if status != http.StatusOK || out.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (c *HTTPClient) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	status, err := c.do(ctx, http.MethodGet, "/api/projects", nil, &out, true)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return out, nil
	case http.StatusUnauthorized:
		return nil, common.ErrUnauthorized
	default:
		return nil, c.unexpectedStatus(status)
	}
}

func (c *HTTPClient) CreateProject(ctx context.Context, name, genre string) (*Project, error) {
	var out Project
	status, err := c.do(ctx, http.MethodPost, "/api/projects", createProjectRequest{Name: name, Genre: genre}, &out, true)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusCreated, http.StatusOK:
		return &out, nil
	case http.StatusUnauthorized:
		return nil, common.ErrUnauthorized
	default:
		return nil, c.unexpectedStatus(status)
	}
}

func (c *HTTPClient) DeleteProject(ctx context.Context, id string) error {
	status, err := c.do(ctx, http.MethodDelete, "/api/projects/"+id, nil, nil, true)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return common.ErrUnauthorized
	case http.StatusNotFound:
		return common.ErrNotFound
	default:
		return c.unexpectedStatus(status)
	}
}

// do performs one request/response round trip. The response body, if out is
// non-nil and the status is 2xx, is decoded as JSON into out. Transport
// failures and timeouts are normalized to ErrUnavailable; HTTP status
// interpretation is left to the caller.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any, authed bool) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set(common.AuthHeaderName, common.AuthSchemePrefix+c.currentToken())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, c.mapTransportError(err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}

	return resp.StatusCode, nil
}

func (c *HTTPClient) mapTransportError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s", ErrUnavailable, "request timed out")
	case errors.Is(err, context.Canceled):
		return err
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %s", ErrUnavailable, "request timed out")
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func (c *HTTPClient) unexpectedStatus(status int) error {
	if status >= 500 {
		return fmt.Errorf("%w: status %d", ErrUnavailable, status)
	}
	return fmt.Errorf("%w: status %d", common.ErrInternal, status)
}
