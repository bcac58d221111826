package r2r

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ragloader/pkg/errors"
	"ragloader/pkg/models"
)

const defaultRequestTimeout = 120 * time.Second

// Client talks to an R2R-style RAG server over its v3 HTTP API. All calls
// require Authenticate to have succeeded first, except HealthCheck.
type Client struct {
	baseURL string
	httpc   *http.Client
	token   string
	refresh string

	limiter *rate.Limiter
	upload  models.UploadConfig
	retry   *errors.RetryConfig

	// sleep is swappable for tests; defaults to a context-aware wait.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client for the given server base URL. The upload
// pacing and retry policy come from the configuration.
func NewClient(baseURL string, cfg *models.Config) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultRequestTimeout},
		upload:  cfg.Upload,
		retry:   errors.DefaultRetryConfig(),
	}
	if delay := cfg.UploadDelay(); delay > 0 {
		c.limiter = rate.NewLimiter(rate.Every(delay), 1)
	}
	return c
}

// resultsEnvelope is the server's standard response wrapper.
type resultsEnvelope[T any] struct {
	Results      T   `json:"results"`
	TotalEntries int `json:"total_entries"`
}

// Authenticate logs in with email/password and stores the bearer token used
// by all subsequent calls. Login failures are fatal for the run.
func (c *Client) Authenticate(ctx context.Context, email, password string) error {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v3/users/login", strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "Failed to build login request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConnectionFailed, "Could not reach server").
			WithContext("url", c.baseURL).
			WithSuggestions("Check that the server is running", "Verify the configured API URL")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.AuthError(
			fmt.Sprintf("Login failed with status %d", resp.StatusCode), nil).
			WithContext("email", email)
	}

	var out resultsEnvelope[struct {
		AccessToken struct {
			Token string `json:"token"`
		} `json:"access_token"`
		RefreshToken struct {
			Token string `json:"token"`
		} `json:"refresh_token"`
	}]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return errors.Wrap(err, errors.ErrCodeAPIRequest, "Could not parse login response")
	}
	if out.Results.AccessToken.Token == "" {
		return errors.AuthError("Login response carried no access token", nil)
	}

	c.token = out.Results.AccessToken.Token
	c.refresh = out.Results.RefreshToken.Token
	return nil
}

// HealthCheck verifies the server answers on /v3/health. Transient failures
// are retried.
func (c *Client) HealthCheck(ctx context.Context) error {
	return errors.Retry(ctx, c.retry, func(ctx context.Context) error {
		var out resultsEnvelope[map[string]any]
		return c.doJSON(ctx, http.MethodGet, "/v3/health", nil, &out)
	})
}

// doJSON performs an authenticated JSON request and decodes the response
// into out. Non-2xx statuses come back as API errors carrying the status.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "Failed to encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "Failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConnectionFailed, "Request failed").
			WithContext("path", path).
			AsRecoverable()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.APIError(
			fmt.Sprintf("Server returned %d for %s %s%s", resp.StatusCode, method, path, bodySnippet(resp.Body)),
			resp.StatusCode, nil)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return errors.Wrap(err, errors.ErrCodeAPIRequest, "Could not parse server response").
				WithContext("path", path)
		}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// bodySnippet reads a short prefix of an error body for diagnostics.
func bodySnippet(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 256))
	s := strings.TrimSpace(string(data))
	if s == "" {
		return ""
	}
	return ": " + s
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if c.sleep != nil {
		return c.sleep(ctx, d)
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
