// Package profile is the HTTP client for the profile service, which owns
// public player profiles keyed by identity id.
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ftarena/authcore/pkg/requestid"
	"github.com/ftarena/authcore/svc/auth"
)

var (
	ErrMissingBaseURL   = errors.New("profile service url is required")
	ErrUnexpectedStatus = errors.New("profile service returned unexpected status")
)

type Config struct {
	BaseURL string        `env:"PROFILE_SERVICE_URL,required"`
	Timeout time.Duration `env:"PROFILE_SERVICE_TIMEOUT" envDefault:"5s"`
}

// Client calls POST {BaseURL}/profiles.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type createRequest struct {
	UserID   uuid.UUID `json:"userId"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
}

// CreateProfile creates the public profile. Any non-2xx response is an error.
func (c *Client) CreateProfile(ctx context.Context, userID uuid.UUID, email, username string) error {
	body, err := json.Marshal(createRequest{UserID: userID, Email: email, Username: username})
	if err != nil {
		return fmt.Errorf("encode profile request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/profiles", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call profile service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

var _ auth.ProfileService = (*Client)(nil)
