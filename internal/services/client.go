package services

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
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/equipx/internal/session"
	"github.com/desertthunder/equipx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Client is the typed backend client.
type Client struct {
	baseURL  string
	public   *http.Client
	authed   *http.Client
	sessions *session.Manager
	limiter  *rate.Limiter
	logger   *log.Logger
}

// ClientOpts configures a Client.
//
// BaseURL is the API root (".../api"). RateLimit is requests per second; zero disables limiting.
type ClientOpts struct {
	BaseURL    string
	Sessions   *session.Manager
	HTTPClient *http.Client
	Timeout    time.Duration
	RateLimit  float64
	Logger     *log.Logger
}

// NewClient creates a client whose authenticated requests carry the token held by opts.Sessions.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = shared.DefaultBaseURL
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewManager(session.ManagerOpts{})
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	base := opts.HTTPClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		public:   opts.HTTPClient,
		authed:   &http.Client{Transport: &oauth2.Transport{Source: opts.Sessions, Base: base}, Timeout: opts.HTTPClient.Timeout},
		sessions: opts.Sessions,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   opts.Logger,
	}
}

// BaseURL is the API root requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// Sessions is the session manager backing authenticated calls.
func (c *Client) Sessions() *session.Manager { return c.sessions }

// Raw returns an [APIService] sharing the authenticated transport.
func (c *Client) Raw() *APIService { return NewAPIService(c.baseURL, c.authed) }

func (c *Client) userURL(path string, args ...any) string {
	return c.baseURL + "/benutzer" + fmt.Sprintf(path, args...)
}

func (c *Client) adminURL(path string, args ...any) string {
	return c.baseURL + "/admin" + fmt.Sprintf(path, args...)
}

// do sends an authenticated request.
func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	return c.send(ctx, c.authed, method, url, body, out)
}

// doPublic sends a request without the session token.
func (c *Client) doPublic(ctx context.Context, method, url string, body, out any) error {
	return c.send(ctx, c.public, method, url, body, out)
}

func (c *Client) send(ctx context.Context, client *http.Client, method, url string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return c.transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("api request", "method", method, "url", url, "status", resp.StatusCode, "took", time.Since(start))

	public := client == c.public
	switch {
	case resp.StatusCode == http.StatusUnauthorized && !public:
		if err := c.sessions.Invalidate(ctx); err != nil {
			c.logger.Warn("failed to clear session after 401", "error", err)
		}
		return shared.ErrSessionExpired
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		apiErr := newAPIError(resp.StatusCode, data)
		apiErr.Public = public
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// transportError maps client.Do failures. Session errors raised by the token
// source come back wrapped in *url.Error.
func (c *Client) transportError(err error) error {
	switch {
	case errors.Is(err, shared.ErrSessionExpired):
		return shared.ErrSessionExpired
	case errors.Is(err, shared.ErrNotAuthenticated):
		return shared.ErrNotAuthenticated
	case errors.Is(err, context.Canceled):
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
}

// getList fetches a JSON array. A non-JSON or empty body yields an empty slice.
func getList[T any](ctx context.Context, c *Client, url string) ([]T, error) {
	var out []T
	if err := c.do(ctx, http.MethodGet, url, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
