package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/storyshelf/storyshelf/internal/client/models"
	"github.com/storyshelf/storyshelf/internal/logging"
	"github.com/storyshelf/storyshelf/internal/netx"
)

// SubscribePath is the single registration endpoint agreed with the remote
// authority.
const SubscribePath = "/notifications/subscribe"

const defaultTimeout = 15 * time.Second

// envelope is the common response wrapper of the story API.
type envelope struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HTTPClient struct {
	base string
	hc   *http.Client
	log  logging.Logger
}

// NewHTTPClient returns a client for the API rooted at baseURL. A nil hc
// gets a client with a 15s timeout.
func NewHTTPClient(baseURL string, hc *http.Client, log logging.Logger) *HTTPClient {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPClient{
		base: strings.TrimRight(baseURL, "/"),
		hc:   hc,
		log:  logging.OrNop(log).With("component", "api"),
	}
}

// BaseURL returns the API root without a trailing slash.
func (c *HTTPClient) BaseURL() string { return c.base }

func (c *HTTPClient) do(ctx context.Context, r netx.Request) error {
	path := r.URL
	r.URL = c.base + r.URL

	err := netx.Do(ctx, c.hc, r)
	if err == nil {
		c.log.Debug(ctx, "api call", "method", r.Method, "path", path)
		return nil
	}

	var se *netx.StatusError
	if errors.As(err, &se) {
		c.log.Warn(ctx, "api call rejected", "method", r.Method, "path", path, "status", se.Status, "message", se.Message)
		if se.Status == http.StatusUnauthorized {
			return fmt.Errorf("%w: %w", ErrUnauthorized, se)
		}
		return se
	}
	if ctx.Err() != nil {
		return err
	}
	c.log.Warn(ctx, "api call failed", "method", r.Method, "path", path, "error", err)
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func (c *HTTPClient) Register(ctx context.Context, name, email, password string) error {
	in := map[string]string{"name": name, "email": email, "password": password}
	return c.do(ctx, netx.Request{Method: http.MethodPost, URL: "/register", In: in})
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out struct {
		envelope
		LoginResult LoginResult `json:"loginResult"`
	}
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, netx.Request{Method: http.MethodPost, URL: "/login", In: in, Out: &out}); err != nil {
		return nil, err
	}
	if out.LoginResult.Token == "" {
		return nil, fmt.Errorf("login: empty token in response")
	}
	return &out.LoginResult, nil
}

func (c *HTTPClient) ListStories(ctx context.Context, token string, q StoryQuery) ([]models.Story, error) {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	if q.Location {
		v.Set("location", "1")
	}
	path := "/stories"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var out struct {
		envelope
		ListStory []models.Story `json:"listStory"`
	}
	if err := c.do(ctx, netx.Request{Method: http.MethodGet, URL: path, Token: token, Out: &out}); err != nil {
		return nil, err
	}
	if out.ListStory == nil {
		out.ListStory = []models.Story{}
	}
	return out.ListStory, nil
}

func (c *HTTPClient) GetStory(ctx context.Context, token, id string) (*models.Story, error) {
	var out struct {
		envelope
		Story models.Story `json:"story"`
	}
	path := "/stories/" + url.PathEscape(id)
	if err := c.do(ctx, netx.Request{Method: http.MethodGet, URL: path, Token: token, Out: &out}); err != nil {
		return nil, err
	}
	return &out.Story, nil
}

func (c *HTTPClient) VAPIDPublicKey(ctx context.Context) (string, error) {
	var out struct {
		envelope
		PublicKey string `json:"publicKey"`
	}
	if err := c.do(ctx, netx.Request{Method: http.MethodGet, URL: "/push/vapid/public-key", Out: &out}); err != nil {
		return "", err
	}
	if out.PublicKey == "" {
		return "", fmt.Errorf("vapid key: empty publicKey in response")
	}
	return out.PublicKey, nil
}

func (c *HTTPClient) Subscribe(ctx context.Context, token string, sub *webpush.Subscription) error {
	return c.do(ctx, netx.Request{Method: http.MethodPost, URL: SubscribePath, Token: token, In: sub})
}

func (c *HTTPClient) Unsubscribe(ctx context.Context, token, endpoint string) error {
	in := map[string]string{"endpoint": endpoint}
	return c.do(ctx, netx.Request{Method: http.MethodDelete, URL: SubscribePath, Token: token, In: in})
}

// Ping reports whether the API host answers at all; any HTTP response counts.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.base, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	_ = resp.Body.Close()
	return nil
}
