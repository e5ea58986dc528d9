package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/backyonatan-alt/lookout/internal/config"
)

var (
	ErrSessionExpired    = errors.New("game session expired or not logged in")
	ErrMalformedSnapshot = errors.New("malformed military advisor response")
)

var (
	actionRequestRe = regexp.MustCompile(`actionRequest"?:\s*"(.*?)"`)
	currentCityRe   = regexp.MustCompile(`currentCityId:\s(\d+),`)
)

// Client is an authenticated game session. It is shared by the poll loop and
// the command responder, so all methods are safe for concurrent use.
type Client struct {
	client    *http.Client
	baseURL   *url.URL
	userAgent string

	mu            sync.Mutex
	actionRequest string
}

func New(cfg config.GameConfig) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse game base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	jar.SetCookies(base, parseCookies(cfg.Cookie))

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		client:    &http.Client{Timeout: timeout, Jar: jar},
		baseURL:   base,
		userAgent: cfg.UserAgent,
	}, nil
}

// parseCookies reads a browser-style "name=value; name2=value2" header.
func parseCookies(raw string) []*http.Cookie {
	var out []*http.Cookie
	for _, part := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name == "" {
			continue
		}
		out = append(out, &http.Cookie{Name: name, Value: value})
	}
	return out
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.actionRequest
}

func (c *Client) rememberToken(body string) {
	m := actionRequestRe.FindStringSubmatch(body)
	if m == nil || m[1] == "" {
		return
	}
	c.mu.Lock()
	c.actionRequest = m[1]
	c.mu.Unlock()
}

// get fetches the page for query (empty = the current city view).
func (c *Client) get(ctx context.Context, query url.Values) (string, error) {
	u := *c.baseURL
	u.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("game request: %w", err)
	}
	return c.do(req)
}

// post submits form with the current action request token.
func (c *Client) post(ctx context.Context, form url.Values) (string, error) {
	if form.Get("actionRequest") == "" {
		form.Set("actionRequest", c.token())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("game request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (string, error) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("game request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("game server error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("game read body: %w", err)
	}
	text := string(body)
	c.rememberToken(text)
	return text, nil
}

// currentCity loads the city view and returns its id.
func (c *Client) currentCity(ctx context.Context) (string, string, error) {
	html, err := c.get(ctx, nil)
	if err != nil {
		return "", "", err
	}
	m := currentCityRe.FindStringSubmatch(html)
	if m == nil {
		slog.Warn("game: current city id not found in page", "bytes", len(html))
		return "", "", ErrSessionExpired
	}
	return m[1], html, nil
}
