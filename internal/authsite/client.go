// Package authsite verifies game-account credentials against the central
// account site's login form. The site has no API: the flow scrapes the
// anti-forgery token off the login page, submits the form with the same
// cookie session, and judges success by where the redirect chain lands.
package authsite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/centlink/centlink/internal/config"
)

const (
	tokenField = "__RequestVerificationToken"
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"
)

// Protocol failures. These indicate the site contract changed or the site is
// down, and propagate to the caller rather than mapping to a login outcome.
var (
	ErrTokenFetch   = errors.New("authsite: fetch login page failed")
	ErrTokenMissing = errors.New("authsite: verification token not found")
	ErrSubmit       = errors.New("authsite: submit login form failed")
)

// Result is the outcome of a credential check.
type Result int

const (
	// NotVerified means the site redisplayed the login page: bad credentials.
	NotVerified Result = iota
	// Verified means the site navigated away from the login page. This
	// includes mid-flow pages such as a two-factor prompt; anything but the
	// login page counts.
	Verified
)

// Client performs one user's credential check. Each check owns an isolated
// cookie session and a token cached for that session only. Clients must not
// be shared across users.
type Client struct {
	httpClient *http.Client
	loginURL   string
	attemptID  string
	token      string
}

// New creates a Client with a fresh cookie jar.
func New(cfg config.AuthSiteConfig) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("authsite: cookie jar: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Jar: jar, Timeout: timeout},
		loginURL:   cfg.LoginURL,
		attemptID:  uuid.NewString(),
	}, nil
}

// fetchToken GETs the login page and caches the anti-forgery token for this
// session.
func (c *Client) fetchToken(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.loginURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTokenFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrTokenFetch, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: parse login page: %v", ErrTokenFetch, err)
	}
	token, ok := doc.Find(`input[name="` + tokenField + `"]`).First().Attr("value")
	if !ok || token == "" {
		return fmt.Errorf("%w: input %q absent", ErrTokenMissing, tokenField)
	}
	c.token = token
	return nil
}

// Verify submits identifier (username or email) and secret to the login
// form. A cached token from a prior call on this client is reused; a fresh
// client always fetches one first.
func (c *Client) Verify(ctx context.Context, identifier, secret string) (Result, error) {
	if c.token == "" {
		if err := c.fetchToken(ctx); err != nil {
			return NotVerified, err
		}
	}

	form := url.Values{
		"Input.EmailOrUsername": {identifier},
		"Input.Password":        {secret},
		tokenField:              {c.token},
		"Input.RememberMe":      {"false"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return NotVerified, fmt.Errorf("%w: %v", ErrSubmit, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NotVerified, fmt.Errorf("%w: %v", ErrSubmit, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return NotVerified, fmt.Errorf("%w: status %d", ErrSubmit, resp.StatusCode)
	}

	// A failed login redisplays the form at the login URL; anything else is
	// a step past it. Known weakness: a site-side redirect of failures to a
	// different page (e.g. a captcha) would read as success.
	final := resp.Request.URL.String()
	if sameURL(final, c.loginURL) {
		slog.Debug("Credential check rejected", "attempt", c.attemptID)
		return NotVerified, nil
	}
	slog.Debug("Credential check accepted", "attempt", c.attemptID, "landed", final)
	return Verified, nil
}

func sameURL(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}
