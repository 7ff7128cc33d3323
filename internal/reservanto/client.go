// Package reservanto provides a client for the Reservanto merchant
// portal. The portal has no API token flow; the client logs in with the
// merchant's form credentials and reads the calendar feed the booking
// UI uses.
package reservanto

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/malyjan/reservanto-reports/internal/visits"
	"github.com/malyjan/reservanto-reports/pkg/logging"
)

const (
	defaultBaseURL   = "https://merchant.reservanto.cz"
	defaultTimeout   = 60 * time.Second
	defaultSegmentID = "1034"
)

// Client is an authenticated Reservanto portal client. The session
// cookie lives in the client's cookie jar, so one Login call covers the
// run.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      *logging.Logger
	username    string
	password    string
	resourceIDs string
	segmentID   string
	loggedIn    bool
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the portal base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client. A cookie jar is attached
// when the client has none.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithResourceIDs sets the calendar resource ids requested from the
// feed.
func WithResourceIDs(ids string) Option {
	return func(c *Client) {
		c.resourceIDs = ids
	}
}

// NewClient creates a portal client for the given merchant credentials.
func NewClient(username, password string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:     defaultBaseURL,
		logger:      logging.Default(),
		username:    username,
		password:    password,
		segmentID:   defaultSegmentID,
		resourceIDs: "36459",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("reservanto: create cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}
	return c, nil
}

// Login posts the merchant credentials to the portal login form and
// keeps the session cookie for subsequent feed requests.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{
		"UserName": {c.username},
		"Password": {c.password},
	}
	loginURL := c.baseURL + "/Account/Login?ReturnUrl=%2F"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("reservanto: create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reservanto: login request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("reservanto: login failed with status %d", resp.StatusCode)
	}

	c.loggedIn = true
	c.logger.Info("logged in to reservanto portal", "user", c.username)
	return nil
}

// FetchVisits reads the calendar feed for the half-open window
// [from, to) and decodes it into raw visit rows. Login is performed
// first when the session has not been established yet.
func (c *Client) FetchVisits(ctx context.Context, from, to time.Time) ([]visits.Raw, error) {
	if !c.loggedIn {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	feedURL := fmt.Sprintf("%s/Calendar/Feed?start=%s&end=%s&rsIds=%s&_selectedWindowSegmentId=%s",
		c.baseURL,
		strconv.FormatInt(from.Unix(), 10),
		strconv.FormatInt(to.Unix(), 10),
		url.QueryEscape(c.resourceIDs),
		c.segmentID,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("reservanto: create feed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reservanto: feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("reservanto: feed request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var raws []visits.Raw
	if err := json.NewDecoder(resp.Body).Decode(&raws); err != nil {
		return nil, fmt.Errorf("reservanto: malformed feed payload: %w", err)
	}

	c.logger.Info("fetched calendar feed",
		"rows", len(raws),
		"from", from.Format(time.RFC3339),
		"to", to.Format(time.RFC3339),
	)
	return raws, nil
}
