// package services implements the HTTP client for the MeetingMind API
//
// Authentication (login, register, me, refresh) and meetings (CRUD, transcripts, action items)
package services

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/meetingmind/mm/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "http://localhost:8000/api/v1"
	defaultTimeout = 30 * time.Second
)

// ClientOpts configures a [Client]. Zero values select defaults.
type ClientOpts struct {
	HTTPClient        *http.Client
	Logger            *log.Logger
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client talks to the MeetingMind HTTP API.
//
// A Client without a token source can only call the unauthenticated auth endpoints and [Client.Me].
// Use [Client.WithTokenSource] to get a copy that sends bearer credentials on every request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authed     *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	oauth      *oauth2.Config
}

// NewClient creates a [Client] for baseURL (e.g. http://localhost:8000/api/v1).
func NewClient(baseURL string, opts ClientOpts) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = max(1, int(opts.RequestsPerSecond))
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     shared.WithLogger(logger, "component", "api"),
		oauth: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  baseURL + "/auth/login",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WithTokenSource returns a copy of c whose requests carry the bearer token from ts.
//
// The copy shares the rate limiter with c.
func (c *Client) WithTokenSource(ts oauth2.TokenSource) *Client {
	cp := *c
	cp.authed = &http.Client{
		Timeout:       c.httpClient.Timeout,
		CheckRedirect: c.httpClient.CheckRedirect,
		Jar:           c.httpClient.Jar,
		Transport:     &oauth2.Transport{Source: ts, Base: c.httpClient.Transport},
	}
	return &cp
}

// bearer returns the HTTP client for authenticated endpoints.
func (c *Client) bearer() (*http.Client, error) {
	if c.authed == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return c.authed, nil
}
