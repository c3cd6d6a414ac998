package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/shared"
	"golang.org/x/oauth2"
)

// tokenResponse is the body of /auth/login and /auth/refresh.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

func (t tokenResponse) token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	if t.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return withExpiry(tok)
}

// withExpiry fills in tok.Expiry from the access token's exp claim when the server didn't send expires_in.
//
// The signature is not verified: the client only needs to know when to refresh.
func withExpiry(tok *oauth2.Token) *oauth2.Token {
	if tok == nil || !tok.Expiry.IsZero() {
		return tok
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, &claims); err != nil {
		return tok
	}
	if claims.ExpiresAt != nil {
		tok.Expiry = claims.ExpiresAt.Time
	}
	return tok
}

// Login exchanges email and password for a token pair using the OAuth2 password grant at /auth/login.
//
// The service returns tokens only, so [models.LoginResult.Profile] is always nil.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	if email == "" || password == "" {
		return nil, shared.ErrMissingCredentials
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return nil, newAPIError(http.MethodPost, "/auth/login", re.Response.StatusCode, re.Body)
		}
		return nil, fmt.Errorf("%w: login: %w", shared.ErrServiceUnavailable, err)
	}

	c.logger.Debug("login succeeded", "email", email, "expiry", tok.Expiry)
	return &models.LoginResult{Token: withExpiry(tok)}, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, reg models.Registration) (*models.Profile, error) {
	if reg.Email == "" || reg.Password == "" {
		return nil, shared.ErrMissingCredentials
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/register", nil, reg)
	if err != nil {
		return nil, err
	}

	var profile models.Profile
	if err := c.send(c.httpClient, req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Me fetches the profile of the user that owns tok.
func (c *Client) Me(ctx context.Context, tok *oauth2.Token) (*models.Profile, error) {
	if tok == nil || tok.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}
	tok.SetAuthHeader(req)

	var profile models.Profile
	if err := c.send(c.httpClient, req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	body := map[string]string{"refresh_token": refreshToken}
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/refresh", nil, body)
	if err != nil {
		return nil, err
	}

	var resp tokenResponse
	if err := c.send(c.httpClient, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: response missing access_token", shared.ErrRefreshFailed)
	}
	return resp.token(), nil
}
