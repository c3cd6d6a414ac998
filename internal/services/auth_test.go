package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/shared"
	tu "github.com/meetingmind/mm/internal/testing"
	"golang.org/x/oauth2"
)

func TestAuth(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "password" {
			t.Errorf("expected password grant, got %q", r.Form.Get("grant_type"))
		}

		w.Header().Set("Content-Type", "application/json")
		if r.Form.Get("username") != "ada@example.com" || r.Form.Get("password") != "correct-horse" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect email or password"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token":  tu.SignedToken(t, "u1", exp),
			"refresh_token": "refresh-1",
			"token_type":    "bearer",
		})
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		var reg models.Registration
		json.NewDecoder(r.Body).Decode(&reg)

		w.Header().Set("Content-Type", "application/json")
		if reg.Email == "taken@example.com" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Email already registered"})
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": "u2", "email": reg.Email, "full_name": reg.FullName, "is_active": true})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "u1", "email": "ada@example.com", "full_name": "Ada", "is_verified": true, "timezone": "UTC", "language": "en"})
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		if body["refresh_token"] != "refresh-1" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid refresh token"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"access_token": "access-2", "refresh_token": "refresh-2", "token_type": "bearer", "expires_in": 60})
	})

	server := httptest.NewServer(mux)
	defer server.Close()
	client := newTestClient(server.URL)
	ctx := context.Background()

	t.Run("Login", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			res, err := client.Login(ctx, "ada@example.com", "correct-horse")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if res.Profile != nil {
				t.Error("expected login to return tokens only")
			}
			if res.Token.RefreshToken != "refresh-1" {
				t.Errorf("expected refresh-1, got %s", res.Token.RefreshToken)
			}
			if !res.Token.Expiry.Equal(exp) {
				t.Errorf("expected expiry from exp claim %v, got %v", exp, res.Token.Expiry)
			}
		})

		t.Run("Wrong password", func(t *testing.T) {
			_, err := client.Login(ctx, "ada@example.com", "nope")

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Detail != "Incorrect email or password" {
				t.Errorf("unexpected detail %q", apiErr.Detail)
			}
			if !errors.Is(err, ErrUnauthorized) {
				t.Error("expected ErrUnauthorized")
			}
		})

		t.Run("Missing credentials", func(t *testing.T) {
			if _, err := client.Login(ctx, "", "x"); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Unreachable", func(t *testing.T) {
			c := newTestClient("http://127.0.0.1:1")
			_, err := c.Login(ctx, "ada@example.com", "correct-horse")
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})
	})

	t.Run("Register", func(t *testing.T) {
		name := "Bob"
		profile, err := client.Register(ctx, models.Registration{Email: "bob@example.com", Password: "pw123456", FullName: &name})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if profile.ID != "u2" || profile.DisplayName() != "Bob" {
			t.Errorf("unexpected profile %+v", profile)
		}

		_, err = client.Register(ctx, models.Registration{Email: "taken@example.com", Password: "pw123456"})
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Me", func(t *testing.T) {
		profile, err := client.Me(ctx, &oauth2.Token{AccessToken: "good", TokenType: "bearer"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !profile.IsVerified || profile.Email != "ada@example.com" {
			t.Errorf("unexpected profile %+v", profile)
		}

		_, err = client.Me(ctx, &oauth2.Token{AccessToken: "bad"})
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}

		if _, err := client.Me(ctx, nil); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Refresh", func(t *testing.T) {
		tok, err := client.Refresh(ctx, "refresh-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tok.AccessToken != "access-2" || tok.RefreshToken != "refresh-2" {
			t.Errorf("unexpected token %+v", tok)
		}
		if tok.Expiry.IsZero() {
			t.Error("expected expiry from expires_in")
		}

		_, err = client.Refresh(ctx, "stale")
		if !errors.Is(err, shared.ErrRefreshFailed) || !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrRefreshFailed and ErrUnauthorized, got %v", err)
		}

		if _, err := client.Refresh(ctx, ""); !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})
}

func TestWithExpiry(t *testing.T) {
	t.Run("Opaque token left alone", func(t *testing.T) {
		tok := withExpiry(&oauth2.Token{AccessToken: "opaque"})
		if !tok.Expiry.IsZero() {
			t.Errorf("expected zero expiry, got %v", tok.Expiry)
		}
	})

	t.Run("Existing expiry kept", func(t *testing.T) {
		want := time.Now().Add(time.Hour)
		tok := withExpiry(&oauth2.Token{AccessToken: tu.SignedToken(t, "u", time.Now()), Expiry: want})
		if !tok.Expiry.Equal(want) {
			t.Errorf("expected %v, got %v", want, tok.Expiry)
		}
	})

	t.Run("Nil", func(t *testing.T) {
		if withExpiry(nil) != nil {
			t.Error("expected nil")
		}
	})
}
