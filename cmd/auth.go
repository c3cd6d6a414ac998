package main

import (
	"context"

	"github.com/meetingmind/mm/internal/models"
	"github.com/urfave/cli/v3"
)

// sessionView is the printable form of [models.Session].
type sessionView struct {
	Status   models.Status `json:"status"`
	Verified bool          `json:"verified"`
	Email    string        `json:"email,omitempty"`
	Name     string        `json:"name,omitempty"`
	UserID   string        `json:"user_id,omitempty"`
}

func newSessionView(s models.Session) sessionView {
	view := sessionView{Status: s.Status}
	if s.Identity == nil {
		return view
	}
	p := s.Identity.Details()
	view.Email = p.Email
	view.Name = p.DisplayName()
	view.UserID = p.ID
	_, view.Verified = s.Identity.(models.VerifiedProfile)
	return view
}

// AuthLogin signs in and persists the credential.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(ctx); err != nil {
		return err
	}

	email := cmd.String("email")
	r.logger.Info("logging in", "email", email)

	if err := r.session.Login(ctx, email, cmd.String("password")); err != nil {
		return err
	}

	view := newSessionView(r.session.Current())
	return r.writePlain("✓ Logged in as %s\n", view.Name)
}

// AuthRegister creates an account and signs in with it.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(ctx); err != nil {
		return err
	}

	var fullName *string
	if name := cmd.String("name"); name != "" {
		fullName = &name
	}

	if err := r.session.Register(ctx, cmd.String("email"), cmd.String("password"), fullName); err != nil {
		return err
	}

	view := newSessionView(r.session.Current())
	return r.writePlain("✓ Registered and logged in as %s\n", view.Name)
}

// AuthLogout clears the credential and the persisted identity.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(ctx); err != nil {
		return err
	}

	r.session.Logout()
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus prints the session resolved at startup.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(ctx); err != nil {
		return err
	}

	view := newSessionView(r.session.Current())
	if cmd.Bool("json") {
		return r.writeJSON(view, cmd.Bool("pretty"))
	}

	if view.Status != models.StatusAuthenticated {
		return r.writePlain("Not logged in\n")
	}

	r.writePlainHeader("Session")
	r.writePlain("Name: %s\n", view.Name)
	r.writePlain("Email: %s\n", view.Email)
	if view.Verified {
		return r.writePlain("Identity: verified\n")
	}
	return r.writePlain("Identity: unverified (service could not confirm the profile)\n")
}
