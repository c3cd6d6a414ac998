package models

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// RecoveryEmail is the address given to identities synthesized when the profile fetch fails at startup.
	RecoveryEmail = "user@meetingmind.ai"
	// RecoveryName is the display name given to the same identities.
	RecoveryName = "User"

	unknownID       = "unknown"
	defaultTimezone = "UTC"
	defaultLanguage = "en"
)

// Profile is the user record returned by GET /auth/me.
type Profile struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   *string   `json:"full_name"`
	AvatarURL  *string   `json:"avatar_url"`
	Timezone   string    `json:"timezone"`
	Language   string    `json:"language"`
	IsActive   bool      `json:"is_active"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  Timestamp `json:"created_at"`
}

// DisplayName returns the full name when known, else the email.
func (p Profile) DisplayName() string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return p.Email
}

// Identity is who the session belongs to. It is either a [VerifiedProfile] or a [PlaceholderProfile];
// callers switch on the concrete type to handle degraded trust explicitly.
type Identity interface {
	// Details returns the profile fields common to both variants.
	Details() Profile
	sealed()
}

// VerifiedProfile is an identity confirmed by the service.
type VerifiedProfile struct {
	Profile
}

// PlaceholderProfile is an identity synthesized on the client, trusted only because a credential is present.
type PlaceholderProfile struct {
	Profile
}

func (v VerifiedProfile) Details() Profile    { return v.Profile }
func (p PlaceholderProfile) Details() Profile { return p.Profile }

func (VerifiedProfile) sealed()    {}
func (PlaceholderProfile) sealed() {}

var (
	_ Identity = VerifiedProfile{}
	_ Identity = PlaceholderProfile{}
)

// NewLoginPlaceholder synthesizes the identity used after a login that returned no profile.
func NewLoginPlaceholder(email string, now time.Time) PlaceholderProfile {
	return PlaceholderProfile{Profile: placeholderProfile(email, nil, now)}
}

// NewRecoveryPlaceholder synthesizes the identity used when the startup profile fetch fails but a credential exists.
func NewRecoveryPlaceholder(now time.Time) PlaceholderProfile {
	name := RecoveryName
	return PlaceholderProfile{Profile: placeholderProfile(RecoveryEmail, &name, now)}
}

func placeholderProfile(email string, fullName *string, now time.Time) Profile {
	return Profile{
		ID:         unknownID,
		Email:      email,
		FullName:   fullName,
		Timezone:   defaultTimezone,
		Language:   defaultLanguage,
		IsActive:   true,
		IsVerified: false,
		CreatedAt:  Timestamp{Time: now.UTC()},
	}
}

const (
	identityKindVerified    = "verified"
	identityKindPlaceholder = "placeholder"
)

type identityEnvelope struct {
	Kind    string  `json:"kind"`
	Profile Profile `json:"profile"`
}

// MarshalIdentity encodes id with its variant tag. A nil identity encodes as JSON null.
func MarshalIdentity(id Identity) ([]byte, error) {
	switch v := id.(type) {
	case nil:
		return []byte("null"), nil
	case VerifiedProfile:
		return json.Marshal(identityEnvelope{Kind: identityKindVerified, Profile: v.Profile})
	case PlaceholderProfile:
		return json.Marshal(identityEnvelope{Kind: identityKindPlaceholder, Profile: v.Profile})
	default:
		return nil, fmt.Errorf("unknown identity type %T", id)
	}
}

// UnmarshalIdentity decodes data written by [MarshalIdentity].
func UnmarshalIdentity(data []byte) (Identity, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var env identityEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode identity: %w", err)
	}

	switch env.Kind {
	case identityKindVerified:
		return VerifiedProfile{Profile: env.Profile}, nil
	case identityKindPlaceholder:
		return PlaceholderProfile{Profile: env.Profile}, nil
	default:
		return nil, fmt.Errorf("unknown identity kind %q", env.Kind)
	}
}
