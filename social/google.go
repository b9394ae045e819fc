// Package social verifies identity tokens issued by external providers.
package social

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/authkeep"
	"google.golang.org/api/idtoken"
)

var (
	// ErrInvalidToken is returned when the provider token fails verification.
	ErrInvalidToken = errors.New("social: invalid identity token")
	// ErrEmailUnverified is returned when the provider has not verified the email.
	ErrEmailUnverified = errors.New("social: email not verified by provider")
)

// ValidateFunc matches idtoken.Validate.
type ValidateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Google verifies Google Sign-In ID tokens for one OAuth client.
type Google struct {
	clientID string
	validate ValidateFunc
}

// NewGoogle returns a verifier for tokens minted for clientID.
func NewGoogle(clientID string) *Google {
	return &Google{clientID: clientID, validate: idtoken.Validate}
}

// NewGoogleWithValidator replaces the signature check; used by tests.
func NewGoogleWithValidator(clientID string, fn ValidateFunc) *Google {
	return &Google{clientID: clientID, validate: fn}
}

// Verify checks the token signature and audience and extracts the identity.
func (g *Google) Verify(ctx context.Context, token string) (authkeep.SocialIdentity, error) {
	if g == nil || g.clientID == "" {
		return authkeep.SocialIdentity{}, errors.New("social: google client id not configured")
	}
	if strings.TrimSpace(token) == "" {
		return authkeep.SocialIdentity{}, ErrInvalidToken
	}

	payload, err := g.validate(ctx, token, g.clientID)
	if err != nil {
		return authkeep.SocialIdentity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	email := claimString(payload.Claims, "email")
	if email == "" {
		return authkeep.SocialIdentity{}, fmt.Errorf("%w: email claim missing", ErrInvalidToken)
	}
	if v, ok := payload.Claims["email_verified"].(bool); ok && !v {
		return authkeep.SocialIdentity{}, ErrEmailUnverified
	}

	return authkeep.SocialIdentity{
		Email:   email,
		Name:    claimString(payload.Claims, "name"),
		Picture: claimString(payload.Claims, "picture"),
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return strings.TrimSpace(s)
}
