package googleauth

import (
	"errors"
	"fmt"
	"strings"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
)

// Identity is the subset of Google ID token claims the service relies on.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Verifier checks Google ID tokens against the configured OAuth client.
type Verifier struct {
	clientIDs []string
	verifier  googleAuthIDTokenVerifier.Verifier
}

// NewVerifier builds a verifier accepting tokens issued for clientID.
func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientIDs: []string{clientID}}
}

// Verify validates signature, expiry and audience, then decodes the claims.
func (v *Verifier) Verify(token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("empty id token")
	}
	if len(v.clientIDs) == 0 || v.clientIDs[0] == "" {
		return nil, errors.New("google client id not configured")
	}
	if err := v.verifier.VerifyIDToken(token, v.clientIDs); err != nil {
		return nil, fmt.Errorf("verify id token: %w", err)
	}
	claims, err := googleAuthIDTokenVerifier.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("decode id token: %w", err)
	}
	if claims.Sub == "" {
		return nil, errors.New("id token has no subject")
	}
	return &Identity{
		Subject: claims.Sub,
		Email:         strings.ToLower(strings.TrimSpace(claims.Email)),
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}
