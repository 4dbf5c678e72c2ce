package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

type contextKey string

// SubjectContextKey holds the authenticated subject.
const SubjectContextKey contextKey = "subject"

// Authenticator checks a request's credentials and may enrich its context.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (context.Context, error)
}

// OIDCAuthenticator accepts bearer ID tokens issued by an OpenID Connect
// provider.
type OIDCAuthenticator struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCAuthenticator discovers issuer and verifies tokens for audience.
func NewOIDCAuthenticator(ctx context.Context, issuer, audience string) (*OIDCAuthenticator, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}

	return &OIDCAuthenticator{
		verifier: provider.Verifier(&oidc.Config{ClientID: audience}),
	}, nil
}

// Authenticate verifies the bearer token and stores its subject.
func (a *OIDCAuthenticator) Authenticate(ctx context.Context, r *http.Request) (context.Context, error) {
	token, err := bearerToken(r)
	if err != nil {
		return ctx, err
	}

	idToken, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return ctx, err
	}

	var claims struct {
		Subject string `json:"sub"`
	}
	if err := idToken.Claims(&claims); err == nil && claims.Subject != "" {
		ctx = context.WithValue(ctx, SubjectContextKey, claims.Subject)
	}
	return ctx, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errors.New("invalid authorization header")
	}
	return strings.TrimPrefix(header, "Bearer "), nil
}
