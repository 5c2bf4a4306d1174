// Package token verifies the access tokens issued by the storefront API.
package token

import (
	"context"
	"crypto"
	"strconv"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/jrsteele09/go-storefront-client/users"
)

// Verifier checks access token signatures and expiry against a key set and
// maps the claims onto a user identity.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

type accessClaims struct {
	Email string `json:"email"`
}

// NewStaticVerifier verifies tokens against fixed public keys.
func NewStaticVerifier(issuer string, publicKeys ...crypto.PublicKey) *Verifier {
	keySet := &oidc.StaticKeySet{PublicKeys: publicKeys}
	return newVerifier(issuer, keySet)
}

// NewRemoteVerifier fetches and caches keys from a JWKS endpoint. ctx bounds
// the key fetches, not just construction.
func NewRemoteVerifier(ctx context.Context, issuer, jwksURL string) *Verifier {
	return newVerifier(issuer, oidc.NewRemoteKeySet(ctx, jwksURL))
}

func newVerifier(issuer string, keySet oidc.KeySet) *Verifier {
	return &Verifier{
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{
			SkipClientIDCheck:    true,
			SupportedSigningAlgs: []string{oidc.RS256},
		}),
	}
}

// ResolveIdentity verifies credential and returns the user it was issued to.
func (v *Verifier) ResolveIdentity(ctx context.Context, credential string) (*users.Identity, error) {
	if credential == "" {
		return nil, errors.ErrEmptyToken
	}

	idToken, err := v.verifier.Verify(ctx, credential)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Verifier ResolveIdentity] %v", err)
	}

	id, err := strconv.ParseInt(idToken.Subject, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Verifier ResolveIdentity] subject %q", idToken.Subject)
	}

	var claims accessClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Verifier ResolveIdentity] claims: %v", err)
	}
	return &users.Identity{ID: id, Email: claims.Email}, nil
}
