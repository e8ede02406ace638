package oauthprovider

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/bigmini/auth-service/identity"
	"github.com/bigmini/auth-service/providers"
)

const googleIssuer = "https://accounts.google.com"

// GoogleAdapter verifies Google logins through OIDC ID tokens rather than a
// userinfo call: the ID token is signed by Google and carries sub and email.
type GoogleAdapter struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

func NewGoogleAdapter(ctx context.Context, clientID, clientSecret, redirectURL string) (*GoogleAdapter, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, errors.Wrap(err, "[NewGoogleAdapter] oidc.NewProvider")
	}

	return &GoogleAdapter{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  redirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (a *GoogleAdapter) Name() string { return providers.Google }

func (a *GoogleAdapter) AuthCodeURL(state string) string {
	return a.oauth.AuthCodeURL(state)
}

func (a *GoogleAdapter) Exchange(ctx context.Context, code string) (identity.Assertion, error) {
	oauthToken, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return identity.Assertion{}, errors.Wrap(err, "[GoogleAdapter.Exchange] code exchange")
	}

	rawIDToken, ok := oauthToken.Extra("id_token").(string)
	if !ok {
		return identity.Assertion{}, errors.New("[GoogleAdapter.Exchange] no id_token in token response")
	}

	idToken, err := a.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return identity.Assertion{}, errors.Wrap(err, "[GoogleAdapter.Exchange] id_token verification")
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return identity.Assertion{}, errors.Wrap(err, "[GoogleAdapter.Exchange] claims")
	}

	return identity.Assertion{
		Provider:  providers.Google,
		SubjectID: idToken.Subject,
		Email:     claims.Email,
	}, nil
}
