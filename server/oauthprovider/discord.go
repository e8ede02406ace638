package oauthprovider

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/bigmini/auth-service/identity"
	"github.com/bigmini/auth-service/providers"
)

const discordUserInfoURL = "https://discord.com/api/users/@me"

type DiscordAdapter struct {
	oauth *oauth2.Config
}

func NewDiscordAdapter(clientID, clientSecret, redirectURL string) *DiscordAdapter {
	return &DiscordAdapter{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     endpoints.Discord,
			RedirectURL:  redirectURL,
			Scopes:       []string{"identify", "email"},
		},
	}
}

func (a *DiscordAdapter) Name() string { return providers.Discord }

func (a *DiscordAdapter) AuthCodeURL(state string) string {
	return a.oauth.AuthCodeURL(state)
}

func (a *DiscordAdapter) Exchange(ctx context.Context, code string) (identity.Assertion, error) {
	oauthToken, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return identity.Assertion{}, errors.Wrap(err, "[DiscordAdapter.Exchange] code exchange")
	}

	profile, err := fetchUserInfo(ctx, a.oauth.Client(ctx, oauthToken), discordUserInfoURL)
	if err != nil {
		return identity.Assertion{}, errors.Wrap(err, "[DiscordAdapter.Exchange]")
	}

	return identity.Assertion{
		Provider:  providers.Discord,
		SubjectID: profile.ID,
		Email:     profile.Email,
	}, nil
}
