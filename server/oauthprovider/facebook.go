package oauthprovider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/bigmini/auth-service/identity"
	"github.com/bigmini/auth-service/providers"
)

const facebookUserInfoURL = "https://graph.facebook.com/me?fields=id,email"

// FacebookAdapter resolves the subject through the Graph API; Facebook does
// not issue OIDC ID tokens on this flow.
type FacebookAdapter struct {
	oauth *oauth2.Config
}

func NewFacebookAdapter(clientID, clientSecret, redirectURL string) *FacebookAdapter {
	return &FacebookAdapter{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     endpoints.Facebook,
			RedirectURL:  redirectURL,
			Scopes:       []string{"email"},
		},
	}
}

func (a *FacebookAdapter) Name() string { return providers.Facebook }

func (a *FacebookAdapter) AuthCodeURL(state string) string {
	return a.oauth.AuthCodeURL(state)
}

func (a *FacebookAdapter) Exchange(ctx context.Context, code string) (identity.Assertion, error) {
	oauthToken, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return identity.Assertion{}, errors.Wrap(err, "[FacebookAdapter.Exchange] code exchange")
	}

	profile, err := fetchUserInfo(ctx, a.oauth.Client(ctx, oauthToken), facebookUserInfoURL)
	if err != nil {
		return identity.Assertion{}, errors.Wrap(err, "[FacebookAdapter.Exchange]")
	}

	return identity.Assertion{
		Provider:  providers.Facebook,
		SubjectID: profile.ID,
		Email:     profile.Email,
	}, nil
}

type userInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func fetchUserInfo(ctx context.Context, client *http.Client, url string) (*userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "userinfo request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "userinfo call")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("userinfo status %d: %s", resp.StatusCode, string(body))
	}

	var profile userInfo
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, errors.Wrap(err, "userinfo decode")
	}
	if profile.ID == "" {
		return nil, errors.New("userinfo missing subject id")
	}
	return &profile, nil
}
