// Package google talks to the Google Calendar API: OAuth connection,
// event listing inside the sync window, and the event writes behind
// assignment and schedule application. All event data crossing the
// package boundary uses the normalized calendar.Event type; the
// google.golang.org/api types never leak out.
package google

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/coachcal/coachcal/internal/profile"
	"github.com/coachcal/coachcal/store"
)

// OAuthConfig builds the oauth2 config for the calendar scope. Offline
// access is required so the refresh token survives restarts.
func OAuthConfig(profile *profile.Profile) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     profile.GoogleClientID,
		ClientSecret: profile.GoogleClientSecret,
		RedirectURL:  profile.GoogleRedirectURL,
		Scopes:       []string{gcal.CalendarScope},
		Endpoint:     googleoauth.Endpoint,
	}
}

// AuthURL returns the consent page URL for the connect flow.
func AuthURL(config *oauth2.Config, state string) string {
	return config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades the callback code for a token and persists it on the
// calendar account row.
func Exchange(ctx context.Context, config *oauth2.Config, st *store.Store, code string) (*oauth2.Token, error) {
	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to exchange oauth code")
	}
	if err := saveToken(ctx, st, token); err != nil {
		return nil, err
	}
	return token, nil
}

func saveToken(ctx context.Context, st *store.Store, token *oauth2.Token) error {
	buf, err := json.Marshal(token)
	if err != nil {
		return errors.Wrap(err, "failed to marshal token")
	}
	account, err := st.GetCalendarAccount(ctx, &store.FindCalendarAccount{})
	if err != nil {
		return err
	}
	if account == nil {
		account = &store.CalendarAccount{CalendarID: "primary", SyncWindowDays: 30}
	}
	account.Token = string(buf)
	_, err = st.UpsertCalendarAccount(ctx, account)
	return err
}

func loadToken(account *store.CalendarAccount) (*oauth2.Token, error) {
	if account == nil || account.Token == "" {
		return nil, errors.New("calendar not connected")
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal([]byte(account.Token), token); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal token")
	}
	return token, nil
}

// persistingTokenSource writes refreshed tokens back to the store so a
// restart never loses the rotated refresh token.
type persistingTokenSource struct {
	ctx  context.Context
	src  oauth2.TokenSource
	st   *store.Store
	last string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.src.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != p.last {
		p.last = token.AccessToken
		if err := saveToken(p.ctx, p.st, token); err != nil {
			return nil, err
		}
	}
	return token, nil
}
