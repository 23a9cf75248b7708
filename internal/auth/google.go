// Package auth manages the Google OAuth token lifecycle for calendar sync.
// This is a single-user install, so exactly one token is persisted.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/david/rfp-tracker/internal/db"
	"github.com/david/rfp-tracker/internal/models"
)

var ErrNotConnected = errors.New("google calendar is not connected")

const revokeURL = "https://oauth2.googleapis.com/revoke"

type Service struct {
	store  *db.Store
	config *oauth2.Config
}

func NewService(store *db.Store, clientID, clientSecret, redirectURI string) *Service {
	return &Service{
		store: store,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{gcal.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL returns the consent page URL. Offline access plus forced consent
// guarantees Google issues a refresh token even on repeat connections.
func (s *Service) AuthURL(state string) string {
	return s.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// HandleCallback exchanges the authorization code and persists the token.
func (s *Service) HandleCallback(ctx context.Context, code string) error {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}

	return s.store.UpsertGoogleAuth(ctx, models.GoogleAuth{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	})
}

type Status struct {
	Connected bool      `json:"connected"`
	Expiry    time.Time `json:"expiry,omitempty"`
}

func (s *Service) Status(ctx context.Context) (Status, error) {
	stored, err := s.store.GetGoogleAuth(ctx)
	if errors.Is(err, db.ErrNotFound) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, err
	}
	return Status{Connected: true, Expiry: stored.Expiry}, nil
}

// Disconnect revokes the token with Google (best effort) and deletes it.
func (s *Service) Disconnect(ctx context.Context) error {
	stored, err := s.store.GetGoogleAuth(ctx)
	if errors.Is(err, db.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token := stored.AccessToken
	if stored.RefreshToken != "" {
		token = stored.RefreshToken
	}
	if err := revokeToken(ctx, token); err != nil {
		log.Printf("Token revocation failed (continuing): %v", err)
	}

	return s.store.DeleteGoogleAuth(ctx)
}

func revokeToken(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, "POST", revokeURL, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = form.Encode()

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}

// HTTPClient returns an authenticated client that transparently refreshes
// the access token and persists refreshed tokens.
func (s *Service) HTTPClient(ctx context.Context) (*http.Client, error) {
	stored, err := s.store.GetGoogleAuth(ctx)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		TokenType:    stored.TokenType,
		Expiry:       stored.Expiry,
	}

	source := &persistingTokenSource{
		inner: s.config.TokenSource(ctx, token),
		store: s.store,
		last:  token.AccessToken,
	}
	return oauth2.NewClient(ctx, source), nil
}

// persistingTokenSource saves tokens back to the database whenever the
// underlying source refreshes them, so restarts keep a valid session.
type persistingTokenSource struct {
	inner oauth2.TokenSource
	store *db.Store

	mu   sync.Mutex
	last string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.inner.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if token.AccessToken != p.last {
		p.last = token.AccessToken
		err := p.store.UpsertGoogleAuth(context.Background(), models.GoogleAuth{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			TokenType:    token.TokenType,
			Expiry:       token.Expiry,
		})
		if err != nil {
			log.Printf("Failed to persist refreshed Google token: %v", err)
		}
	}
	return token, nil
}
