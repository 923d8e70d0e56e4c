// Package strava implements OAuth token lifecycle management, activity
// fetch, and webhook dispatch against the Strava API v3, grounded on
// the teacher's indirect golang.org/x/oauth2 dependency and on the
// other_examples cderwin-strava-hooks reference (StravaClient /
// performRequest request idiom, stream decoding).
package strava

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"hotpot/herr"
)

// AuthURL and TokenURL are Strava's fixed OAuth2 endpoints.
const (
	AuthURL  = "https://www.strava.com/oauth/authorize"
	TokenURL = "https://www.strava.com/oauth/token"
)

// Auth is the singleton token record, mirroring store.StravaAuth
// without importing package store directly (keeps strava decoupled
// from the storage engine; callers adapt).
type Auth struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	AthleteID    int64
}

// AuthStore is the persistence boundary Manager writes through.
type AuthStore interface {
	GetStravaAuth() (Auth, bool, error)
	SetStravaAuth(Auth) error
}

// refreshSkew matches spec.md's "refreshed lazily when now >=
// expires_at - 60s".
const refreshSkew = 60 * time.Second

// Manager owns the three-state {unconfigured, valid, expired} token
// lifecycle from spec.md §4.8 and serializes refreshes with a single
// mutex, per spec.md §5.
type Manager struct {
	cfg   *oauth2.Config
	store AuthStore
	mu    sync.Mutex
}

func NewManager(clientID, clientSecret, redirectURL string, store AuthStore) *Manager {
	return &Manager{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     oauth2.Endpoint{AuthURL: AuthURL, TokenURL: TokenURL},
		},
		store: store,
	}
}

// AuthCodeURL builds the URL to redirect a user to for GET /strava/auth.
func (m *Manager) AuthCodeURL(state string) string {
	return m.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange completes the authorization-code flow for GET /strava/callback.
func (m *Manager) Exchange(ctx context.Context, code string) error {
	tok, err := m.cfg.Exchange(ctx, code)
	if err != nil {
		return herr.Auth("strava code exchange failed: " + err.Error())
	}
	athleteID := athleteIDFromToken(tok)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.SetStravaAuth(Auth{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		AthleteID:    athleteID,
	})
}

func athleteIDFromToken(tok *oauth2.Token) int64 {
	if tok == nil {
		return 0
	}
	raw, ok := tok.Extra("athlete").(map[string]any)
	if !ok {
		return 0
	}
	id, ok := raw["id"].(float64)
	if !ok {
		return 0
	}
	return int64(id)
}

// AccessToken returns a valid access token, transparently refreshing
// it if expired. Returns herr.Auth if Strava has never been
// authorized (the "unconfigured" state).
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	auth, ok, err := m.store.GetStravaAuth()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", herr.Auth("strava is not configured")
	}
	if time.Now().Before(auth.ExpiresAt.Add(-refreshSkew)) {
		return auth.AccessToken, nil
	}

	ts := m.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: auth.RefreshToken})
	tok, err := ts.Token()
	if err != nil {
		return "", herr.Auth("strava token refresh failed: " + err.Error())
	}
	refreshed := Auth{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
		AthleteID:    auth.AthleteID,
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = auth.RefreshToken
	}
	if err := m.store.SetStravaAuth(refreshed); err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}
