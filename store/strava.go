package store

import (
	"database/sql"
	"time"

	"github.com/pocketbase/dbx"

	"hotpot/herr"
)

// StravaAuth is the single-row Strava OAuth token record (spec.md's
// "unconfigured / valid / expired" lifecycle starts at "unconfigured",
// meaning no row exists yet).
type StravaAuth struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	AthleteID    int64
}

// GetStravaAuth returns the stored token, or ok=false if Strava has
// never been authorized.
func (s *Store) GetStravaAuth() (auth StravaAuth, ok bool, err error) {
	var row struct {
		AccessToken  string `db:"access_token"`
		RefreshToken string `db:"refresh_token"`
		ExpiresAt    int64  `db:"expires_at"`
		AthleteID    int64  `db:"athlete_id"`
	}
	dberr := s.db.Select("access_token", "refresh_token", "expires_at", "athlete_id").
		From("strava_auth").
		Where(dbx.HashExp{"id": 1}).
		One(&row)
	if dberr == sql.ErrNoRows {
		return StravaAuth{}, false, nil
	}
	if dberr != nil {
		return StravaAuth{}, false, herr.Store("strava_auth", "failed to read token", dberr)
	}
	return StravaAuth{
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		ExpiresAt:    time.Unix(row.ExpiresAt, 0).UTC(),
		AthleteID:    row.AthleteID,
	}, true, nil
}

// SetStravaAuth upserts the single Strava auth row, used both at
// initial authorization and after a token refresh.
func (s *Store) SetStravaAuth(auth StravaAuth) error {
	_, err := s.db.NewQuery(`
		INSERT INTO strava_auth (id, access_token, refresh_token, expires_at, athlete_id)
		VALUES (1, {:access}, {:refresh}, {:expires}, {:athlete})
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			athlete_id = excluded.athlete_id
	`).Bind(dbx.Params{
		"access":  auth.AccessToken,
		"refresh": auth.RefreshToken,
		"expires": auth.ExpiresAt.Unix(),
		"athlete": auth.AthleteID,
	}).Execute()
	if err != nil {
		return herr.Store("strava_auth", "failed to store token", err)
	}
	return nil
}
