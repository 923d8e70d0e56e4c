package cmd

import (
	"hotpot/store"
	"hotpot/strava"
)

// stravaAuthStore adapts *store.Store's StravaAuth CRUD to package
// strava's AuthStore interface. The two packages deliberately don't
// import each other (store is the storage engine, strava is an OAuth
// client); this is the small seam wiring them together.
type stravaAuthStore struct {
	st *store.Store
}

func (a stravaAuthStore) GetStravaAuth() (strava.Auth, bool, error) {
	sa, ok, err := a.st.GetStravaAuth()
	if err != nil || !ok {
		return strava.Auth{}, ok, err
	}
	return strava.Auth{
		AccessToken:  sa.AccessToken,
		RefreshToken: sa.RefreshToken,
		ExpiresAt:    sa.ExpiresAt,
		AthleteID:    sa.AthleteID,
	}, true, nil
}

func (a stravaAuthStore) SetStravaAuth(auth strava.Auth) error {
	return a.st.SetStravaAuth(store.StravaAuth{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		ExpiresAt:    auth.ExpiresAt,
		AthleteID:    auth.AthleteID,
	})
}
