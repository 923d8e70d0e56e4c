package store

import (
	"database/sql"

	"github.com/pocketbase/dbx"

	"hotpot/herr"
)

// GetConfig reads a single config key, returning ("", false) if unset.
func (s *Store) GetConfig(key string) (string, bool, error) {
	var value string
	err := s.db.Select("value").From("config").
		Where(dbx.HashExp{"key": key}).
		Row(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, herr.Store("config", "failed to read config key "+key, err)
	}
	return value, true, nil
}

// SetConfig upserts a config key.
func (s *Store) SetConfig(key, value string) error {
	_, err := s.db.NewQuery(`
		INSERT INTO config (key, value) VALUES ({:key}, {:value})
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`).Bind(dbx.Params{"key": key, "value": value}).Execute()
	if err != nil {
		return herr.Store("config", "failed to set config key "+key, err)
	}
	return nil
}
