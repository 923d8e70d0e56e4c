package store

import (
	"database/sql"

	"github.com/pocketbase/dbx"

	"hotpot/herr"
	"hotpot/mask"
)

// masks.go implements mask.Store against the masks table, so a
// mask.Registry can be backed directly by the activity store rather
// than a separate file or process, per spec.md §4.6.

// AddMask inserts or replaces a circular geofence mask by name.
func (s *Store) AddMask(m mask.Mask) error {
	_, err := s.db.NewQuery(`
		INSERT INTO masks (name, lat, lon, radius_m) VALUES ({:name}, {:lat}, {:lon}, {:radius})
		ON CONFLICT(name) DO UPDATE SET lat = excluded.lat, lon = excluded.lon, radius_m = excluded.radius_m
	`).Bind(dbx.Params{
		"name":   m.Name,
		"lat":    m.Lat,
		"lon":    m.Lon,
		"radius": m.RadiusM,
	}).Execute()
	if err != nil {
		return herr.Store("masks", "failed to add mask", err)
	}
	return nil
}

// RemoveMask deletes a mask by name.
func (s *Store) RemoveMask(name string) error {
	res, err := s.db.Delete("masks", dbx.HashExp{"name": name}).Execute()
	if err != nil {
		return herr.Store("masks", "failed to remove mask", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return herr.NotFound("mask", "no mask with that name")
	}
	return nil
}

// ListMasks returns every configured mask.
func (s *Store) ListMasks() ([]mask.Mask, error) {
	var rows []struct {
		Name    string  `db:"name"`
		Lat     float64 `db:"lat"`
		Lon     float64 `db:"lon"`
		RadiusM float64 `db:"radius_m"`
	}
	err := s.db.Select("name", "lat", "lon", "radius_m").From("masks").All(&rows)
	if err != nil && err != sql.ErrNoRows {
		return nil, herr.Store("masks", "failed to list masks", err)
	}
	out := make([]mask.Mask, 0, len(rows))
	for _, r := range rows {
		out = append(out, mask.Mask{Name: r.Name, Lat: r.Lat, Lon: r.Lon, RadiusM: r.RadiusM})
	}
	return out, nil
}
