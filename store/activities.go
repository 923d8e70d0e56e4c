package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pocketbase/dbx"

	"hotpot/herr"
)

// Activity is the spec.md §3 Activity entity.
type Activity struct {
	ID         int64
	Source     string // "file", "upload", or "strava"
	StravaID   *int64
	Title      *string
	CreatedAt  time.Time
	Properties map[string]any
}

// TileWrite is one ActivityTile row to write alongside an Activity.
type TileWrite struct {
	Z, X, Y       int
	EncodedPixels []byte
}

// PutActivity inserts an activity and all of its tiles atomically. If
// activity.StravaID is set and an activity with that strava_id already
// exists, PutActivity is a no-op and returns the existing id — this is
// the idempotency spec.md scenario 6 requires for concurrent duplicate
// Strava ingests.
func (s *Store) PutActivity(ctx context.Context, a Activity, tiles []TileWrite) (int64, error) {
	var id int64
	err := s.WithTx(ctx, func(tx *dbx.Tx) error {
		if a.StravaID != nil {
			existing, err := findByStravaID(tx, *a.StravaID)
			if err != nil {
				return err
			}
			if existing != 0 {
				id = existing
				return nil
			}
		}

		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now().UTC()
		}

		res, err := tx.Insert("activities", dbx.Params{
			"source":     a.Source,
			"strava_id":  nullableInt(a.StravaID),
			"title":      nullableStr(a.Title),
			"created_at": a.CreatedAt.Unix(),
		}).Execute()
		if err != nil {
			return herr.Store("activities", "failed to insert activity", err)
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return herr.Store("activities", "failed to read inserted id", err)
		}
		id = newID

		if err := insertProperties(tx, id, a.Properties); err != nil {
			return err
		}

		for _, t := range tiles {
			_, err := tx.Insert("activity_tiles", dbx.Params{
				"activity_id":    id,
				"z":              t.Z,
				"x":              t.X,
				"y":              t.Y,
				"encoded_pixels": t.EncodedPixels,
			}).Execute()
			if err != nil {
				return herr.Store("activity_tiles", "failed to insert tile", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func findByStravaID(tx *dbx.Tx, stravaID int64) (int64, error) {
	var id int64
	err := tx.Select("id").From("activities").
		Where(dbx.HashExp{"strava_id": stravaID}).
		Row(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, herr.Store("activities", "failed to look up strava_id", err)
	}
	return id, nil
}

func insertProperties(tx *dbx.Tx, activityID int64, props map[string]any) error {
	for key, val := range props {
		row := dbx.Params{"activity_id": activityID, "key": key}
		switch v := val.(type) {
		case nil:
			row["value_type"] = "null"
		case bool:
			row["value_type"] = "bool"
			row["value_bool"] = boolToInt(v)
		case string:
			row["value_type"] = "string"
			row["value_str"] = v
		case float64:
			row["value_type"] = "number"
			row["value_num"] = v
		case float32:
			row["value_type"] = "number"
			row["value_num"] = float64(v)
		case int:
			row["value_type"] = "number"
			row["value_num"] = float64(v)
		case int64:
			row["value_type"] = "number"
			row["value_num"] = float64(v)
		default:
			return herr.Store("activity_properties", "unsupported property scalar type for key "+key, nil)
		}
		if _, err := tx.Insert("activity_properties", row).Execute(); err != nil {
			return herr.Store("activity_properties", "failed to insert property "+key, err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableStr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// UpdateProperties merges additional key/value pairs into an existing
// activity's properties (used by CSV join during import, per spec.md
// §4.4). Keys already present are overwritten.
func (s *Store) UpdateProperties(ctx context.Context, id int64, merge map[string]any) error {
	return s.WithTx(ctx, func(tx *dbx.Tx) error {
		for key := range merge {
			if _, err := tx.Delete("activity_properties", dbx.HashExp{"activity_id": id, "key": key}).Execute(); err != nil {
				return herr.Store("activity_properties", "failed to clear property "+key, err)
			}
		}
		return insertProperties(tx, id, merge)
	})
}

// DeleteActivity removes an activity and cascades to its tiles and
// properties (spec.md §3 "Deletion of an activity cascades to its
// tiles").
func (s *Store) DeleteActivity(ctx context.Context, id int64) error {
	return s.WithTx(ctx, func(tx *dbx.Tx) error {
		res, err := tx.Delete("activities", dbx.HashExp{"id": id}).Execute()
		if err != nil {
			return herr.Store("activities", "failed to delete activity", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return herr.NotFound("activity", "no activity with that id")
		}
		return nil
	})
}

// FindByStravaID looks up an activity's id by its Strava activity id,
// for webhook update/delete dispatch.
func (s *Store) FindByStravaID(ctx context.Context, stravaID int64) (int64, error) {
	var id int64
	err := s.db.Select("id").From("activities").
		Where(dbx.HashExp{"strava_id": stravaID}).
		Row(&id)
	if err == sql.ErrNoRows {
		return 0, herr.NotFound("strava_id", "no activity with that strava id")
	}
	if err != nil {
		return 0, herr.Store("activities", "failed to look up strava_id", err)
	}
	return id, nil
}

// CountActivities returns the total number of stored activities. Used
// by the httpapi upload tests asserting the count increased by one
// (spec.md §8 scenario 4) and by the store's scenario 6 test.
func (s *Store) CountActivities(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.Select("COUNT(*)").From("activities").Row(&n)
	if err != nil {
		return 0, herr.Store("activities", "failed to count activities", err)
	}
	return n, nil
}

// PropertySummary describes one property key across all stored
// activities, powering the filter-help UI (spec.md §4.4
// properties_summary).
type PropertySummary struct {
	Key           string
	Count         int64
	ObservedTypes []string
}

// PropertiesSummary aggregates the distinct property keys, their
// occurrence count, and the set of value types observed for each.
func (s *Store) PropertiesSummary(ctx context.Context) ([]PropertySummary, error) {
	type row struct {
		Key   string `db:"key"`
		Type  string `db:"value_type"`
		Count int64  `db:"n"`
	}
	var rows []row
	err := s.db.NewQuery(`
		SELECT key, value_type, COUNT(*) as n
		FROM activity_properties
		GROUP BY key, value_type
		ORDER BY key
	`).All(&rows)
	if err != nil {
		return nil, herr.Store("properties_summary", "failed to aggregate properties", err)
	}

	byKey := map[string]*PropertySummary{}
	var order []string
	for _, r := range rows {
		ps, ok := byKey[r.Key]
		if !ok {
			ps = &PropertySummary{Key: r.Key}
			byKey[r.Key] = ps
			order = append(order, r.Key)
		}
		ps.Count += r.Count
		ps.ObservedTypes = append(ps.ObservedTypes, r.Type)
	}

	out := make([]PropertySummary, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out, nil
}
