package store

import (
	"context"
	"fmt"

	"github.com/pocketbase/dbx"

	"hotpot/filter"
	"hotpot/herr"
)

// TileRegion selects a rectangle of tiles at a single zoom level. A
// single-tile lookup sets MinX==MaxX and MinY==MaxY. Before/After are
// optional unix-second bounds on the owning activity's created_at,
// populated from the `before`/`after` query params spec.md §6 names;
// nil means unbounded.
type TileRegion struct {
	Z                      int
	MinX, MinY, MaxX, MaxY int
	Before, After          *int64
}

// TileRow is one activity's contribution to a tile, as streamed out of
// IterTiles.
type TileRow struct {
	ActivityID    int64
	X, Y          int
	EncodedPixels []byte
}

// IterTiles streams every activity_tiles row inside region that
// satisfies expr, calling fn once per row. It does not materialize the
// result set: region queries can span the full planet at a busy zoom
// level and return millions of rows, so this is the one place in the
// store that drops from dbx's struct-scanning convenience down to a
// raw *sql.Rows cursor (see DESIGN.md). fn's error aborts the scan and
// is returned to the caller.
func (s *Store) IterTiles(ctx context.Context, region TileRegion, expr *filter.Expr, fn func(TileRow) error) error {
	filterSQL, filterParams := filter.Compile(expr)

	timeSQL := ""
	params := dbx.Params{
		"z":     region.Z,
		"min_x": region.MinX,
		"max_x": region.MaxX,
		"min_y": region.MinY,
		"max_y": region.MaxY,
	}
	if region.After != nil {
		timeSQL += " AND activities.created_at >= {:after}"
		params["after"] = *region.After
	}
	if region.Before != nil {
		timeSQL += " AND activities.created_at <= {:before}"
		params["before"] = *region.Before
	}

	from := "activity_tiles"
	if timeSQL != "" {
		from = "activity_tiles JOIN activities ON activities.id = activity_tiles.activity_id"
	}

	query := fmt.Sprintf(`
		SELECT activity_tiles.activity_id, activity_tiles.x, activity_tiles.y, activity_tiles.encoded_pixels
		FROM %s
		WHERE activity_tiles.z = {:z}
		  AND activity_tiles.x BETWEEN {:min_x} AND {:max_x}
		  AND activity_tiles.y BETWEEN {:min_y} AND {:max_y}
		  AND (%s)%s
	`, from, filterSQL, timeSQL)

	for k, v := range filterParams {
		params[k] = v
	}

	q := s.db.NewQuery(query).Bind(params).WithContext(ctx)
	rows, err := q.Rows()
	if err != nil {
		return herr.Store("iter_tiles", "failed to start tile scan", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r TileRow
		if err := rows.Scan(&r.ActivityID, &r.X, &r.Y, &r.EncodedPixels); err != nil {
			return herr.Store("iter_tiles", "failed to scan tile row", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return herr.Store("iter_tiles", "tile scan failed", err)
	}
	return nil
}
