package httpapi

import (
	"strconv"

	"github.com/labstack/echo/v5"

	"hotpot/geo"
	"hotpot/herr"
	"hotpot/render"
)

// handleTile serves GET /tile/{z}/{x}/{y}, spec.md §6's XYZ tile
// endpoint. Renders never fail on empty data: an unpopulated tile
// still returns a transparent PNG, matching spec.md §4.8's "tile
// renders never fail on empty data". A zoom above geo.SourceZoom or
// x/y outside the zoom's tile range is rejected with 400.
func (s *Server) handleTile(c echo.Context) error {
	z, x, y, err := parseTileCoords(c)
	if err != nil {
		return writeError(c, err)
	}

	sp, err := parseStyleParams(c)
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	req := render.Request{
		Region:   render.Region{Tile: &render.TileTarget{Z: z, X: x, Y: y, TileSize: sp.size}},
		Gradient: sp.gradient,
		Filter:   sp.expr,
		Masks:    s.Masks.Intersecting(tileGeoBounds(z, x, y)),
		Before:   sp.before,
		After:    sp.after,
	}

	png, err := render.Render(ctx, s.Store, req)
	if err != nil {
		return writeError(c, err)
	}

	c.Response().Header().Set("Content-Type", "image/png")
	c.Response().WriteHeader(200)
	_, err = c.Response().Write(png)
	return err
}

func tileGeoBounds(z, x, y int) (west, south, east, north float64) {
	b := geo.TileBounds(z, x, y)
	return b.West, b.South, b.East, b.North
}

func parseTileCoords(c echo.Context) (z, x, y int, err error) {
	z, err = strconv.Atoi(c.Request().PathValue("z"))
	if err != nil {
		return 0, 0, 0, herr.Parse("z", "invalid zoom", err)
	}
	x, err = strconv.Atoi(c.Request().PathValue("x"))
	if err != nil {
		return 0, 0, 0, herr.Parse("x", "invalid x", err)
	}
	y, err = strconv.Atoi(c.Request().PathValue("y"))
	if err != nil {
		return 0, 0, 0, herr.Parse("y", "invalid y", err)
	}
	if z < 0 || z > geo.SourceZoom {
		return 0, 0, 0, herr.Parse("z", "zoom out of range", nil)
	}
	n := 1 << uint(z)
	if x < 0 || x >= n || y < 0 || y >= n {
		return 0, 0, 0, herr.Parse("x/y", "tile coordinates out of range", nil)
	}
	return z, x, y, nil
}
