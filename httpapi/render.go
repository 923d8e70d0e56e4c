package httpapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"

	"hotpot/geo"
	"hotpot/herr"
	"hotpot/render"
)

const maxRenderDimension = 2000

// handleRenderBBox serves GET /render?bounds=w,s,e,n&width=W&height=H,
// spec.md §6's arbitrary-bounds render endpoint.
func (s *Server) handleRenderBBox(c echo.Context) error {
	bounds, err := parseBounds(c.QueryParam("bounds"))
	if err != nil {
		return writeError(c, err)
	}
	width, height, err := parseDimensions(c.QueryParam("width"), c.QueryParam("height"), bounds)
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
		Region:   render.Region{BBox: &render.BBoxTarget{Bounds: bounds, Width: width, Height: height}},
		Gradient: sp.gradient,
		Filter:   sp.expr,
		Masks:    s.Masks.Intersecting(bounds.West, bounds.South, bounds.East, bounds.North),
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

func parseBounds(raw string) (geo.Bounds, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return geo.Bounds{}, herr.Parse("bounds", "bounds must be w,s,e,n", nil)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.Bounds{}, herr.Parse("bounds", "bounds must be four numbers", err)
		}
		vals[i] = v
	}
	b := geo.Bounds{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}
	if b.West >= b.East || b.South >= b.North {
		return geo.Bounds{}, herr.Parse("bounds", "bounds must have west<east and south<north", nil)
	}
	return b, nil
}

// parseDimensions enforces spec.md §6: max(W,H) <= 2000 and the
// requested aspect ratio must match the bbox's within 1%.
func parseDimensions(rawW, rawH string, bounds geo.Bounds) (int, int, error) {
	width, err := strconv.Atoi(rawW)
	if err != nil || width <= 0 {
		return 0, 0, herr.Parse("width", "width must be a positive integer", err)
	}
	height, err := strconv.Atoi(rawH)
	if err != nil || height <= 0 {
		return 0, 0, herr.Parse("height", "height must be a positive integer", err)
	}
	if width > maxRenderDimension || height > maxRenderDimension {
		return 0, 0, herr.Parse("width/height", "max dimension is 2000px", nil)
	}

	boundsAspect := (bounds.East - bounds.West) / (bounds.North - bounds.South)
	requestedAspect := float64(width) / float64(height)
	tolerance := boundsAspect * 0.01
	if tolerance < 0 {
		tolerance = -tolerance
	}
	if diff := requestedAspect - boundsAspect; diff > tolerance || diff < -tolerance {
		return 0, 0, herr.Parse("width/height", "aspect ratio must match bounds within 1%", nil)
	}

	return width, height, nil
}
