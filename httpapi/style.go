package httpapi

import (
	"time"

	"github.com/labstack/echo/v5"

	"hotpot/filter"
	"hotpot/gradient"
	"hotpot/herr"
)

// styleParams is the set of query parameters shared by /tile and
// /render: the gradient/color spec, the activity filter expression, a
// created_at date window, and the requested tile size. Unknown params
// are ignored per spec.md §6.
type styleParams struct {
	gradient      gradient.LUT
	expr          *filter.Expr
	before, after *int64
	size          int
}

func parseStyleParams(c echo.Context) (styleParams, error) {
	var sp styleParams

	spec := c.QueryParam("gradient")
	if spec == "" {
		spec = c.QueryParam("color")
	}
	if spec == "" {
		spec = "heat"
	}
	lut, err := gradient.ParseAndBuild(spec)
	if err != nil {
		return sp, err
	}
	sp.gradient = lut

	if raw := c.QueryParam("filter"); raw != "" {
		expr, err := filter.Parse(raw)
		if err != nil {
			return sp, err
		}
		sp.expr = expr
	}

	if raw := c.QueryParam("after"); raw != "" {
		ts, err := parseDateParam("after", raw)
		if err != nil {
			return sp, err
		}
		sp.after = &ts
	}
	if raw := c.QueryParam("before"); raw != "" {
		ts, err := parseDateParam("before", raw)
		if err != nil {
			return sp, err
		}
		sp.before = &ts
	}

	sp.size = 256
	if raw := c.QueryParam("size"); raw != "" {
		switch raw {
		case "256":
			sp.size = 256
		case "512":
			sp.size = 512
		default:
			return sp, herr.Parse("size", "size must be 256 or 512", nil)
		}
	}

	return sp, nil
}

func parseDateParam(field, iso string) (int64, error) {
	if t, err := time.Parse("2006-01-02", iso); err == nil {
		return t.Unix(), nil
	}
	if t, err := time.Parse(time.RFC3339, iso); err == nil {
		return t.Unix(), nil
	}
	return 0, herr.Parse(field, "invalid date "+iso, nil)
}
