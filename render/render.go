// Package render assembles a pixel-count grid for a requested output
// region (a single XYZ tile or a geographic bbox), applies masks, maps
// counts through a gradient, and PNG-encodes the result, per spec.md
// §4.8. The source scan is the same streaming `store.IterTiles` cursor
// package filter compiles predicates for, generalized here to a
// downsampling accumulator rather than the teacher's direct MVT byte
// passthrough (services/mvt_generator_postgis_service.go).
package render

import (
	"bytes"
	"context"
	"image"
	"image/png"

	"hotpot/codec"
	"hotpot/filter"
	"hotpot/geo"
	"hotpot/gradient"
	"hotpot/mask"
	"hotpot/store"
)

// Region selects what to render: exactly one of Tile or BBox is set.
type Region struct {
	Tile *TileTarget
	BBox *BBoxTarget
}

// TileTarget renders a single XYZ tile at zoom Z <= geo.SourceZoom.
type TileTarget struct {
	Z, X, Y  int
	TileSize int // 256 or 512
}

// BBoxTarget renders an arbitrary geographic rectangle at a requested
// pixel size (longest side <= 2000, enforced by the caller per
// spec.md §4.8).
type BBoxTarget struct {
	Bounds        geo.Bounds
	Width, Height int
}

// Request bundles everything the renderer needs to produce one PNG.
// Before/After are optional unix-second bounds on the contributing
// activities' created_at, from the `before`/`after` query params.
type Request struct {
	Region        Region
	Gradient      gradient.LUT
	Filter        *filter.Expr
	Masks         []mask.Mask
	Before, After *int64
}

// Store is the subset of *store.Store the renderer reads through,
// narrowed so render can be tested against a fake without an on-disk
// database.
type Store interface {
	IterTiles(ctx context.Context, region store.TileRegion, expr *filter.Expr, fn func(store.TileRow) error) error
}

// Render executes spec.md §4.8's six-step algorithm and returns PNG
// bytes. It never fails on empty data: a region with no matching tiles
// renders a fully transparent image.
func Render(ctx context.Context, st Store, req Request) ([]byte, error) {
	var grid *accumGrid
	var err error

	switch {
	case req.Region.Tile != nil:
		grid, err = renderTile(ctx, st, *req.Region.Tile, req.Filter, req.Before, req.After)
	case req.Region.BBox != nil:
		grid, err = renderBBox(ctx, st, *req.Region.BBox, req.Filter, req.Before, req.After)
	default:
		return nil, errNoRegion
	}
	if err != nil {
		return nil, err
	}

	applyMasks(grid, req.Masks)
	return encodePNG(grid, req.Gradient)
}

var errNoRegion = renderErr("render region must set either Tile or BBox")

type renderErr string

func (e renderErr) Error() string { return string(e) }

// accumGrid is the u16 accumulator described in spec.md §4.8 step 2,
// plus enough geo context to resolve each cell back to (lat, lon) for
// mask zeroing.
type accumGrid struct {
	width, height int
	counts        []uint16
	cellLatLon    func(col, row int) (lat, lon float64)
}

func newAccumGrid(w, h int, cellLatLon func(col, row int) (float64, float64)) *accumGrid {
	return &accumGrid{width: w, height: h, counts: make([]uint16, w*h), cellLatLon: cellLatLon}
}

func (g *accumGrid) add(col, row int, delta int) {
	if col < 0 || col >= g.width || row < 0 || row >= g.height {
		return
	}
	i := row*g.width + col
	v := int(g.counts[i]) + delta
	if v > 0xFFFF {
		v = 0xFFFF
	}
	g.counts[i] = uint16(v)
}

func applyMasks(g *accumGrid, masks []mask.Mask) {
	if len(masks) == 0 {
		return
	}
	for row := 0; row < g.height; row++ {
		for col := 0; col < g.width; col++ {
			lat, lon := g.cellLatLon(col, row)
			for _, m := range masks {
				if m.Covers(lat, lon) {
					g.counts[row*g.width+col] = 0
					break
				}
			}
		}
	}
}

func encodePNG(g *accumGrid, lut gradient.LUT) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	for row := 0; row < g.height; row++ {
		for col := 0; col < g.width; col++ {
			c := g.counts[row*g.width+col]
			idx := c
			if idx > 255 {
				idx = 255
			}
			rgba := lut[idx]
			img.SetRGBA(col, row, rgba)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, renderErr("failed to encode PNG: " + err.Error())
	}
	return buf.Bytes(), nil
}

// renderTile implements step 1 and 3 for the tile case: enumerate the
// SOURCE_ZOOM descendants of (z, x, y), stream their rows, and project
// each visited source pixel onto the output grid via integer math.
func renderTile(ctx context.Context, st Store, t TileTarget, expr *filter.Expr, before, after *int64) (*accumGrid, error) {
	size := t.TileSize
	if size == 0 {
		size = geo.TilePixels
	}

	minX, minY, maxX, maxY := geo.Children(t.Z, t.X, t.Y, geo.SourceZoom)
	span := (maxX - minX + 1) * geo.TilePixels
	originGX := minX * geo.TilePixels
	originGY := minY * geo.TilePixels

	grid := newAccumGrid(size, size, func(col, row int) (float64, float64) {
		px := col * geo.TilePixels / size
		py := row * geo.TilePixels / size
		return geo.Unproject(geo.Pixel{TX: t.X, TY: t.Y, PX: px, PY: py}, t.Z)
	})

	region := store.TileRegion{Z: geo.SourceZoom, MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY, Before: before, After: after}
	err := st.IterTiles(ctx, region, expr, func(r store.TileRow) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		counts, err := codec.DecodeInto(r.EncodedPixels)
		if err != nil {
			return err
		}
		for idx, c := range counts {
			px, py := geo.PixelFromIndex(idx)
			gx := r.X*geo.TilePixels + px - originGX
			gy := r.Y*geo.TilePixels + py - originGY
			col := gx * size / span
			row := gy * size / span
			grid.add(col, row, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grid, nil
}

// renderBBox implements the same steps for an arbitrary geographic
// rectangle, mapping the global SOURCE_ZOOM pixel span covered by the
// bbox onto the requested Width x Height output grid.
func renderBBox(ctx context.Context, st Store, b BBoxTarget, expr *filter.Expr, before, after *int64) (*accumGrid, error) {
	nw := geo.Project(b.Bounds.North, b.Bounds.West, geo.SourceZoom)
	se := geo.Project(b.Bounds.South, b.Bounds.East, geo.SourceZoom)

	minGX := float64(nw.TX*geo.TilePixels + nw.PX)
	minGY := float64(nw.TY*geo.TilePixels + nw.PY)
	maxGX := float64(se.TX*geo.TilePixels + se.PX)
	maxGY := float64(se.TY*geo.TilePixels + se.PY)
	spanGX := maxGX - minGX
	spanGY := maxGY - minGY
	if spanGX <= 0 {
		spanGX = 1
	}
	if spanGY <= 0 {
		spanGY = 1
	}

	grid := newAccumGrid(b.Width, b.Height, func(col, row int) (float64, float64) {
		gx := minGX + (float64(col)+0.5)/float64(b.Width)*spanGX
		gy := minGY + (float64(row)+0.5)/float64(b.Height)*spanGY
		tx := int(gx) / geo.TilePixels
		ty := int(gy) / geo.TilePixels
		px := int(gx) % geo.TilePixels
		py := int(gy) % geo.TilePixels
		return geo.Unproject(geo.Pixel{TX: tx, TY: ty, PX: px, PY: py}, geo.SourceZoom)
	})

	minX, minY, maxX, maxY := geo.BBoxTileRange(b.Bounds, geo.SourceZoom)
	region := store.TileRegion{Z: geo.SourceZoom, MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY, Before: before, After: after}
	err := st.IterTiles(ctx, region, expr, func(r store.TileRow) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		counts, err := codec.DecodeInto(r.EncodedPixels)
		if err != nil {
			return err
		}
		for idx, c := range counts {
			px, py := geo.PixelFromIndex(idx)
			gx := float64(r.X*geo.TilePixels + px)
			gy := float64(r.Y*geo.TilePixels + py)
			col := int((gx - minGX) / spanGX * float64(b.Width))
			row := int((gy - minGY) / spanGY * float64(b.Height))
			grid.add(col, row, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grid, nil
}
