// Package simplify turns a raw GPS sample sequence into the set of
// per-tile visited pixels hotpot stores, applying the spec's head/tail
// trim and line-walk rules. Haversine distance is adapted directly from
// the teacher's services/gpx_service.go (haversineDistance).
package simplify

import (
	"math"

	"hotpot/geo"
)

// Sample is one decoded GPS fix, position only: timestamps and
// elevation stay on decode.Sample, from which package ingest computes
// its derived properties.
type Sample struct {
	Lat, Lon float64
}

// TileKey identifies one source-zoom tile by its (x, y) coordinates.
type TileKey struct{ X, Y int }

// Visits maps each traversed source-zoom tile to the set of pixel
// indices visited within it.
type Visits map[TileKey]map[int]struct{}

const earthRadiusM = 6371000.0

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// Trim discards samples from both ends while the cumulative haversine
// distance from the first (or to the last) kept sample is less than
// trimDist meters.
func Trim(samples []Sample, trimDist float64) []Sample {
	if trimDist <= 0 || len(samples) == 0 {
		return samples
	}

	start := 0
	acc := 0.0
	for start < len(samples)-1 {
		acc += haversine(samples[start].Lat, samples[start].Lon, samples[start+1].Lat, samples[start+1].Lon)
		if acc >= trimDist {
			break
		}
		start++
	}

	end := len(samples) - 1
	acc = 0.0
	for end > start {
		acc += haversine(samples[end].Lat, samples[end].Lon, samples[end-1].Lat, samples[end-1].Lon)
		if acc >= trimDist {
			break
		}
		end--
	}

	if start > end {
		return nil
	}
	return samples[start : end+1]
}

// Track walks the trimmed sample sequence and returns the per-tile
// visited-pixel sets at geo.SourceZoom. Fewer than two kept samples
// yields an empty result, per spec.
func Track(samples []Sample, trimDist float64) Visits {
	kept := Trim(samples, trimDist)
	if len(kept) < 2 {
		return Visits{}
	}

	out := Visits{}
	mark := func(p geo.Pixel) {
		k := TileKey{X: p.TX, Y: p.TY}
		set, ok := out[k]
		if !ok {
			set = map[int]struct{}{}
			out[k] = set
		}
		set[geo.PixelIndex(p.PX, p.PY)] = struct{}{}
	}

	prev := geo.Project(kept[0].Lat, kept[0].Lon, geo.SourceZoom)
	mark(prev)
	for i := 1; i < len(kept); i++ {
		cur := geo.Project(kept[i].Lat, kept[i].Lon, geo.SourceZoom)
		if cur == prev {
			continue
		}
		walkLine(prev, cur, mark)
		prev = cur
	}
	return out
}

// globalCoord returns integer global (gx, gy) pixel coordinates at
// geo.SourceZoom, used only to drive the Bresenham walk across tile
// boundaries.
func globalCoord(p geo.Pixel) (int, int) {
	return p.TX*geo.TilePixels + p.PX, p.TY*geo.TilePixels + p.PY
}

func pixelFromGlobal(gx, gy int) geo.Pixel {
	tx := gx / geo.TilePixels
	ty := gy / geo.TilePixels
	px := gx % geo.TilePixels
	py := gy % geo.TilePixels
	return geo.Pixel{TX: tx, TY: ty, PX: px, PY: py}
}

// walkLine visits every source-pixel cell on the integer line between a
// and b (inclusive of both endpoints) via Bresenham's algorithm,
// crossing tile boundaries transparently since it operates in global
// pixel space.
func walkLine(a, b geo.Pixel, mark func(geo.Pixel)) {
	x0, y0 := globalCoord(a)
	x1, y1 := globalCoord(b)

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 >= x1 {
		sx = -1
	}
	sy := 1
	if y0 >= y1 {
		sy = -1
	}
	err := dx + dy

	x, y := x0, y0
	for {
		mark(pixelFromGlobal(x, y))
		if x == x1 && y == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
