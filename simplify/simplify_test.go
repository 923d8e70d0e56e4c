package simplify

import (
	"testing"

	"hotpot/geo"
)

func TestTrackScenario1(t *testing.T) {
	// Spec scenario 1: samples [(0,0), (0, 0.0003)] with trim_dist=0
	// should produce exactly one source-zoom tile (32768, 32768) with
	// at least two distinct visited pixels along row py=128.
	samples := []Sample{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 0.0003},
	}
	visits := Track(samples, 0)
	if len(visits) != 1 {
		t.Fatalf("expected exactly one tile, got %d", len(visits))
	}
	var key TileKey
	var pixels map[int]struct{}
	for k, v := range visits {
		key, pixels = k, v
	}
	if key.X != 32768 || key.Y != 32768 {
		t.Fatalf("expected tile (32768,32768), got (%d,%d)", key.X, key.Y)
	}

	rows := map[int]int{}
	for idx := range pixels {
		px, py := geo.PixelFromIndex(idx)
		_ = px
		rows[py]++
	}
	if rows[128] < 2 {
		t.Fatalf("expected at least 2 distinct visited pixels on row 128, got %d (rows=%v)", rows[128], rows)
	}
}

func TestTrackSkipsShortActivities(t *testing.T) {
	visits := Track([]Sample{{Lat: 0, Lon: 0}}, 0)
	if len(visits) != 0 {
		t.Fatalf("expected no visits for a single sample, got %v", visits)
	}
	visits = Track(nil, 0)
	if len(visits) != 0 {
		t.Fatalf("expected no visits for no samples, got %v", visits)
	}
}

func TestTrackSkipsDuplicateQuantizedPoints(t *testing.T) {
	samples := []Sample{
		{Lat: 10, Lon: 10},
		{Lat: 10.0000001, Lon: 10.0000001}, // quantizes to the same pixel
		{Lat: 10.01, Lon: 10.01},
	}
	visits := Track(samples, 0)
	total := 0
	for _, set := range visits {
		total += len(set)
	}
	if total == 0 {
		t.Fatalf("expected some visited pixels")
	}
}

func TestTrimDiscardsShortEnds(t *testing.T) {
	// Three points roughly 1m apart near the equator; with a 10km trim
	// distance at most one sample should survive (fewer than 2 remain).
	samples := []Sample{
		{Lat: 0, Lon: 0},
		{Lat: 0.00001, Lon: 0},
		{Lat: 0.00002, Lon: 0},
	}
	trimmed := Trim(samples, 10000)
	if len(trimmed) > 1 {
		t.Fatalf("expected at most one sample to survive a 10km trim over a few meters of track, got %d", len(trimmed))
	}
}

func TestWalkLineCrossesTileBoundary(t *testing.T) {
	// Pick two points far enough apart to land in different source tiles
	// but along the same line, and confirm more than one tile is touched.
	samples := []Sample{
		{Lat: 45, Lon: -0.01},
		{Lat: 45, Lon: 0.01},
	}
	visits := Track(samples, 0)
	if len(visits) < 2 {
		t.Fatalf("expected more than one tile of visits, got %d", len(visits))
	}
}
