package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hotpot/decode"
	"hotpot/store"
)

func TestComputePropertiesDistanceAndTiming(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	t1 := t0.Add(10 * time.Minute)
	ele0, ele1 := 100.0, 150.0

	samples := []decode.Sample{
		{Lat: 52.5200, Lon: 13.4050, Time: &t0, Elevation: &ele0},
		{Lat: 52.5300, Lon: 13.4050, Time: &t1, Elevation: &ele1},
	}

	props := ComputeProperties(samples)
	dist, ok := props["total_distance"].(float64)
	if !ok || dist <= 0 {
		t.Fatalf("expected positive total_distance, got %+v", props["total_distance"])
	}
	if props["elapsed_time"].(float64) != 600 {
		t.Fatalf("expected elapsed_time=600, got %v", props["elapsed_time"])
	}
	if props["elevation_gain"].(float64) != 50 {
		t.Fatalf("expected elevation_gain=50, got %v", props["elevation_gain"])
	}
	if props["elevation_loss"].(float64) != 0 {
		t.Fatalf("expected elevation_loss=0, got %v", props["elevation_loss"])
	}
}

func TestComputePropertiesExcludesSlowSegmentsFromMovingTime(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	t1 := t0.Add(1 * time.Hour) // huge dt, tiny distance -> speed far below 0.3 m/s

	samples := []decode.Sample{
		{Lat: 52.5200, Lon: 13.4050, Time: &t0},
		{Lat: 52.52001, Lon: 13.4050, Time: &t1},
	}
	props := ComputeProperties(samples)
	if props["moving_time"].(float64) != 0 {
		t.Fatalf("expected moving_time=0 for a stationary gap, got %v", props["moving_time"])
	}
}

func TestComputePropertiesEmptyForShortSequence(t *testing.T) {
	props := ComputeProperties([]decode.Sample{{Lat: 1, Lon: 1}})
	if len(props) != 0 {
		t.Fatalf("expected no computed properties for <2 samples, got %+v", props)
	}
}

type fakeStore struct {
	activities []store.Activity
	tiles      [][]store.TileWrite
	updated    map[int64]map[string]any
}

func (f *fakeStore) PutActivity(ctx context.Context, a store.Activity, tiles []store.TileWrite) (int64, error) {
	f.activities = append(f.activities, a)
	f.tiles = append(f.tiles, tiles)
	return int64(len(f.activities)), nil
}

func (f *fakeStore) UpdateProperties(ctx context.Context, id int64, merge map[string]any) error {
	if f.updated == nil {
		f.updated = map[int64]map[string]any{}
	}
	f.updated[id] = merge
	return nil
}

const gpxFixture = `<?xml version="1.0"?>
<gpx>
  <trk>
    <name>Test Ride</name>
    <trkseg>
      <trkpt lat="52.5200" lon="13.4050"><ele>34.0</ele></trkpt>
      <trkpt lat="52.5300" lon="13.4050"><ele>40.0</ele></trkpt>
      <trkpt lat="52.5400" lon="13.4050"><ele>45.0</ele></trkpt>
    </trkseg>
  </trk>
</gpx>`

func TestOneDecodesAndStoresGPX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ride.gpx")
	if err := os.WriteFile(path, []byte(gpxFixture), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := &fakeStore{}
	id, err := One(context.Background(), fs, path, "file", 0)
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}
	if len(fs.activities) != 1 {
		t.Fatalf("expected one stored activity, got %d", len(fs.activities))
	}
	a := fs.activities[0]
	if a.Properties["title"] != "Test Ride" {
		t.Fatalf("expected decoder title to survive, got %+v", a.Properties)
	}
	if _, ok := a.Properties["total_distance"].(float64); !ok {
		t.Fatalf("expected computed total_distance, got %+v", a.Properties)
	}
	if len(fs.tiles[0]) == 0 {
		t.Fatal("expected at least one tile to be written")
	}
}

func TestDirIngestSkipsUnknownExtensionsAndRecordsErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ride.gpx"), []byte(gpxFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "empty.gpx"), []byte(`<?xml version="1.0"?><gpx><trk><name>x</name></trk></gpx>`), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := &fakeStore{}
	sum, err := Dir(context.Background(), fs, dir, 0, "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Imported != 1 {
		t.Fatalf("expected 1 successful import, got %d (errors: %+v)", sum.Imported, sum.Errors)
	}
	if len(sum.Errors) != 1 {
		t.Fatalf("expected 1 recorded error, got %d", len(sum.Errors))
	}
}

func TestLoadJoinCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "join.csv")
	content := "file,commute,notes\nride,true,loop\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	joined, err := LoadJoinCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	row, ok := joined["ride"]
	if !ok {
		t.Fatal("expected join row for key 'ride'")
	}
	if row["commute"] != true {
		t.Fatalf("expected commute=true, got %+v", row["commute"])
	}
	if row["notes"] != "loop" {
		t.Fatalf("expected notes=loop, got %+v", row["notes"])
	}
}
