// Package ingest is the common "decode+store" entry point spec.md §2
// component 9 describes, shared by the bulk `import` CLI command and
// the `/upload` HTTP handler. It wires decode -> simplify -> codec ->
// store.PutActivity, overlays computed properties, and (for directory
// imports) fans files out across a worker pool.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/alitto/pond"

	"hotpot/codec"
	"hotpot/decode"
	"hotpot/geo"
	"hotpot/herr"
	"hotpot/simplify"
	"hotpot/store"
)

// Store is the subset of *store.Store the ingest pipeline writes
// through.
type Store interface {
	PutActivity(ctx context.Context, a store.Activity, tiles []store.TileWrite) (int64, error)
	UpdateProperties(ctx context.Context, id int64, merge map[string]any) error
}

// FileError pairs a failed input path with its decode/store error, so
// a batch import can report every failure without aborting the scan.
type FileError struct {
	Path string
	Err  error
}

// Summary is the outcome of one ingest run.
type Summary struct {
	Imported int
	Skipped  int
	Errors   []FileError
}

// One decodes and stores a single file, applying trimDist and source.
// It is the unit Dir builds on for each file.
func One(ctx context.Context, st Store, path string, source string, trimDist float64) (int64, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	dec, ok := decode.ForExt(ext)
	if !ok {
		return 0, herr.Decode(path, "unsupported file extension", nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, herr.IO(path, "failed to open file", err)
	}
	defer f.Close()

	raw, err := dec.Decode(f)
	if err != nil {
		return 0, err
	}

	return FromRaw(ctx, st, raw, source, nil, trimDist)
}

// FromRaw runs simplify + codec + PutActivity against an already
// decoded activity, regardless of where it came from (a file decoder
// or package strava's activity fetch). stravaID, if non-nil, makes the
// resulting activity row match spec.md's strava_id uniqueness and
// idempotent-ingest invariants.
func FromRaw(ctx context.Context, st Store, raw decode.RawActivity, source string, stravaID *int64, trimDist float64) (int64, error) {
	samples := make([]simplify.Sample, len(raw.Samples))
	decSamples := make([]decode.Sample, len(raw.Samples))
	for i, s := range raw.Samples {
		samples[i] = simplify.Sample{Lat: s.Lat, Lon: s.Lon}
		decSamples[i] = s
	}

	visits := simplify.Track(samples, trimDist)
	if len(visits) == 0 {
		return 0, herr.Decode(source, "activity too short after trimming", nil)
	}

	tiles := make([]store.TileWrite, 0, len(visits))
	for key, pixels := range visits {
		counts := make(map[int]int, len(pixels))
		for idx := range pixels {
			counts[idx] = 1
		}
		encoded, err := codec.Encode(counts)
		if err != nil {
			return 0, herr.Store("codec", "failed to encode tile", err)
		}
		tiles = append(tiles, store.TileWrite{Z: geo.SourceZoom, X: key.X, Y: key.Y, EncodedPixels: encoded})
	}

	props := map[string]any{}
	for k, v := range raw.Properties {
		props[k] = v
	}
	for k, v := range ComputeProperties(decSamples) {
		props[k] = v
	}

	return st.PutActivity(ctx, store.Activity{Source: source, StravaID: stravaID, Properties: props}, tiles)
}

// Dir scans a directory non-recursively for files with a registered
// decoder extension, ingesting each through a worker pool sized to
// runtime.GOMAXPROCS(0) (overridable). Per-file failures are recorded
// and never abort the scan, per spec.md §4.8 "Failure semantics".
func Dir(ctx context.Context, st Store, dir string, trimDist float64, joinCSV string, workers int) (Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Summary{}, herr.IO(dir, "failed to read directory", err)
	}

	var joined map[string]map[string]any
	if joinCSV != "" {
		joined, err = LoadJoinCSV(joinCSV)
		if err != nil {
			return Summary{}, err
		}
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	pool := pond.New(workers, 0, pond.MinWorkers(workers), pond.Context(ctx))

	var mu sync.Mutex
	var sum Summary

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		if _, ok := decode.ForExt(ext); !ok {
			sum.Skipped++
			continue
		}
		path := filepath.Join(dir, name)
		base := strings.TrimSuffix(name, filepath.Ext(name))

		pool.Submit(func() {
			id, err := One(ctx, st, path, "file", trimDist)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				sum.Errors = append(sum.Errors, FileError{Path: path, Err: err})
				return
			}
			if joined != nil {
				if extra, ok := joined[base]; ok {
					if err := st.UpdateProperties(ctx, id, extra); err != nil {
						sum.Errors = append(sum.Errors, FileError{Path: path, Err: err})
						return
					}
				}
			}
			sum.Imported++
		})
	}

	pool.StopAndWait()
	return sum, nil
}
