// Package decode defines the narrow collaborator interface spec.md §6
// requires of file-format decoders, plus the extension/magic-byte
// registry package ingest and httpapi dispatch uploads through.
package decode

import (
	"io"
	"strings"
	"time"
)

// Sample is one decoded trackpoint.
type Sample struct {
	Lat, Lon  float64
	Time      *time.Time
	Elevation *float64
}

// RawActivity is everything a decoder extracts from a file, before
// package ingest computes and overlays the derived properties from
// spec.md §6.
type RawActivity struct {
	Samples    []Sample
	Properties map[string]any
}

// Decoder turns raw file bytes into a RawActivity.
type Decoder interface {
	Decode(r io.Reader) (RawActivity, error)
}

// registry maps lowercase file extensions (without the dot) to decoders.
var registry = map[string]Decoder{
	"gpx": GPXDecoder{},
	"tcx": TCXDecoder{},
	"fit": FITDecoder{},
}

// ForExt returns the decoder registered for a file extension such as
// ".gpx" or "gpx" (case-insensitive, leading dot optional).
func ForExt(ext string) (Decoder, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	d, ok := registry[ext]
	return d, ok
}

// magic byte prefixes used to sniff an upload whose extension is
// missing or untrustworthy.
var (
	gpxMagic = []byte("<?xml")
	tcxMagic = []byte("<?xml")
	fitMagic = []byte("\x0e\x10")
)

// ForMagic sniffs a decoder from the first bytes of an upload. XML
// formats (GPX, TCX) share a magic prefix, so XML content always
// resolves to the GPX decoder, the more common of the two; only FIT's
// binary header is told apart.
func ForMagic(data []byte) (Decoder, bool) {
	if len(data) >= len(fitMagic) && string(data[:len(fitMagic)]) == string(fitMagic) {
		return registry["fit"], true
	}
	if len(data) >= len(gpxMagic) && string(data[:len(gpxMagic)]) == string(gpxMagic) {
		return registry["gpx"], true
	}
	return nil, false
}
