package decode

import (
	"io"

	"github.com/tkrajina/gpxgo/gpx"

	"hotpot/herr"
)

// GPXDecoder parses GPX tracks via tkrajina/gpxgo, the teacher's direct
// dependency (previously reached only through the PostGIS trail-sync
// services this port drops).
type GPXDecoder struct{}

func (GPXDecoder) Decode(r io.Reader) (RawActivity, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return RawActivity{}, herr.IO("gpx", "failed to read upload", err)
	}

	g, err := gpx.ParseBytes(data)
	if err != nil {
		return RawActivity{}, herr.Decode("gpx", "failed to parse GPX XML", err)
	}

	var samples []Sample
	var title string
	for _, track := range g.Tracks {
		if title == "" {
			title = track.Name
		}
		for _, seg := range track.Segments {
			for _, p := range seg.Points {
				s := Sample{Lat: p.Latitude, Lon: p.Longitude}
				if p.Elevation.NotNull() {
					ele := p.Elevation.Value()
					s.Elevation = &ele
				}
				if !p.Timestamp.IsZero() {
					ts := p.Timestamp
					s.Time = &ts
				}
				samples = append(samples, s)
			}
		}
	}
	if len(samples) == 0 {
		return RawActivity{}, herr.Decode("gpx", "no track points found", nil)
	}

	props := map[string]any{}
	if title != "" {
		props["title"] = title
	}
	return RawActivity{Samples: samples, Properties: props}, nil
}
