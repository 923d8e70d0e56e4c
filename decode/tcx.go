package decode

import (
	"encoding/xml"
	"io"
	"time"

	"hotpot/herr"
)

// TCX XML structures, hand-rolled in the same minimal-struct idiom as
// the teacher's entities/gpx.go (no TCX library appears anywhere in
// the example pack, so this mirrors the teacher's own approach to GPX
// rather than pulling in an unrelated dependency).
type tcxDatabase struct {
	XMLName  xml.Name   `xml:"TrainingCenterDatabase"`
	Activity []tcxActiv `xml:"Activities>Activity"`
}

type tcxActiv struct {
	Sport string   `xml:"Sport,attr"`
	ID    string   `xml:"Id"`
	Laps  []tcxLap `xml:"Lap"`
}

type tcxLap struct {
	Track []tcxTrack `xml:"Track"`
}

type tcxTrack struct {
	Points []tcxPoint `xml:"Trackpoint"`
}

type tcxPoint struct {
	Time      string       `xml:"Time"`
	Position  *tcxPosition `xml:"Position"`
	Elevation *float64     `xml:"AltitudeMeters"`
}

type tcxPosition struct {
	Lat float64 `xml:"LatitudeDegrees"`
	Lon float64 `xml:"LongitudeDegrees"`
}

// TCXDecoder parses Garmin Training Center XML tracks.
type TCXDecoder struct{}

func (TCXDecoder) Decode(r io.Reader) (RawActivity, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return RawActivity{}, herr.IO("tcx", "failed to read upload", err)
	}

	var db tcxDatabase
	if err := xml.Unmarshal(data, &db); err != nil {
		return RawActivity{}, herr.Decode("tcx", "failed to parse TCX XML", err)
	}
	if len(db.Activity) == 0 {
		return RawActivity{}, herr.Decode("tcx", "no activities found in TCX file", nil)
	}

	var samples []Sample
	props := map[string]any{}
	if sport := db.Activity[0].Sport; sport != "" {
		props["activity_type"] = sport
	}

	for _, act := range db.Activity {
		for _, lap := range act.Laps {
			for _, track := range lap.Track {
				for _, p := range track.Points {
					if p.Position == nil {
						continue
					}
					s := Sample{Lat: p.Position.Lat, Lon: p.Position.Lon, Elevation: p.Elevation}
					if t, err := time.Parse(time.RFC3339, p.Time); err == nil {
						s.Time = &t
					}
					samples = append(samples, s)
				}
			}
		}
	}
	if len(samples) == 0 {
		return RawActivity{}, herr.Decode("tcx", "no track points found", nil)
	}

	return RawActivity{Samples: samples, Properties: props}, nil
}
