package decode

import (
	"io"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/filedef"

	"hotpot/herr"
)

// FITDecoder parses Garmin FIT activity files via muktihari/fit, the
// only FIT-capable library seen in the reference pack (grounded on
// other_examples' cadent activity-export handler, which encodes FIT
// with the same module).
type FITDecoder struct{}

func (FITDecoder) Decode(r io.Reader) (RawActivity, error) {
	lis := filedef.NewListener()
	defer lis.Close()

	dec := decoder.New(r, decoder.WithMesgListener(lis))
	if _, err := dec.Decode(); err != nil {
		return RawActivity{}, herr.Decode("fit", "failed to parse FIT file", err)
	}

	activity, ok := lis.File().(*filedef.Activity)
	if !ok {
		return RawActivity{}, herr.Decode("fit", "FIT file has no activity messages", nil)
	}

	const sint32Invalid = 0x7FFFFFFF // FIT protocol's invalid-value sentinel for a sint32 field

	var samples []Sample
	for _, rec := range activity.Records {
		if rec.PositionLat == sint32Invalid || rec.PositionLong == sint32Invalid {
			continue
		}
		s := Sample{Lat: semicirclesToDegrees(rec.PositionLat), Lon: semicirclesToDegrees(rec.PositionLong)}
		if !rec.Timestamp.IsZero() {
			ts := rec.Timestamp
			s.Time = &ts
		}
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return RawActivity{}, herr.Decode("fit", "no position records found", nil)
	}

	return RawActivity{Samples: samples, Properties: map[string]any{}}, nil
}

// semicirclesToDegrees converts a FIT position field (stored as a
// signed 32-bit semicircle count, per Garmin's FIT SDK) to decimal
// degrees, inverting the *11930465 encoding other FIT writers in the
// wild use for the same field.
func semicirclesToDegrees(v int32) float64 {
	return float64(v) * (180.0 / 2147483648.0)
}
