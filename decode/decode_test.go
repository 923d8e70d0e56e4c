package decode

import (
	"strings"
	"testing"

	"hotpot/herr"
)

const sampleGPX = `<?xml version="1.0"?>
<gpx>
  <trk>
    <name>Morning Ride</name>
    <trkseg>
      <trkpt lat="52.5200" lon="13.4050"><ele>34.0</ele></trkpt>
      <trkpt lat="52.5210" lon="13.4060"><ele>35.5</ele></trkpt>
    </trkseg>
  </trk>
</gpx>`

func TestGPXDecoderParsesSamples(t *testing.T) {
	ra, err := GPXDecoder{}.Decode(strings.NewReader(sampleGPX))
	if err != nil {
		t.Fatal(err)
	}
	if len(ra.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(ra.Samples))
	}
	if ra.Samples[0].Lat != 52.5200 || ra.Samples[0].Lon != 13.4050 {
		t.Fatalf("unexpected first sample: %+v", ra.Samples[0])
	}
	if ra.Properties["title"] != "Morning Ride" {
		t.Fatalf("expected title property, got %+v", ra.Properties)
	}
}

func TestGPXDecoderRejectsEmptyTrack(t *testing.T) {
	_, err := GPXDecoder{}.Decode(strings.NewReader(`<?xml version="1.0"?><gpx><trk><name>x</name></trk></gpx>`))
	if err == nil {
		t.Fatal("expected error for a track with no points")
	}
	if herr.KindOf(err) != herr.KindDecode {
		t.Fatalf("expected KindDecode, got %v", herr.KindOf(err))
	}
}

const sampleTCX = `<?xml version="1.0"?>
<TrainingCenterDatabase>
  <Activities>
    <Activity Sport="Running">
      <Id>2024-01-01T08:00:00Z</Id>
      <Lap>
        <Track>
          <Trackpoint>
            <Time>2024-01-01T08:00:00Z</Time>
            <Position><LatitudeDegrees>52.52</LatitudeDegrees><LongitudeDegrees>13.40</LongitudeDegrees></Position>
            <AltitudeMeters>34.0</AltitudeMeters>
          </Trackpoint>
        </Track>
      </Lap>
    </Activity>
  </Activities>
</TrainingCenterDatabase>`

func TestTCXDecoderParsesSamples(t *testing.T) {
	ra, err := TCXDecoder{}.Decode(strings.NewReader(sampleTCX))
	if err != nil {
		t.Fatal(err)
	}
	if len(ra.Samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(ra.Samples))
	}
	if ra.Properties["activity_type"] != "Running" {
		t.Fatalf("expected activity_type property, got %+v", ra.Properties)
	}
}

func TestFITDecoderReturnsDecodeError(t *testing.T) {
	_, err := FITDecoder{}.Decode(strings.NewReader(""))
	if err == nil {
		t.Fatal("expected FIT decode to fail")
	}
	if herr.KindOf(err) != herr.KindDecode {
		t.Fatalf("expected KindDecode, got %v", herr.KindOf(err))
	}
}

func TestForExtDispatch(t *testing.T) {
	if _, ok := ForExt(".gpx"); !ok {
		t.Fatal("expected .gpx to resolve")
	}
	if _, ok := ForExt("TCX"); !ok {
		t.Fatal("expected case-insensitive TCX to resolve")
	}
	if _, ok := ForExt(".kml"); ok {
		t.Fatal("expected unknown extension to not resolve")
	}
}

func TestForMagicDispatch(t *testing.T) {
	if d, ok := ForMagic([]byte("\x0e\x10\x00\x00")); !ok {
		t.Fatal("expected FIT magic bytes to resolve")
	} else if _, isFIT := d.(FITDecoder); !isFIT {
		t.Fatal("expected FIT decoder")
	}
	if d, ok := ForMagic([]byte("<?xml version=\"1.0\"?><gpx/>")); !ok {
		t.Fatal("expected XML magic to resolve")
	} else if _, isGPX := d.(GPXDecoder); !isGPX {
		t.Fatal("expected GPX decoder")
	}
}
