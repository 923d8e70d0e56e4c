package strava

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hotpot/decode"
	"hotpot/herr"
)

const (
	activityURL = "https://www.strava.com/api/v3/activities/%d"
	streamsURL  = "https://www.strava.com/api/v3/activities/%d/streams?keys=latlng,altitude,time&key_by_type=true"
)

// activitySummary is the subset of Strava's activity representation
// hotpot cares about (the rest is superseded by computed properties
// per spec.md §6).
type activitySummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type rawStream struct {
	Data         json.RawMessage `json:"data"`
	OriginalSize int             `json:"original_size"`
}

type streamsResponse struct {
	LatLng   *rawStream `json:"latlng"`
	Altitude *rawStream `json:"altitude"`
	Time     *rawStream `json:"time"`
}

// FetchActivity retrieves an activity's summary and GPS/altitude/time
// streams and assembles them into a decode.RawActivity, the same shape
// a file decoder would produce, so it flows through package ingest
// unchanged.
func FetchActivity(accessToken string, activityID int64) (decode.RawActivity, error) {
	summary, err := fetchActivitySummary(accessToken, activityID)
	if err != nil {
		return decode.RawActivity{}, err
	}
	samples, err := fetchStreams(accessToken, activityID)
	if err != nil {
		return decode.RawActivity{}, err
	}
	if len(samples) == 0 {
		return decode.RawActivity{}, herr.Decode("strava", "activity has no GPS samples", nil)
	}

	props := map[string]any{}
	if summary.Name != "" {
		props["title"] = summary.Name
	}
	if summary.Type != "" {
		props["activity_type"] = summary.Type
	}
	return decode.RawActivity{Samples: samples, Properties: props}, nil
}

func fetchActivitySummary(accessToken string, activityID int64) (activitySummary, error) {
	body, err := performRequest(accessToken, fmt.Sprintf(activityURL, activityID))
	if err != nil {
		return activitySummary{}, err
	}
	defer body.Close()

	var s activitySummary
	if err := json.NewDecoder(body).Decode(&s); err != nil {
		return activitySummary{}, herr.Decode("strava", "failed to decode activity summary", err)
	}
	return s, nil
}

func fetchStreams(accessToken string, activityID int64) ([]decode.Sample, error) {
	body, err := performRequest(accessToken, fmt.Sprintf(streamsURL, activityID))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp streamsResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, herr.Decode("strava", "failed to decode activity streams", err)
	}
	if resp.LatLng == nil {
		return nil, nil
	}

	var latlng [][2]float64
	if err := json.Unmarshal(resp.LatLng.Data, &latlng); err != nil {
		return nil, herr.Decode("strava", "failed to decode latlng stream", err)
	}

	var altitudes []float64
	if resp.Altitude != nil {
		_ = json.Unmarshal(resp.Altitude.Data, &altitudes)
	}
	var times []float64
	if resp.Time != nil {
		_ = json.Unmarshal(resp.Time.Data, &times)
	}

	samples := make([]decode.Sample, len(latlng))
	for i, p := range latlng {
		s := decode.Sample{Lat: p[0], Lon: p[1]}
		if i < len(altitudes) {
			ele := altitudes[i]
			s.Elevation = &ele
		}
		if i < len(times) {
			t := time.Unix(int64(times[i]), 0).UTC()
			s.Time = &t
		}
		samples[i] = s
	}
	return samples, nil
}

func performRequest(accessToken, url string) (io.ReadCloser, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, herr.IO("strava", "failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, herr.IO("strava", "request to Strava API failed", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, herr.Auth("strava access token rejected")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, herr.Protocol(fmt.Sprintf("strava API returned status %d", resp.StatusCode))
	}
	return resp.Body, nil
}
