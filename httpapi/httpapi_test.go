package httpapi

import (
	"bytes"
	"context"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/muktihari/fit/encoder"
	"github.com/muktihari/fit/profile/filedef"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"

	"hotpot/mask"
	"hotpot/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "hotpot.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	masks, err := mask.NewRegistry(st)
	if err != nil {
		t.Fatal(err)
	}

	return &Server{Store: st, Masks: masks, TrimDist: 0}, st
}

func newTestEcho(s *Server) *echo.Echo {
	e := echo.New()
	s.Routes(e)
	return e
}

func TestHandleTileReturnsTransparentPNGOnEmptyData(t *testing.T) {
	s, _ := newTestServer(t)
	e := newTestEcho(s)

	req := httptest.NewRequest(http.MethodGet, "/tile/16/32768/32768", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("expected a valid PNG, got: %v", err)
	}
	_, _, _, a := img.At(0, 0).RGBA()
	if a != 0 {
		t.Fatalf("expected fully transparent pixel on empty data, got alpha=%d", a)
	}
}

func TestHandleTileRejectsOutOfRangeCoordinates(t *testing.T) {
	s, _ := newTestServer(t)
	e := newTestEcho(s)

	req := httptest.NewRequest(http.MethodGet, "/tile/16/999999/999999", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range tile coords, got %d", rec.Code)
	}
}

func TestHandleTileRejectsBadGradient(t *testing.T) {
	s, _ := newTestServer(t)
	e := newTestEcho(s)

	req := httptest.NewRequest(http.MethodGet, "/tile/16/0/0?gradient=not-a-gradient", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed gradient, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleRenderBBoxEnforcesAspectRatio(t *testing.T) {
	s, _ := newTestServer(t)
	e := newTestEcho(s)

	// bbox is a 1x1 square in degrees; request a very non-square image.
	req := httptest.NewRequest(http.MethodGet, "/render?bounds=0,0,1,1&width=100&height=10", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for mismatched aspect ratio, got %d", rec.Code)
	}
}

func TestHandleRenderBBoxSucceeds(t *testing.T) {
	s, _ := newTestServer(t)
	e := newTestEcho(s)

	req := httptest.NewRequest(http.MethodGet, "/render?bounds=0,0,1,1&width=100&height=100", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 100 {
		t.Fatalf("expected 100x100, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestUploadDisabledRouteIs404(t *testing.T) {
	s, _ := newTestServer(t)
	s.UploadEnabled = false
	e := newTestEcho(s)

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when uploads are disabled, got %d", rec.Code)
	}
}

func TestUploadRequiresBearerTokenWhenConfigured(t *testing.T) {
	s, _ := newTestServer(t)
	s.UploadEnabled = true
	s.UploadToken = "abc"
	e := newTestEcho(s)

	body, contentType := multipartGPX(t)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer xyz")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong bearer token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUploadAcceptsValidTokenAndFile(t *testing.T) {
	s, st := newTestServer(t)
	s.UploadEnabled = true
	s.UploadToken = "abc"
	e := newTestEcho(s)

	before, err := st.CountActivities(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	body, contentType := multipartGPX(t)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	after, err := st.CountActivities(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if after != before+1 {
		t.Fatalf("expected activity count to increase by 1, got %d -> %d", before, after)
	}
}

func TestUploadAcceptsValidFITBody(t *testing.T) {
	s, st := newTestServer(t)
	s.UploadEnabled = true
	s.UploadToken = "abc"
	e := newTestEcho(s)

	before, err := st.CountActivities(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	body, contentType := multipartFIT(t)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	after, err := st.CountActivities(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if after != before+1 {
		t.Fatalf("expected activity count to increase by 1, got %d -> %d", before, after)
	}
}

func TestWebhookVerifyEchoesChallenge(t *testing.T) {
	s, _ := newTestServer(t)
	s.WebhookSecret = "shh"
	e := newTestEcho(s)

	req := httptest.NewRequest(http.MethodGet, "/strava/webhook?hub.verify_token=shh&hub.challenge=xyz123", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("xyz123")) {
		t.Fatalf("expected challenge to be echoed back, got %s", rec.Body.String())
	}
}

func TestWebhookVerifyRejectsWrongToken(t *testing.T) {
	s, _ := newTestServer(t)
	s.WebhookSecret = "shh"
	e := newTestEcho(s)

	req := httptest.NewRequest(http.MethodGet, "/strava/webhook?hub.verify_token=wrong&hub.challenge=xyz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
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

// multipartFIT encodes a minimal FIT activity (FileId + a few Records
// with position/timestamp + a Session + an Activity message) with
// muktihari/fit's own encoder, the same library decode.FITDecoder
// reads with, so the fixture can't drift from what the decoder expects.
func multipartFIT(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()

	start := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

	act := filedef.NewActivity()
	act.FileId = *mesgdef.NewFileId(nil).
		SetType(typedef.FileActivity).
		SetTimeCreated(start).
		SetManufacturer(typedef.ManufacturerDevelopment).
		SetProduct(uint16(1)).
		SetProductName("hotpot-test")

	points := [][2]float64{{52.5200, 13.4050}, {52.5300, 13.4050}, {52.5400, 13.4050}}
	for i, p := range points {
		ts := start.Add(time.Duration(i) * time.Minute)
		rec := mesgdef.NewRecord(nil).
			SetTimestamp(ts).
			SetPositionLat(int32(p[0] * 11930465)).
			SetPositionLong(int32(p[1] * 11930465))
		act.Records = append(act.Records, rec)
	}

	end := start.Add(time.Duration(len(points)-1) * time.Minute)
	act.Sessions = append(act.Sessions, mesgdef.NewSession(nil).
		SetTimestamp(end).
		SetStartTime(start).
		SetTotalElapsedTime(uint32(end.Sub(start).Seconds()*1000)).
		SetSport(typedef.SportCycling).
		SetSubSport(typedef.SubSportGeneric))

	act.Activity = mesgdef.NewActivity(nil).
		SetTimestamp(end).
		SetType(typedef.ActivityManual).
		SetNumSessions(1)

	fit := act.ToFIT(nil)

	var fitBuf bytes.Buffer
	enc := encoder.New(&fitBuf)
	if err := enc.Encode(&fit); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "ride.fit")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(fitBuf.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func multipartGPX(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "ride.gpx")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(gpxFixture)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}
