// Package httpapi wires the render/store/mask/strava/ingest packages to
// the HTTP surface spec.md §6 describes: the tile and bbox render
// endpoints, multipart upload intake, and the Strava OAuth/webhook
// flow. Grounded on the teacher's apiHandlers package (handler structs
// with a SetupRoutes(e) constructor, CORS middleware registered in
// main.go) but built on a plain github.com/labstack/echo/v5 router
// instead of pocketbase's core.App/RequestEvent wrapper.
package httpapi

import (
	"context"
	"time"

	"github.com/labstack/echo/v5"

	"hotpot/herr"
	"hotpot/ingest"
	"hotpot/mask"
	"hotpot/render"
	"hotpot/strava"
)

// Store is the persistence surface the HTTP layer needs across tile
// rendering, upload intake, and Strava webhook dispatch.
type Store interface {
	render.Store
	ingest.Store
	strava.ActivityStore
	CountActivities(ctx context.Context) (int64, error)
}

// Server bundles every dependency an hotpot HTTP handler reads from.
// Constructed once at process startup and passed explicitly, per
// spec.md §9 ("No global mutable state besides the store handle and
// configuration snapshots").
type Server struct {
	Store         Store
	Masks         *mask.Registry
	Strava        *strava.Manager
	UploadEnabled bool   // set by `serve --upload`; unset routes /upload as 404
	UploadToken   string // required Bearer token iff non-empty
	WebhookSecret string
	TrimDist      float64
}

// Routes registers every endpoint spec.md §6 names onto e.
func (s *Server) Routes(e *echo.Echo) {
	e.Use(corsMiddleware)

	e.GET("/tile/{z}/{x}/{y}", s.handleTile)
	e.GET("/render", s.handleRenderBBox)

	if s.UploadEnabled {
		e.POST("/upload", s.handleUpload)
	}

	e.GET("/strava/webhook", s.handleWebhookVerify)
	e.POST("/strava/webhook", s.handleWebhookEvent)
	e.GET("/strava/auth", s.handleStravaAuth)
	e.GET("/strava/callback", s.handleStravaCallback)
}

func corsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Access-Control-Allow-Origin", "*")
		c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request().Method == "OPTIONS" {
			return c.NoContent(204)
		}
		return next(c)
	}
}

// statusFor maps an herr.Kind to the HTTP status spec.md §7 assigns it.
func statusFor(err error) int {
	switch herr.KindOf(err) {
	case herr.KindParse:
		return 400
	case herr.KindAuth:
		return 401
	case herr.KindNotFound:
		return 404
	case herr.KindDecode:
		return 422
	default:
		return 500
	}
}

func writeError(c echo.Context, err error) error {
	return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
}

// requestContext derives a context bound to the request's lifetime, so
// a render can be aborted at a tile-boundary checkpoint if the client
// disconnects, per spec.md §5 "Cancellation".
func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 30*time.Second)
}
