package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v5"

	"hotpot/herr"
	"hotpot/strava"
)

// handleWebhookVerify serves GET /strava/webhook, Strava's subscription
// verification handshake: echo back hub.challenge iff hub.verify_token
// matches STRAVA_WEBHOOK_SECRET.
func (s *Server) handleWebhookVerify(c echo.Context) error {
	if c.QueryParam("hub.verify_token") != s.WebhookSecret {
		return writeError(c, herr.Auth("webhook verify token mismatch"))
	}
	return c.JSON(http.StatusOK, map[string]string{"hub.challenge": c.QueryParam("hub.challenge")})
}

// handleWebhookEvent serves POST /strava/webhook, dispatching create/
// update/delete events per spec.md §6.
func (s *Server) handleWebhookEvent(c echo.Context) error {
	var ev strava.WebhookEvent
	if err := json.NewDecoder(c.Request().Body).Decode(&ev); err != nil {
		return writeError(c, herr.Parse("body", "malformed webhook payload", err))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := strava.Dispatch(ctx, s.Strava, s.Store, s.TrimDist, ev); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// handleStravaAuth serves GET /strava/auth, redirecting to Strava's
// authorization page to start the OAuth flow.
func (s *Server) handleStravaAuth(c echo.Context) error {
	return c.Redirect(http.StatusFound, s.Strava.AuthCodeURL("hotpot"))
}

// handleStravaCallback serves GET /strava/callback, completing the
// authorization-code exchange.
func (s *Server) handleStravaCallback(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return writeError(c, herr.Parse("code", "missing authorization code", nil))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.Strava.Exchange(ctx, code); err != nil {
		return writeError(c, err)
	}
	return c.String(http.StatusOK, "Strava authorization complete.")
}
