package httpapi

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v5"

	"hotpot/decode"
	"hotpot/herr"
	"hotpot/ingest"
)

// handleUpload serves POST /upload, spec.md §6's multipart upload
// intake. Routes (httpapi.go) only registers this handler when
// UploadEnabled is set; the "uploads disabled" 404 therefore lives one
// level up, at route registration.
func (s *Server) handleUpload(c echo.Context) error {
	if err := s.checkUploadAuth(c); err != nil {
		return writeError(c, err)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, herr.Parse("file", "missing multipart field \"file\"", err))
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, herr.IO("file", "failed to open upload", err))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return writeError(c, herr.IO("file", "failed to read upload", err))
	}

	dec, ok := decode.ForExt(filepath.Ext(fh.Filename))
	if !ok {
		dec, ok = decode.ForMagic(data)
	}
	if !ok {
		return c.JSON(http.StatusUnsupportedMediaType, map[string]string{
			"error": "unrecognized file extension or contents",
		})
	}

	raw, err := dec.Decode(bytes.NewReader(data))
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	id, err := ingest.FromRaw(ctx, s.Store, raw, "upload", nil, s.TrimDist)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{"id": id})
}

func (s *Server) checkUploadAuth(c echo.Context) error {
	if s.UploadToken == "" {
		return nil
	}
	auth := c.Request().Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || strings.TrimPrefix(auth, prefix) != s.UploadToken {
		return herr.Auth("missing or invalid upload token")
	}
	return nil
}
