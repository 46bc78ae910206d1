package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/cryptovault/internal/common"
)

// sanitizeFilename strips any path component from a client-supplied name so
// files can never escape their store prefixes.
func sanitizeFilename(name string) (string, error) {
	base := path.Base(name)
	if base == "" || base == "." || base == ".." || base == "/" {
		return "", fmt.Errorf("invalid filename %q", name)
	}
	return base, nil
}

// httpError maps the service error taxonomy to HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	case errors.Is(err, common.ErrDuplicateFile):
		return echo.NewHTTPError(http.StatusConflict, "a file with this name already exists")
	case errors.Is(err, common.ErrIntegrity), errors.Is(err, common.ErrMalformedEnvelope), errors.Is(err, common.ErrUnwrap):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "stored file failed integrity checks")
	case errors.Is(err, common.ErrStoreUnavailable), errors.Is(err, common.ErrKeyServiceUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "backing service unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// upload accepts a multipart form with a single "file" part.
func (s *Server) upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field 'file' is required")
	}

	filename, err := sanitizeFilename(fileHeader.Filename)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}

	result, err := s.vault.Upload(c.Request().Context(), filename, content)
	if err != nil {
		s.logger.Error(c.Request().Context(), "upload failed", "filename", filename, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, result)
}

func (s *Server) list(c echo.Context) error {
	records, err := s.vault.List(c.Request().Context())
	if err != nil {
		s.logger.Error(c.Request().Context(), "list failed", "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) download(c echo.Context) error {
	filename, err := sanitizeFilename(c.Param("filename"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := s.vault.Download(c.Request().Context(), filename)
	if err != nil {
		s.logger.Error(c.Request().Context(), "download failed", "filename", filename, "error", err)
		return httpError(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, result.ContentType, result.Content)
}

func (s *Server) presign(c echo.Context) error {
	filename, err := sanitizeFilename(c.Param("filename"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	url, err := s.vault.PresignDownload(c.Request().Context(), filename)
	if err != nil {
		s.logger.Error(c.Request().Context(), "presign failed", "filename", filename, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"filename":   filename,
		"url":        url,
		"expires_in": int(s.config.PresignValidity.Seconds()),
	})
}

func (s *Server) verify(c echo.Context) error {
	filename, err := sanitizeFilename(c.Param("filename"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := s.vault.Verify(c.Request().Context(), filename)
	if err != nil {
		s.logger.Error(c.Request().Context(), "verify failed", "filename", filename, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) remove(c echo.Context) error {
	filename, err := sanitizeFilename(c.Param("filename"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	report, err := s.vault.Delete(c.Request().Context(), filename)
	if err != nil {
		s.logger.Error(c.Request().Context(), "delete failed", "filename", filename, "error", err)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, report)
}

func (s *Server) reconcile(c echo.Context) error {
	removed, err := s.vault.Reconcile(c.Request().Context())
	if err != nil {
		s.logger.Error(c.Request().Context(), "reconcile failed", "error", err)
		return httpError(err)
	}

	if removed == nil {
		removed = []string{}
	}
	return c.JSON(http.StatusOK, map[string]any{"removed": removed})
}
