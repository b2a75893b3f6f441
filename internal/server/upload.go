package server

import (
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"imagehost/internal/upload"
)

// handleUpload runs the upload pipeline: content-type and length
// pre-checks, multipart parse, validation, disk write, metadata insert.
// A failed insert rolls the written file back so no orphan bytes stay
// behind.
func (s *Server) handleUpload(c *gin.Context) {
	const op = "server.handleUpload"

	ctx := c.Request.Context()
	if err := s.store.Ready(ctx); err != nil {
		s.log.Error().Err(err).Msg("metadata store unavailable")
		c.JSON(http.StatusServiceUnavailable, errorBody("database unavailable"))
		return
	}

	contentType := c.GetHeader("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		c.JSON(http.StatusBadRequest, errorBody("multipart/form-data expected"))
		return
	}

	_, params, err := mime.ParseMediaType(contentType)
	boundary := params["boundary"]
	if err != nil || boundary == "" {
		c.JSON(http.StatusBadRequest, errorBody("boundary not found in Content-Type"))
		return
	}

	length := c.Request.ContentLength
	if length < 0 {
		c.JSON(http.StatusLengthRequired, errorBody("Content-Length required"))
		return
	}
	// cheap pre-check on the declared length before buffering the body
	if length > 2*s.cfg.MaxFileSize {
		s.log.Warn().Int64("length", length).Msg("request body too large")
		c.JSON(http.StatusRequestEntityTooLarge, errorBody("request too large"))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.log.Error().Err(err).Str("op", op).Msg("failed to read request body")
		c.JSON(http.StatusInternalServerError, errorBody("failed to read request"))
		return
	}

	part, ok := upload.ParseMultipart(body, []byte(boundary))
	if !ok {
		c.JSON(http.StatusBadRequest, errorBody("no file found in request"))
		return
	}

	fileType, err := s.validator.Validate(part.Data, part.Filename)
	if err != nil {
		s.log.Warn().Err(err).Str("original_name", part.Filename).Msg("upload rejected")
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	filename := upload.GenerateFilename(part.Filename)
	target := filepath.Join(s.cfg.UploadDir, filename)

	if err := os.MkdirAll(s.cfg.UploadDir, 0755); err != nil {
		s.log.Error().Err(err).Str("op", op).Msg("failed to create upload dir")
		c.JSON(http.StatusInternalServerError, errorBody("failed to store file"))
		return
	}
	if err := os.WriteFile(target, part.Data, 0644); err != nil {
		s.log.Error().Err(err).Str("op", op).Str("target", target).Msg("failed to write file")
		c.JSON(http.StatusInternalServerError, errorBody("failed to store file"))
		return
	}

	if err := s.store.InsertImage(ctx, filename, part.Filename, int64(len(part.Data)), fileType); err != nil {
		// compensating action: the file must not outlive a failed insert
		if rmErr := os.Remove(target); rmErr != nil {
			s.log.Error().Err(rmErr).Str("target", target).Msg("failed to remove orphan file")
		}
		s.log.Error().Err(err).Str("op", op).Msg("failed to insert metadata")
		c.JSON(http.StatusInternalServerError, errorBody("failed to store metadata"))
		return
	}

	s.notify(ctx, "uploaded", filename)
	s.log.Info().Str("original_name", part.Filename).Str("filename", filename).
		Int("size", len(part.Data)).Str("file_type", fileType).Msg("image uploaded")

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"message":       "file uploaded",
		"filename":      filename,
		"url":           "/images/" + filename,
		"original_name": part.Filename,
	})
}
