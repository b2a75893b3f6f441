package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"imagehost/internal/storage"
)

// handleDelete removes an image by id: file first, record second. A
// missing file is logged and tolerated so a half-deleted pair can still
// be cleaned up.
func (s *Server) handleDelete(c *gin.Context) {
	const op = "server.handleDelete"

	ctx := c.Request.Context()
	if err := s.store.Ready(ctx); err != nil {
		s.log.Error().Err(err).Msg("metadata store unavailable")
		c.JSON(http.StatusServiceUnavailable, errorBody("database unavailable"))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid image id"))
		return
	}

	img, err := s.store.GetImage(ctx, storage.ImageFilter{ID: &id})
	if err != nil {
		s.log.Error().Err(err).Str("op", op).Msg("failed to look up image")
		c.JSON(http.StatusInternalServerError, errorBody("failed to delete image"))
		return
	}
	if img == nil {
		c.JSON(http.StatusNotFound, errorBody("image not found"))
		return
	}

	target := filepath.Join(s.cfg.UploadDir, img.Filename)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		s.log.Error().Err(err).Str("target", target).Msg("failed to remove file")
		c.JSON(http.StatusInternalServerError, errorBody("failed to delete file"))
		return
	}

	affected, err := s.store.DeleteImage(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("op", op).Msg("failed to delete metadata")
		c.JSON(http.StatusInternalServerError, errorBody("failed to delete image"))
		return
	}
	if affected == 0 {
		s.log.Warn().Int64("id", id).Msg("record vanished between lookup and delete")
	}

	s.notify(ctx, "deleted", img.Filename)
	s.log.Info().Int64("id", id).Str("filename", img.Filename).Msg("image deleted")

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "file deleted"})
}
