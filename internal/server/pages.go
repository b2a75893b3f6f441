package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// handleImagesPage renders the paginated HTML listing.
func (s *Server) handleImagesPage(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.store.Ready(ctx); err != nil {
		s.log.Error().Err(err).Msg("metadata store unavailable")
		c.JSON(http.StatusServiceUnavailable, errorBody("database unavailable"))
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	count, err := s.store.CountImages(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count images")
		c.JSON(http.StatusInternalServerError, errorBody("failed to list images"))
		return
	}

	images, err := s.store.ListImages(ctx, page, s.cfg.PageSize)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list images")
		c.JSON(http.StatusInternalServerError, errorBody("failed to list images"))
		return
	}

	totalPages := (count + int64(s.cfg.PageSize) - 1) / int64(s.cfg.PageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	c.HTML(http.StatusOK, "images_list.html", gin.H{
		"Images":     images,
		"Page":       page,
		"TotalPages": totalPages,
		"HasPrev":    page > 1,
		"HasNext":    int64(page) < totalPages,
		"PrevPage":   page - 1,
		"NextPage":   page + 1,
	})
}

// handleImagesData returns every metadata row as a JSON array.
func (s *Server) handleImagesData(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.store.Ready(ctx); err != nil {
		s.log.Error().Err(err).Msg("metadata store unavailable")
		c.JSON(http.StatusServiceUnavailable, errorBody("database unavailable"))
		return
	}

	count, err := s.store.CountImages(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count images")
		c.JSON(http.StatusInternalServerError, errorBody("failed to list images"))
		return
	}
	if count == 0 {
		c.JSON(http.StatusOK, []any{})
		return
	}

	images, err := s.store.ListImages(ctx, 1, int(count))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list images")
		c.JSON(http.StatusInternalServerError, errorBody("failed to list images"))
		return
	}

	c.JSON(http.StatusOK, images)
}
