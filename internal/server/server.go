package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"imagehost/internal/logging"
	"imagehost/internal/models"
	"imagehost/internal/storage"
	"imagehost/internal/upload"
)

// ImageStore is the slice of the metadata store the handlers need.
type ImageStore interface {
	Ready(ctx context.Context) error
	InsertImage(ctx context.Context, filename, originalName string, size int64, fileType string) error
	ListImages(ctx context.Context, page, perPage int) ([]models.Image, error)
	CountImages(ctx context.Context) (int64, error)
	GetImage(ctx context.Context, f storage.ImageFilter) (*models.Image, error)
	DeleteImage(ctx context.Context, id int64) (int64, error)
}

var _ ImageStore = (*storage.Storage)(nil)

type Server struct {
	cfg       *models.Config
	router    *gin.Engine
	store     ImageStore
	producer  *kafka.Writer
	validator upload.Validator
	log       zerolog.Logger
}

func NewServer(cfg *models.Config, store ImageStore, producer *kafka.Writer, log zerolog.Logger) *Server {
	r := gin.New()
	r.Use(logging.RequestLogger(log))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error().Any("panic", recovered).Str("path", c.Request.URL.Path).Msg("handler panicked")
		c.JSON(http.StatusInternalServerError, errorBody("internal server error"))
		c.Abort()
	}))
	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,

		// preflight answers 200, not the gin-contrib default of 204
		OptionsResponseStatusCode: http.StatusOK,
	}))

	if pages, err := filepath.Glob(filepath.Join(cfg.WebDir, "templates", "*.html")); err == nil && len(pages) > 0 {
		r.LoadHTMLGlob(filepath.Join(cfg.WebDir, "templates", "*.html"))
	} else {
		log.Warn().Str("dir", cfg.WebDir).Msg("no HTML templates found, listing page disabled")
	}

	s := &Server{
		cfg:      cfg,
		router:   r,
		store:    store,
		producer: producer,
		validator: upload.Validator{
			AllowedExts: cfg.AllowedExtensions,
			MaxSize:     cfg.MaxFileSize,
		},
		log: log,
	}

	r.GET("/", s.handleIndex)
	r.GET("/index.html", s.handleIndex)
	r.GET("/static/*filepath", s.handleStatic)
	r.GET("/images/*name", s.handleImage)
	r.GET("/images-list", s.handleImagesPage)
	r.GET("/images-list-data", s.handleImagesData)
	r.POST("/upload", s.handleUpload)
	r.DELETE("/delete/:id", s.handleDelete)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody("not found"))
	})

	return s
}

func (s *Server) Start() error {
	return s.router.Run(s.cfg.ServerAddr)
}

func (s *Server) handleIndex(c *gin.Context) {
	c.File(filepath.Join(s.cfg.WebDir, "index.html"))
}

// handleStatic serves frontend assets. The resolved path must stay
// under the static root or the request is refused outright.
func (s *Server) handleStatic(c *gin.Context) {
	full, ok := containedPath(s.cfg.StaticDir, c.Param("filepath"))
	if !ok {
		s.log.Warn().Str("path", c.Param("filepath")).Msg("static path escapes root")
		c.JSON(http.StatusForbidden, errorBody("forbidden"))
		return
	}
	s.serveFile(c, full)
}

// handleImage serves uploaded files by basename only; any directory
// components in the request path are discarded.
func (s *Server) handleImage(c *gin.Context) {
	name := filepath.Base(strings.TrimPrefix(c.Param("name"), "/"))
	if name == "." || name == string(filepath.Separator) {
		c.JSON(http.StatusNotFound, errorBody("not found"))
		return
	}

	full, ok := containedPath(s.cfg.UploadDir, name)
	if !ok {
		s.log.Warn().Str("name", name).Msg("image path escapes upload dir")
		c.JSON(http.StatusForbidden, errorBody("forbidden"))
		return
	}
	s.serveFile(c, full)
}

func (s *Server) serveFile(c *gin.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, errorBody("not found"))
		return
	}
	c.File(path)
}

// containedPath joins name onto root and verifies the cleaned result is
// still inside root.
func containedPath(root, name string) (string, bool) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	full, err := filepath.Abs(filepath.Join(absRoot, name))
	if err != nil {
		return "", false
	}
	if full != absRoot && !strings.HasPrefix(full, absRoot+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

type event struct {
	Action   string `json:"action"`
	Filename string `json:"filename"`
}

// notify publishes an image event when a broker is configured. Delivery
// is best-effort and never affects the HTTP response.
func (s *Server) notify(ctx context.Context, action, filename string) {
	if s.producer == nil {
		return
	}
	payload, err := json.Marshal(event{Action: action, Filename: filename})
	if err != nil {
		return
	}
	if err := s.producer.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
		s.log.Error().Err(err).Str("action", action).Str("filename", filename).
			Msg("failed to publish image event")
	}
}

func errorBody(message string) gin.H {
	return gin.H{"status": "error", "message": message}
}
