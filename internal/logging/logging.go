package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// New builds the process logger. Output goes both to the console and to
// <logDir>/app.log, creating the directory if needed.
func New(logDir string) (zerolog.Logger, error) {
	const op = "logging.New"

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return zerolog.Nop(), fmt.Errorf("%s: %v", op, err)
	}

	logFile, err := os.OpenFile(filepath.Join(logDir, "app.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("%s: %v", op, err)
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	writer := zerolog.MultiLevelWriter(console, logFile)

	return zerolog.New(writer).With().Timestamp().Logger(), nil
}

// RequestLogger logs one line per handled request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
