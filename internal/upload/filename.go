package upload

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// GenerateFilename produces the on-disk name for an upload: a random
// 128-bit identifier in hex plus the original extension, lower-cased.
// Collisions are treated as negligible; the name never derives from
// client input.
func GenerateFilename(originalName string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return id + strings.ToLower(filepath.Ext(originalName))
}
