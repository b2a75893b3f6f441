package upload

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Dimension ceiling for decoded images, both axes.
const (
	MaxImageWidth  = 10000
	MaxImageHeight = 10000
)

// Formats the structural tier accepts, regardless of the claimed
// extension. Extension checks are trivially spoofable; the decoded
// format is what counts.
var allowedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"gif":  true,
}

// ValidationError carries a client-facing message; handlers map it to a
// 400 response.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func invalid(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

type Validator struct {
	AllowedExts []string
	MaxSize     int64
}

// Validate applies the syntactic tier (extension allow-list, size
// ceiling) and then the structural tier (decodable, format allow-list,
// dimension ceiling). It returns the decoded format token to be stored
// as the record's file type.
func (v Validator) Validate(data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !v.extAllowed(ext) {
		return "", invalid("unsupported file format, allowed: %s", strings.Join(v.AllowedExts, ", "))
	}

	if int64(len(data)) > v.MaxSize {
		return "", invalid("file exceeds the maximum size of %dMB", v.MaxSize/(1024*1024))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", invalid("file is not a valid image")
	}
	if !allowedFormats[format] {
		return "", invalid("unsupported image format: %s", format)
	}
	if cfg.Width > MaxImageWidth || cfg.Height > MaxImageHeight {
		return "", invalid("image dimensions %dx%d exceed the %dx%d limit",
			cfg.Width, cfg.Height, MaxImageWidth, MaxImageHeight)
	}

	// DecodeConfig only reads the header; a full decode proves the rest
	// of the payload is an actual image of the claimed format.
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return "", invalid("file is not a valid image")
	}

	return format, nil
}

func (v Validator) extAllowed(ext string) bool {
	for _, allowed := range v.AllowedExts {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
