// Package upload implements the multipart upload pipeline pieces: the
// form parser, the two-tier validator and disk-name generation.
package upload

import (
	"bytes"
	"regexp"
)

// FilePart is the single file field extracted from a multipart body.
type FilePart struct {
	Filename string
	Data     []byte
}

var filenamePattern = regexp.MustCompile(`filename="([^"]+)"`)

var (
	dispositionMarker = []byte("Content-Disposition: form-data;")
	filenameMarker    = []byte("filename=")
	headerSeparator   = []byte("\r\n\r\n")
)

// ParseMultipart splits body on the --boundary delimiter and returns the
// first part that carries a form-data disposition with a quoted filename
// attribute. Additional file parts are ignored on purpose: clients rely
// on the first-wins behavior. Malformed sibling parts are skipped rather
// than failing the whole body. The payload is everything past the header
// separator, with surrounding whitespace trimmed.
func ParseMultipart(body, boundary []byte) (*FilePart, bool) {
	delimiter := append([]byte("--"), boundary...)

	for _, part := range bytes.Split(body, delimiter) {
		if !bytes.Contains(part, dispositionMarker) || !bytes.Contains(part, filenameMarker) {
			continue
		}

		headersEnd := bytes.Index(part, headerSeparator)
		if headersEnd < 0 {
			continue
		}

		match := filenamePattern.FindSubmatch(part[:headersEnd])
		if match == nil {
			continue
		}

		data := bytes.TrimSpace(part[headersEnd+len(headerSeparator):])
		return &FilePart{Filename: string(match[1]), Data: data}, true
	}

	return nil, false
}
