// internal/models/image.go
package models

import "time"

// Image is one metadata row of the images table. Filename is the
// server-generated name on disk; OriginalName is whatever the client
// declared and is never used to address files.
type Image struct {
	ID           int64     `json:"id" db:"id"`
	Filename     string    `json:"filename" db:"filename"`
	OriginalName string    `json:"original_name" db:"original_name"`
	Size         int64     `json:"size" db:"size"`
	FileType     string    `json:"file_type" db:"file_type"`
	UploadTime   time.Time `json:"upload_time" db:"upload_time"`
}
