package model

import "time"

// File mirrors the `files` table. Name is the original filename and also
// the blob's filename under the upload root, so record and blob are looked
// up by the same key. Extension is the substring after the last dot.
type File struct {
	ID        int64     `json:"id"`        // files.id
	Name      string    `json:"name"`      // files.name
	Extension string    `json:"extension"` // files.extension
	Mimetype  string    `json:"mimetype"`  // files.mimetype
	Size      int64     `json:"size"`      // files.size
	CreatedAt time.Time `json:"createdAt"` // files.created_at
}
