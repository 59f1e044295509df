// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// FileEventsQueue is the durable queue file events are published to.
const FileEventsQueue = "file.events"

// File event actions published on the file.events queue.
const (
	FileUploaded = "uploaded"
	FileUpdated  = "updated"
	FileDeleted  = "deleted"
)

// FileEvent is published whenever a file's blob and record change. It
// carries enough for downstream consumers to log or audit the change
// without querying the primary database.
type FileEvent struct {
	Action     string `json:"action"`
	FileID     int64  `json:"file_id"`
	Name       string `json:"name"`
	Mimetype   string `json:"mimetype"`
	Size       int64  `json:"size"`
	OccurredAt string `json:"occurred_at"`
}
