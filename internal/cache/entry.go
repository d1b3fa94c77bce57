package cache

import "time"

// Entry represents one cached content hash
type Entry struct {
	// Path is the path the hash was computed for. Stored to guard
	// against key collisions.
	Path string `json:"path"`

	// Size is the file size at hashing time
	Size int64 `json:"size"`

	// ModTime is the file modification time at hashing time. An entry
	// is valid only while this still matches the file on disk.
	ModTime time.Time `json:"mod_time"`

	// Hash is the content hash of the decoded streams
	Hash string `json:"hash"`
}
