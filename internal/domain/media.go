package domain

import "time"

// UploadedMedia describes a media object persisted to the public bucket.
type UploadedMedia struct {
	Kind        string
	ObjectPath  string
	URL         string
	ContentType string
	SizeBytes   int64
	UploadedAt  time.Time
}
