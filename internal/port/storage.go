package port

import "context"

// UploadInput carries the data needed for an object upload.
type UploadInput struct {
	Key         string
	Body        []byte
	ContentType string
}

// ObjectStorage abstracts blob storage used for URL-based backend input.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) error
	PresignedGetURL(ctx context.Context, key string) (string, error)
}
