package port

import (
	"context"
	"io"
)

// UploadInput is one screenshot to archive.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// UploadOutput is where an archived object ended up.
type UploadOutput struct {
	Location string
}

// ObjectStorage archives run screenshots.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
}
