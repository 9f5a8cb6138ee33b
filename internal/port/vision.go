package port

import "context"

// VisionImage is one encoded image handed to a vision model.
type VisionImage struct {
	Path        string
	Bytes       []byte
	ContentType string
}

// VisionRequest carries a single model call.
type VisionRequest struct {
	Model  string
	Image  VisionImage
	Prompt string
}

// VisionClient abstracts a hosted vision-language model endpoint.
// Implementations make one attempt per call and return the raw text reply.
type VisionClient interface {
	Complete(ctx context.Context, req VisionRequest) (string, error)
}
