package domain

import "errors"

var (
	ErrNotFound         = errors.New("resource not found")
	ErrNoScreenshots    = errors.New("no screenshots captured")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrNoModels         = errors.New("model chain is empty")
)
