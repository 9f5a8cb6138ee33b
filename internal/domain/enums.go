package domain

// ResponseMode selects the grammar a vision model is prompted for and parsed with.
type ResponseMode string

const (
	ResponseModePipe ResponseMode = "pipe"
	ResponseModeJSON ResponseMode = "json"
)

// Valid reports whether m is a known response mode.
func (m ResponseMode) Valid() bool {
	return m == ResponseModePipe || m == ResponseModeJSON
}

// ExtractionQuality grades a page result from its mean product confidence.
type ExtractionQuality string

const (
	QualityHigh   ExtractionQuality = "high"
	QualityMedium ExtractionQuality = "medium"
	QualityLow    ExtractionQuality = "low"
	QualityNone   ExtractionQuality = "none"
)

// SavingType describes how SavingAmount is expressed.
type SavingType string

const (
	SavingTypeAbsolute SavingType = "absolute"
)

// RunStatus is the terminal status of a spotter run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusSkipped   RunStatus = "skipped"
)

// AllowedImageTypes lists the detected content types a vision model accepts.
var AllowedImageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
	"image/gif":  {},
}
