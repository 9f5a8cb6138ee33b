package vision

import (
	"errors"
	"fmt"
)

// TransientError is a failure worth one immediate retry against the same
// model: a dropped connection, a timeout or a truncated body.
type TransientError struct {
	Model string
	Err   error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s transient failure: %v", e.Model, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// ModelError is a failure the same model will most likely repeat, such as
// a non-2xx status or a reply without choices.
type ModelError struct {
	Model      string
	StatusCode int
	Err        error
}

func (e *ModelError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s returned status %d: %v", e.Model, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Model, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err carries a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
