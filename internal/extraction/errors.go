package extraction

import (
	"fmt"

	"spotter/internal/domain"
)

// ParseError is returned when a model reply cannot be read in the expected grammar.
type ParseError struct {
	Mode   domain.ResponseMode
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s response: %s: %v", e.Mode, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s response: %s", e.Mode, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
