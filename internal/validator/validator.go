package validator

import "spotter/internal/domain"

// ResultValidator decides whether a parsed page is trustworthy enough to accept.
type ResultValidator interface {
	Validate(result *domain.PageExtractionResult) bool
}

// Verdict explains an accept or reject decision.
type Verdict string

const (
	VerdictAccept         Verdict = "accept"
	VerdictReject         Verdict = "reject"
	VerdictRejectEmpty    Verdict = "reject_empty"
	VerdictRejectNoAnchor Verdict = "reject_no_anchor"
	VerdictRejectEcho     Verdict = "reject_prompt_echo"
)

// Accepted reports whether v lets the result through.
func (v Verdict) Accepted() bool {
	return v == VerdictAccept
}
