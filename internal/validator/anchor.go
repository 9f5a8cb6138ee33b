package validator

import (
	"strings"

	"spotter/internal/domain"
)

// AnchorValidator rejects pages that have no products, or whose products
// include none of a set of known anchor names. A model that invents a flyer
// tends to miss products a human confirmed are on the page.
type AnchorValidator struct {
	anchors []string
}

// NewAnchorValidator returns a validator matching keywords case-insensitively
// as substrings of product names. With no keywords only empty pages are rejected.
func NewAnchorValidator(keywords []string) *AnchorValidator {
	anchors := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			anchors = append(anchors, k)
		}
	}
	return &AnchorValidator{anchors: anchors}
}

// HasAnchors reports whether the anchor check is active.
func (a *AnchorValidator) HasAnchors() bool {
	return len(a.anchors) > 0
}

// Validate implements ResultValidator.
func (a *AnchorValidator) Validate(result *domain.PageExtractionResult) bool {
	return a.Check(result).Accepted()
}

// Check returns the verdict for result.
func (a *AnchorValidator) Check(result *domain.PageExtractionResult) Verdict {
	if result == nil || len(result.Products) == 0 {
		return VerdictRejectEmpty
	}
	if len(a.anchors) == 0 {
		return VerdictAccept
	}
	for _, p := range result.Products {
		name := strings.ToLower(p.Name)
		for _, anchor := range a.anchors {
			if strings.Contains(name, anchor) {
				return VerdictAccept
			}
		}
	}
	return VerdictRejectNoAnchor
}
