package extraction

import (
	"fmt"

	"spotter/internal/domain"
)

// Parse turns a raw model reply into a normalized page result using the
// grammar of mode. A reply with no product lines yields an empty result, not
// an error; only unreadable JSON or an unknown mode return *ParseError.
func Parse(raw string, mode domain.ResponseMode) (*domain.PageExtractionResult, error) {
	var (
		info       domain.GlobalPageInfo
		candidates []domain.CandidateProduct
		notes      string
		err        error
	)

	switch mode {
	case domain.ResponseModePipe:
		info, candidates = parsePipe(raw)
	case domain.ResponseModeJSON:
		info, candidates, notes, err = parseJSON(raw)
		if err != nil {
			return nil, err
		}
	default:
		return nil, &ParseError{Mode: mode, Reason: fmt.Sprintf("unknown response mode %q", mode)}
	}

	info.Retailer = titleIfUpper(info.Retailer)

	products := make([]domain.NormalizedProduct, 0, len(candidates))
	for _, c := range candidates {
		if c.Name == nil {
			continue
		}
		products = append(products, Normalize(c, mode))
	}

	return &domain.PageExtractionResult{
		GlobalInfo:         info,
		Products:           products,
		TotalProductsFound: len(products),
		ExtractionQuality:  AssessQuality(products),
		QualityNotes:       notes,
	}, nil
}
