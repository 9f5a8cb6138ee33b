package extraction

import (
	"strings"

	"spotter/internal/domain"
)

// chatterTokens mark lines that are model commentary rather than data.
var chatterTokens = []string{
	"confirm",
	"here are",
	"extract",
	"attached",
	"image",
	"now extract",
	"important",
}

// minProductFields is brand, name, description and current price.
const minProductFields = 4

func parsePipe(raw string) (domain.GlobalPageInfo, []domain.CandidateProduct) {
	var dataLines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isChatter(line) || !strings.Contains(line, "|") || isTableSeparator(line) {
			continue
		}
		dataLines = append(dataLines, line)
	}

	if len(dataLines) == 0 {
		return domain.GlobalPageInfo{}, nil
	}

	info := parseGlobalLine(dataLines[0])

	var products []domain.CandidateProduct
	for _, line := range dataLines[1:] {
		if p, ok := parseProductLine(line); ok {
			products = append(products, p)
		}
	}
	return info, products
}

func isChatter(line string) bool {
	lower := strings.ToLower(line)
	for _, tok := range chatterTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// isTableSeparator matches markdown rows such as "|---|:---:|".
func isTableSeparator(line string) bool {
	rest := strings.Map(func(r rune) rune {
		switch r {
		case '|', '-', ':', ' ', '\t':
			return -1
		}
		return r
	}, line)
	return rest == "" && strings.Contains(line, "-")
}

// splitPipe splits a data line, dropping the empty edge cells of a markdown row.
func splitPipe(line string) []string {
	if strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|") && len(line) > 1 {
		line = line[1 : len(line)-1]
	}
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseGlobalLine(line string) domain.GlobalPageInfo {
	parts := splitPipe(line)
	return domain.GlobalPageInfo{
		Retailer:      at(parts, 0),
		Currency:      at(parts, 1),
		ValidityStart: at(parts, 2),
		ValidityEnd:   at(parts, 3),
	}
}

func parseProductLine(line string) (domain.CandidateProduct, bool) {
	parts := splitPipe(line)
	if len(parts) < minProductFields {
		return domain.CandidateProduct{}, false
	}

	p := domain.CandidateProduct{
		Brand:           at(parts, 0),
		Name:            at(parts, 1),
		Description:     at(parts, 2),
		CurrentPriceRaw: at(parts, 3),
		OldPriceRaw:     at(parts, 4),
		DiscountRaw:     at(parts, 5),
		WeightOrPack:    at(parts, 6),
		PricePerUnit:    at(parts, 7),
		OfferStartDate:  at(parts, 8),
		OfferEndDate:    at(parts, 9),
	}
	for i := 10; i < len(parts); i++ {
		if n := field(parts[i]); n != nil {
			p.Notes = append(p.Notes, *n)
		}
	}
	if p.Name == nil {
		return domain.CandidateProduct{}, false
	}
	return p, true
}

func at(parts []string, i int) *string {
	if i >= len(parts) {
		return nil
	}
	return field(parts[i])
}

// field maps "null" and blanks to nil.
func field(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}
