package extraction

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	decimalPrice = regexp.MustCompile(`(\d+)[.,](\d+)`)
	integerPrice = regexp.MustCompile(`(\d+)`)
)

// ParsePrice extracts a price from free text such as "1,39 €", "€ 1.39" or "2".
// It returns nil when no number is present.
func ParsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(strings.ReplaceAll(s, "EUR", ""), "eur", "")

	if m := decimalPrice.FindStringSubmatch(s); m != nil {
		if f, err := strconv.ParseFloat(m[1]+"."+m[2], 64); err == nil {
			return &f
		}
	}
	if m := integerPrice.FindStringSubmatch(s); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &f
		}
	}
	return nil
}
