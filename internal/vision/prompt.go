package vision

import (
	"strings"

	"spotter/internal/domain"
)

// Placeholder rows shown to the model. They must never name a real product,
// otherwise an echoed example could satisfy the anchor check.
const (
	pipeExampleHeader = "Supermercato | EUR | 01/01 | 07/01"
	pipeExampleRowA   = "Marca | Prodotto A | null | 0.00 | 0.00 | -0% | 000 g confezione | 1 kg = 0,00 € | 01/01 | 07/01 | Nota"
	pipeExampleRowB   = "Marca | Prodotto B | null | 0.00 | 0.00 | -0% | 000 g confezione | 1 kg = 0,00 € | 01/01 | 07/01 | Nota"
	jsonExampleName   = "Product Name"
)

var pipeExampleRows = []string{pipeExampleRowA, pipeExampleRowB}

// BuildPrompt returns the extraction prompt for mode.
func BuildPrompt(mode domain.ResponseMode) string {
	if mode == domain.ResponseModeJSON {
		return jsonPrompt
	}
	return pipePrompt
}

// EchoesExample reports whether a reply repeats the prompt's example products
// instead of reading the image.
func EchoesExample(mode domain.ResponseMode, raw string, res *domain.PageExtractionResult) bool {
	if mode == domain.ResponseModeJSON {
		if res == nil {
			return false
		}
		for _, p := range res.Products {
			if strings.EqualFold(strings.TrimSpace(p.Name), jsonExampleName) {
				return true
			}
		}
		return false
	}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		for _, row := range pipeExampleRows {
			if line == row {
				return true
			}
		}
	}
	return false
}

const pipePrompt = `I am uploading an ITALIAN supermarket flyer screenshot as an image attachment to this message. This is a real image file that I am sending to you right now.

IMPORTANT:
- This flyer is in ITALIAN language. Do NOT translate. Preserve all Italian text exactly as written.
- DO NOT make up or hallucinate a flyer. Extract ONLY from the actual image I attached.
- The image is attached to this message - analyze it directly.
- The flyer may be a Calameo scroll page; focus on product cards and prices.
- Ignore viewer UI headers/footers and page chrome.

Extract ALL product information from this attached flyer image.

IMPORTANT FOR COVER PAGES:
- If the page is just a cover (headline, no products), return ONLY the first line and no products.
- If product cards are visible, list them all.

FIRST LINE - GLOBAL INFO:
Retailer | Currency | ValidFrom | ValidTo

THEN LIST ALL PRODUCTS (one per line):
Brand | ProductName | Description | CurrentPrice | OldPrice | Discount | WeightPack | PricePerUnit | OfferStart | OfferEnd | Notes

RULES:
- Keep ALL text in Italian exactly as shown (e.g., "Coltivato in Italia", "confezione")
- Write "null" if field is missing or not visible
- Prices: numbers only (1.39, 0.89)
- Discount: with % sign (-31%)
- Dates: extract exactly as shown (e.g., "19/01", "da giovedì 22/01")
- Notes: any claims, badges, marketing text near product
- Separate fields with " | " (space-pipe-space)
- Extract EVERYTHING you can see, even if partially visible

EXAMPLE OUTPUT (format only, these are not real products):
` + pipeExampleHeader + `
` + pipeExampleRowA + `
` + pipeExampleRowB + `

Now extract from the ATTACHED IMAGE:`

const jsonPrompt = `Analyze this supermarket flyer image and extract ALL visible products with their prices.

For each product found, provide:
1. Product name (exact as shown)
2. Original price (if visible)
3. Current/discounted price (if different)
4. Discount percentage (if visible)
5. Any additional details (quantity, unit, etc.)

Return ONLY valid JSON in this format:
{
    "products": [
        {
            "name": "` + jsonExampleName + `",
            "original_price": "10.99",
            "current_price": "7.99",
            "discount_percent": "27%",
            "details": "250g",
            "confidence": 0.95
        }
    ],
    "total_products_found": 5,
    "quality_notes": "Clear prices visible"
}

If no products are found or image is unclear, return:
{"products": [], "total_products_found": 0, "quality_notes": "reason"}
`
