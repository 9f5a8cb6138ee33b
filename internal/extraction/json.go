package extraction

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"spotter/internal/domain"
)

const responseSchemaJSON = `{
	"type": "object",
	"required": ["products"],
	"properties": {
		"products": {
			"type": "array",
			"items": {"type": "object"}
		},
		"total_products_found": {"type": ["number", "string", "null"]},
		"quality_notes": {"type": ["string", "null"]}
	}
}`

var responseSchema = mustCompileSchema(responseSchemaJSON)

func mustCompileSchema(schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("response.json", strings.NewReader(schema)); err != nil {
		panic(err)
	}
	s, err := compiler.Compile("response.json")
	if err != nil {
		panic(err)
	}
	return s
}

// jsonResponse accepts the historical key spellings models have been
// prompted with.
type jsonResponse struct {
	Products     []jsonProduct `json:"products"`
	QualityNotes flexString    `json:"quality_notes"`
	Retailer     flexString    `json:"retailer"`
	Currency     flexString    `json:"currency"`
	ValidFrom    flexString    `json:"valid_from"`
	ValidTo      flexString    `json:"valid_to"`
}

type jsonProduct struct {
	Brand           flexString `json:"brand"`
	Name            flexString `json:"name"`
	Description     flexString `json:"description"`
	CurrentPrice    flexString `json:"current_price"`
	OldPrice        flexString `json:"old_price"`
	OriginalPrice   flexString `json:"original_price"`
	Discount        flexString `json:"discount"`
	DiscountPercent flexString `json:"discount_percent"`
	WeightOrPack    flexString `json:"weight_or_pack"`
	Details         flexString `json:"details"`
	PricePerUnit    flexString `json:"price_per_unit"`
	OfferStartDate  flexString `json:"offer_start_date"`
	OfferEndDate    flexString `json:"offer_end_date"`
	Notes           flexNotes  `json:"notes"`
	Confidence      flexString `json:"confidence"`
}

func (p jsonProduct) candidate() domain.CandidateProduct {
	c := domain.CandidateProduct{
		Brand:           p.Brand.v,
		Name:            p.Name.v,
		Description:     p.Description.v,
		CurrentPriceRaw: p.CurrentPrice.v,
		OldPriceRaw:     firstOf(p.OldPrice.v, p.OriginalPrice.v),
		DiscountRaw:     firstOf(p.Discount.v, p.DiscountPercent.v),
		WeightOrPack:    firstOf(p.WeightOrPack.v, p.Details.v),
		PricePerUnit:    p.PricePerUnit.v,
		OfferStartDate:  p.OfferStartDate.v,
		OfferEndDate:    p.OfferEndDate.v,
		Notes:           p.Notes,
	}
	if p.Confidence.v != nil {
		if f, err := strconv.ParseFloat(*p.Confidence.v, 64); err == nil {
			c.ReportedConfidence = &f
		}
	}
	return c
}

func parseJSON(raw string) (domain.GlobalPageInfo, []domain.CandidateProduct, string, error) {
	text := strings.TrimSpace(raw)

	var doc interface{}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return domain.GlobalPageInfo{}, nil, "", &ParseError{Mode: domain.ResponseModeJSON, Reason: "no JSON object in reply", Err: err}
		}
		text = text[start : end+1]
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return domain.GlobalPageInfo{}, nil, "", &ParseError{Mode: domain.ResponseModeJSON, Reason: "invalid JSON", Err: err}
		}
	}

	if err := responseSchema.Validate(doc); err != nil {
		return domain.GlobalPageInfo{}, nil, "", &ParseError{Mode: domain.ResponseModeJSON, Reason: "reply does not match schema", Err: err}
	}

	var resp jsonResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return domain.GlobalPageInfo{}, nil, "", &ParseError{Mode: domain.ResponseModeJSON, Reason: "decode products", Err: err}
	}

	info := domain.GlobalPageInfo{
		Retailer:      resp.Retailer.v,
		Currency:      resp.Currency.v,
		ValidityStart: resp.ValidFrom.v,
		ValidityEnd:   resp.ValidTo.v,
	}

	candidates := make([]domain.CandidateProduct, 0, len(resp.Products))
	for _, p := range resp.Products {
		candidates = append(candidates, p.candidate())
	}

	var notes string
	if resp.QualityNotes.v != nil {
		notes = *resp.QualityNotes.v
	}
	return info, candidates, notes, nil
}

// flexString decodes a JSON string, number or bool into an optional string.
type flexString struct {
	v *string
}

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		f.v = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		f.v = field(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		s = n.String()
		f.v = &s
		return nil
	}
	var flag bool
	if err := json.Unmarshal(b, &flag); err == nil {
		s = strconv.FormatBool(flag)
		f.v = &s
		return nil
	}
	s = string(b)
	f.v = &s
	return nil
}

// flexNotes decodes either a single note or a list of notes.
type flexNotes []string

func (n *flexNotes) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var items []flexString
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		var out []string
		for _, it := range items {
			if it.v != nil {
				out = append(out, *it.v)
			}
		}
		*n = out
		return nil
	}
	var one flexString
	if err := one.UnmarshalJSON(b); err != nil {
		return err
	}
	if one.v != nil {
		*n = flexNotes{*one.v}
	} else {
		*n = nil
	}
	return nil
}

func firstOf(vals ...*string) *string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
