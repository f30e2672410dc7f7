package design

// Tokens holds the recommended design tokens for the generated site.
type Tokens struct {
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	AccentColor    string `json:"accent_color,omitempty"`
	HeadingFont    string `json:"heading_font,omitempty"`
	BodyFont       string `json:"body_font,omitempty"`
}

// Copy holds the marketing copy recommended by research. ValueProposition
// doubles as the generated site's display name when present.
type Copy struct {
	Headline         string `json:"headline,omitempty"`
	ValueProposition string `json:"value_proposition,omitempty"`
	CallToAction     string `json:"call_to_action,omitempty"`
	About            string `json:"about,omitempty"`
}

// PaymentConfig describes the optional payment setup for commerce sites.
type PaymentConfig struct {
	Provider string `json:"provider"`
	Currency string `json:"currency,omitempty"`
	TestMode bool   `json:"test_mode,omitempty"`
}

// Product is one catalog entry. ImageRef, when non-empty, is a user-supplied
// image reference that bypasses image generation for the product's slot.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
	ImageRef    string `json:"image_ref,omitempty"`
}

// ResearchResult carries the market intelligence produced from an analysis.
// It may be partially overridden by a Patch before the pipeline continues.
type ResearchResult struct {
	Trends      []string       `json:"trends,omitempty"`
	Competitors []string       `json:"competitors,omitempty"`
	Keywords    []string       `json:"keywords,omitempty"`
	Tokens      Tokens         `json:"tokens"`
	Sources     []string       `json:"sources,omitempty"`
	Copy        Copy           `json:"copy"`
	Payment     *PaymentConfig `json:"payment,omitempty"`
	Products    []Product      `json:"products,omitempty"`
}

// Clone returns an independent copy of the research result.
func (r ResearchResult) Clone() ResearchResult {
	out := r
	out.Trends = append([]string(nil), r.Trends...)
	out.Competitors = append([]string(nil), r.Competitors...)
	out.Keywords = append([]string(nil), r.Keywords...)
	out.Sources = append([]string(nil), r.Sources...)
	out.Products = append([]Product(nil), r.Products...)
	if r.Payment != nil {
		payment := *r.Payment
		out.Payment = &payment
	}
	return out
}
