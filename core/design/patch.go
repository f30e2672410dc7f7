package design

// Patch is a typed partial update over a ResearchResult. Only the declared
// fields are eligible to replace the base's fields; a nil field retains the
// base value, a non-nil field replaces the whole top-level value (shallow
// semantics). Unknown JSON keys are dropped by decoding rather than merged.
type Patch struct {
	Trends      *[]string      `json:"trends,omitempty"`
	Competitors *[]string      `json:"competitors,omitempty"`
	Keywords    *[]string      `json:"keywords,omitempty"`
	Tokens      *Tokens        `json:"tokens,omitempty"`
	Sources     *[]string      `json:"sources,omitempty"`
	Copy        *Copy          `json:"copy,omitempty"`
	Payment     *PaymentConfig `json:"payment,omitempty"`
	Products    *[]Product     `json:"products,omitempty"`
}

// IsZero reports whether the patch overrides nothing.
func (p Patch) IsZero() bool {
	return p.Trends == nil && p.Competitors == nil && p.Keywords == nil &&
		p.Tokens == nil && p.Sources == nil && p.Copy == nil &&
		p.Payment == nil && p.Products == nil
}

// Apply merges the patch shallowly over base and returns the merged result.
// Base is never modified.
func (p Patch) Apply(base ResearchResult) ResearchResult {
	merged := base.Clone()

	if p.Trends != nil {
		merged.Trends = append([]string(nil), *p.Trends...)
	}
	if p.Competitors != nil {
		merged.Competitors = append([]string(nil), *p.Competitors...)
	}
	if p.Keywords != nil {
		merged.Keywords = append([]string(nil), *p.Keywords...)
	}
	if p.Tokens != nil {
		merged.Tokens = *p.Tokens
	}
	if p.Sources != nil {
		merged.Sources = append([]string(nil), *p.Sources...)
	}
	if p.Copy != nil {
		merged.Copy = *p.Copy
	}
	if p.Payment != nil {
		payment := *p.Payment
		merged.Payment = &payment
	}
	if p.Products != nil {
		merged.Products = append([]Product(nil), *p.Products...)
	}

	return merged
}
