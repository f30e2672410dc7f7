// Package design defines the intelligence types flowing through the
// generation pipeline: the mockup analysis, the market research built on it,
// and the typed patch users apply to research before generation continues.
package design

// PageType classifies the overall shape of the uploaded mockup.
type PageType string

const (
	PageTypeLanding   PageType = "landing"
	PageTypeEcommerce PageType = "ecommerce"
	PageTypePortfolio PageType = "portfolio"
	PageTypeBlog      PageType = "blog"
	PageTypeDashboard PageType = "dashboard"
)

// AnalysisResult classifies an uploaded design mockup. It is produced exactly
// once per pipeline run and is immutable after that.
type AnalysisResult struct {
	PageType       PageType `json:"page_type"`
	Industry       string   `json:"industry"`
	Intent         string   `json:"intent"`
	Audience       string   `json:"audience"`
	Palette        []string `json:"palette,omitempty"`
	LayoutPatterns []string `json:"layout_patterns,omitempty"`
	UXPatterns     []string `json:"ux_patterns,omitempty"`
	Commerce       bool     `json:"commerce"`
}

// Clone returns an independent copy of the analysis.
func (a AnalysisResult) Clone() AnalysisResult {
	out := a
	out.Palette = append([]string(nil), a.Palette...)
	out.LayoutPatterns = append([]string(nil), a.LayoutPatterns...)
	out.UXPatterns = append([]string(nil), a.UXPatterns...)
	return out
}
