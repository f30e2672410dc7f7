package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/sitewright/engine/core/design"
	"github.com/sitewright/engine/core/site"
)

// Static is a deterministic, offline Services implementation. It never calls
// a provider: analysis and research are derived from fixed heuristics, image
// references are seeded placeholder URLs, and page markup is assembled
// locally with marketing copy rendered from markdown.
//
// Static keeps the pipeline fully operational without credentials, which is
// also what the sequencer tests run against.
type Static struct {
	md goldmark.Markdown
}

// NewStatic creates the offline provider.
func NewStatic() *Static {
	return &Static{md: goldmark.New()}
}

func (s *Static) Analyze(_ context.Context, images []string) (*design.AnalysisResult, error) {
	if len(images) == 0 {
		return nil, &AnalysisError{Err: fmt.Errorf("no images to analyze")}
	}
	return &design.AnalysisResult{
		PageType:       design.PageTypeLanding,
		Industry:       "general",
		Intent:         "present a product or service",
		Audience:       "prospective customers",
		Palette:        []string{"#1a1a2e", "#e94560", "#f5f5f5"},
		LayoutPatterns: []string{"hero", "feature-grid", "footer"},
		UXPatterns:     []string{"single-column scroll", "primary call to action"},
	}, nil
}

func (s *Static) Research(_ context.Context, analysis *design.AnalysisResult) (*design.ResearchResult, error) {
	if analysis == nil {
		return nil, &ResearchError{Err: fmt.Errorf("no analysis to research")}
	}
	return &design.ResearchResult{
		Trends:      []string{"bold typography", "generous whitespace", "soft gradients"},
		Competitors: []string{"example.com"},
		Keywords:    []string{analysis.Industry, "modern", "responsive"},
		Tokens: design.Tokens{
			PrimaryColor:   "#1a1a2e",
			SecondaryColor: "#16213e",
			AccentColor:    "#e94560",
			HeadingFont:    "Inter",
			BodyFont:       "Inter",
		},
		Sources: []string{"offline heuristics"},
		Copy: design.Copy{
			Headline:         "A site built from your mockup",
			ValueProposition: "Generated Site",
			CallToAction:     "Get started",
			About:            "## About\n\nThis site was generated from an uploaded design mockup.\n\n- Fast\n- Responsive\n- Yours",
		},
	}, nil
}

func (s *Static) GenerateImage(_ context.Context, prompt string, kind site.AssetKind) (string, error) {
	h := fnv.New32a()
	h.Write([]byte(prompt))
	return fmt.Sprintf("https://picsum.photos/seed/%s-%08x/1024/768", kind, h.Sum32()), nil
}

func (s *Static) GenerateSiteCode(_ context.Context, analysis *design.AnalysisResult, research *design.ResearchResult, assetRefs []string) ([]site.Page, error) {
	if research == nil {
		return nil, &CodeGenError{Err: fmt.Errorf("no research result")}
	}

	heroRef, featureRef := site.FallbackRef, site.FallbackRef
	if len(assetRefs) > 0 {
		heroRef = assetRefs[0]
	}
	if len(assetRefs) > 1 {
		featureRef = assetRefs[1]
	}

	pages := []site.Page{
		{
			Name:     "Home",
			Filename: "index.html",
			Source:   s.renderHome(research, heroRef, featureRef, assetRefs),
		},
		{
			Name:     "About",
			Filename: "about.html",
			Source:   s.renderAbout(research),
		},
	}
	return pages, nil
}

func (s *Static) renderHome(research *design.ResearchResult, heroRef, featureRef string, assetRefs []string) string {
	var b strings.Builder
	b.WriteString("<!doctype html>\n<html>\n<head>\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", research.Copy.ValueProposition)
	b.WriteString(s.styleBlock(research.Tokens))
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<header>\n<h1>%s</h1>\n", research.Copy.Headline)
	fmt.Fprintf(&b, "<img class=\"hero\" src=\"%s\" alt=\"hero\">\n", heroRef)
	fmt.Fprintf(&b, "<a class=\"cta\" href=\"#\">%s</a>\n</header>\n", research.Copy.CallToAction)
	fmt.Fprintf(&b, "<section class=\"feature\">\n<img src=\"%s\" alt=\"feature\">\n</section>\n", featureRef)

	// Product slots follow hero and feature in slot order.
	if len(research.Products) > 0 {
		b.WriteString("<section class=\"products\">\n")
		for i, p := range research.Products {
			ref := site.FallbackRef
			if idx := 2 + i; idx < len(assetRefs) {
				ref = assetRefs[idx]
			}
			fmt.Fprintf(&b, "<article>\n<img src=\"%s\" alt=\"%s\">\n<h3>%s</h3>\n<p>%s</p>\n</article>\n",
				ref, p.Name, p.Name, p.Price)
		}
		b.WriteString("</section>\n")
	}

	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func (s *Static) renderAbout(research *design.ResearchResult) string {
	var body bytes.Buffer
	if err := s.md.Convert([]byte(research.Copy.About), &body); err != nil {
		body.Reset()
		fmt.Fprintf(&body, "<p>%s</p>", research.Copy.About)
	}

	var b strings.Builder
	b.WriteString("<!doctype html>\n<html>\n<head>\n")
	fmt.Fprintf(&b, "<title>About — %s</title>\n", research.Copy.ValueProposition)
	b.WriteString(s.styleBlock(research.Tokens))
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func (s *Static) styleBlock(tokens design.Tokens) string {
	return fmt.Sprintf(
		"<style>\nbody { font-family: %q, sans-serif; color: %s; }\nh1, h2, h3 { font-family: %q, sans-serif; }\n.cta { background: %s; }\n</style>\n",
		tokens.BodyFont, tokens.PrimaryColor, tokens.HeadingFont, tokens.AccentColor,
	)
}
