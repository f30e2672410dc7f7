package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"

	"github.com/sitewright/engine/core/design"
	"github.com/sitewright/engine/core/site"
)

// OpenAI implements Services against the OpenAI API: vision chat for
// analysis, chat completions for research and site code, and the images
// endpoint for asset generation. Model responses are requested as JSON and
// extracted leniently, so a fenced or prose-wrapped payload still parses.
type OpenAI struct {
	client     openai.Client
	model      string
	imageModel string
}

// NewOpenAI creates the OpenAI-backed provider from configuration.
func NewOpenAI(cfg *Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai provider requires an api key")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai provider requires a model")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		imageModel: cfg.ImageModel,
	}, nil
}

const analyzeSystemPrompt = `You are a web design analyst. Given design mockup images, respond with a single JSON object:
{"page_type": "landing|ecommerce|portfolio|blog|dashboard", "industry": "...", "intent": "...", "audience": "...", "palette": ["#hex", ...], "layout_patterns": ["...", ...], "ux_patterns": ["...", ...], "commerce": false}
Respond with JSON only.`

func (o *OpenAI) Analyze(ctx context.Context, images []string) (*design.AnalysisResult, error) {
	if len(images) == 0 {
		return nil, &AnalysisError{Err: fmt.Errorf("no images to analyze")}
	}

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart("Analyze these design mockups."),
	}
	for _, img := range images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: img}))
	}

	content, err := o.chat(ctx,
		openai.SystemMessage(analyzeSystemPrompt),
		openai.UserMessage(parts),
	)
	if err != nil {
		return nil, &AnalysisError{Err: err}
	}

	doc := gjson.Parse(extractJSON(content))
	if !doc.IsObject() {
		return nil, &AnalysisError{Err: fmt.Errorf("model returned no JSON object")}
	}

	result := &design.AnalysisResult{
		PageType:       design.PageType(doc.Get("page_type").String()),
		Industry:       doc.Get("industry").String(),
		Intent:         doc.Get("intent").String(),
		Audience:       doc.Get("audience").String(),
		Palette:        stringSlice(doc.Get("palette")),
		LayoutPatterns: stringSlice(doc.Get("layout_patterns")),
		UXPatterns:     stringSlice(doc.Get("ux_patterns")),
		Commerce:       doc.Get("commerce").Bool(),
	}
	if result.PageType == "" {
		result.PageType = design.PageTypeLanding
	}
	return result, nil
}

const researchSystemPrompt = `You are a market researcher for web design. Given a site analysis, respond with a single JSON object:
{"trends": [...], "competitors": [...], "keywords": [...], "tokens": {"primary_color": "#hex", "secondary_color": "#hex", "accent_color": "#hex", "heading_font": "...", "body_font": "..."}, "sources": [...], "copy": {"headline": "...", "value_proposition": "...", "call_to_action": "...", "about": "markdown text"}, "payment": {"provider": "...", "currency": "..."} or null, "products": [{"name": "...", "description": "...", "price": "..."}]}
Include payment and products only for commerce sites. Respond with JSON only.`

func (o *OpenAI) Research(ctx context.Context, analysis *design.AnalysisResult) (*design.ResearchResult, error) {
	if analysis == nil {
		return nil, &ResearchError{Err: fmt.Errorf("no analysis to research")}
	}

	content, err := o.chat(ctx,
		openai.SystemMessage(researchSystemPrompt),
		openai.UserMessage(describeAnalysis(analysis)),
	)
	if err != nil {
		return nil, &ResearchError{Err: err}
	}

	doc := gjson.Parse(extractJSON(content))
	if !doc.IsObject() {
		return nil, &ResearchError{Err: fmt.Errorf("model returned no JSON object")}
	}

	result := &design.ResearchResult{
		Trends:      stringSlice(doc.Get("trends")),
		Competitors: stringSlice(doc.Get("competitors")),
		Keywords:    stringSlice(doc.Get("keywords")),
		Tokens: design.Tokens{
			PrimaryColor:   doc.Get("tokens.primary_color").String(),
			SecondaryColor: doc.Get("tokens.secondary_color").String(),
			AccentColor:    doc.Get("tokens.accent_color").String(),
			HeadingFont:    doc.Get("tokens.heading_font").String(),
			BodyFont:       doc.Get("tokens.body_font").String(),
		},
		Sources: stringSlice(doc.Get("sources")),
		Copy: design.Copy{
			Headline:         doc.Get("copy.headline").String(),
			ValueProposition: doc.Get("copy.value_proposition").String(),
			CallToAction:     doc.Get("copy.call_to_action").String(),
			About:            doc.Get("copy.about").String(),
		},
	}

	if payment := doc.Get("payment"); payment.IsObject() {
		result.Payment = &design.PaymentConfig{
			Provider: payment.Get("provider").String(),
			Currency: payment.Get("currency").String(),
		}
	}
	for _, p := range doc.Get("products").Array() {
		result.Products = append(result.Products, design.Product{
			Name:        p.Get("name").String(),
			Description: p.Get("description").String(),
			Price:       p.Get("price").String(),
		})
	}
	return result, nil
}

func (o *OpenAI) GenerateImage(ctx context.Context, prompt string, kind site.AssetKind) (string, error) {
	params := openai.ImageGenerateParams{
		Prompt: prompt,
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize1024x1024,
	}
	if o.imageModel != "" {
		params.Model = openai.ImageModel(o.imageModel)
	}

	resp, err := o.client.Images.Generate(ctx, params)
	if err != nil {
		return "", &GenerationError{Kind: kind, Err: err}
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", &GenerationError{Kind: kind, Err: fmt.Errorf("empty image response")}
	}
	return resp.Data[0].URL, nil
}

const codegenSystemPrompt = `You are a web developer. Build a complete static site from the analysis, research and image URLs provided. Respond with a single JSON object:
{"pages": [{"name": "Home", "filename": "index.html", "source": "<!doctype html>..."}]}
Every provided image URL must appear verbatim in the page sources. Respond with JSON only.`

func (o *OpenAI) GenerateSiteCode(ctx context.Context, analysis *design.AnalysisResult, research *design.ResearchResult, assetRefs []string) ([]site.Page, error) {
	var prompt strings.Builder
	prompt.WriteString(describeAnalysis(analysis))
	prompt.WriteString("\n\nResearch:\n")
	prompt.WriteString(describeResearch(research))
	prompt.WriteString("\n\nImage URLs in slot order (hero, feature, then products):\n")
	for _, ref := range assetRefs {
		prompt.WriteString(ref)
		prompt.WriteString("\n")
	}

	content, err := o.chat(ctx,
		openai.SystemMessage(codegenSystemPrompt),
		openai.UserMessage(prompt.String()),
	)
	if err != nil {
		return nil, &CodeGenError{Err: err}
	}

	doc := gjson.Parse(extractJSON(content))
	pageList := doc.Get("pages").Array()
	if len(pageList) == 0 {
		return nil, &CodeGenError{Err: fmt.Errorf("model returned no pages")}
	}

	pages := make([]site.Page, 0, len(pageList))
	for _, p := range pageList {
		page := site.Page{
			Name:     p.Get("name").String(),
			Filename: p.Get("filename").String(),
			Source:   p.Get("source").String(),
		}
		if page.Filename == "" || page.Source == "" {
			return nil, &CodeGenError{Err: fmt.Errorf("model returned an incomplete page")}
		}
		pages = append(pages, page)
	}
	return pages, nil
}

func (o *OpenAI) chat(ctx context.Context, messages ...openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func describeAnalysis(analysis *design.AnalysisResult) string {
	if analysis == nil {
		return "No analysis available."
	}
	return fmt.Sprintf(
		"Page type: %s\nIndustry: %s\nIntent: %s\nAudience: %s\nPalette: %s\nLayout patterns: %s\nUX patterns: %s\nCommerce: %t",
		analysis.PageType, analysis.Industry, analysis.Intent, analysis.Audience,
		strings.Join(analysis.Palette, ", "),
		strings.Join(analysis.LayoutPatterns, ", "),
		strings.Join(analysis.UXPatterns, ", "),
		analysis.Commerce,
	)
}

func describeResearch(research *design.ResearchResult) string {
	if research == nil {
		return "No research available."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Headline: %s\nValue proposition: %s\nCall to action: %s\nAbout:\n%s\n",
		research.Copy.Headline, research.Copy.ValueProposition, research.Copy.CallToAction, research.Copy.About)
	fmt.Fprintf(&b, "Trends: %s\nKeywords: %s\n",
		strings.Join(research.Trends, ", "), strings.Join(research.Keywords, ", "))
	fmt.Fprintf(&b, "Tokens: primary %s, secondary %s, accent %s, heading font %s, body font %s\n",
		research.Tokens.PrimaryColor, research.Tokens.SecondaryColor, research.Tokens.AccentColor,
		research.Tokens.HeadingFont, research.Tokens.BodyFont)
	for _, p := range research.Products {
		fmt.Fprintf(&b, "Product: %s (%s) %s\n", p.Name, p.Price, p.Description)
	}
	return b.String()
}

// extractJSON pulls the first JSON object out of a model response, stripping
// markdown fences and surrounding prose.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx >= 0 {
			content = content[:idx]
		}
		content = strings.TrimSpace(content)
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

func stringSlice(result gjson.Result) []string {
	arr := result.Array()
	if len(arr) == 0 {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		out = append(out, v.String())
	}
	return out
}
