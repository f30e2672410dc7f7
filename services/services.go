// Package services defines the generation-service boundary consumed by the
// pipeline: four independent asynchronous operations, each of which may fail.
// Implementations are external collaborators; the pipeline only depends on
// this interface and the typed errors it returns.
package services

import (
	"context"

	"github.com/sitewright/engine/core/design"
	"github.com/sitewright/engine/core/site"
)

// Services is the contract between the sequencer and the AI providers.
type Services interface {
	// Analyze classifies the uploaded design mockups (encoded images).
	// Fails with *AnalysisError on malformed input or provider failure.
	Analyze(ctx context.Context, images []string) (*design.AnalysisResult, error)

	// Research produces market intelligence from an analysis.
	// Fails with *ResearchError.
	Research(ctx context.Context, analysis *design.AnalysisResult) (*design.ResearchResult, error)

	// GenerateImage produces an image reference for a slot-specific prompt.
	// Fails with *GenerationError; the caller applies the fallback policy.
	GenerateImage(ctx context.Context, prompt string, kind site.AssetKind) (string, error)

	// GenerateSiteCode produces the ordered page list for the site. The
	// asset references arrive in slot order and must appear literally in
	// the generated source. Fails with *CodeGenError.
	GenerateSiteCode(ctx context.Context, analysis *design.AnalysisResult, research *design.ResearchResult, assetRefs []string) ([]site.Page, error)
}
