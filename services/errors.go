package services

import (
	"fmt"

	"github.com/sitewright/engine/core/site"
)

// AnalysisError wraps a failure of the analyze operation. Fatal to the run.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed: %v", e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// ResearchError wraps a failure of the research operation. Fatal to the run.
type ResearchError struct {
	Err error
}

func (e *ResearchError) Error() string {
	return fmt.Sprintf("research failed: %v", e.Err)
}

func (e *ResearchError) Unwrap() error {
	return e.Err
}

// GenerationError wraps a failure of a single image-generation call. Never
// fatal: the sequencer records the fallback reference and continues.
type GenerationError struct {
	Kind site.AssetKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("image generation failed for %s slot: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// CodeGenError wraps a failure of the site-code generation operation. Fatal
// to the run.
type CodeGenError struct {
	Err error
}

func (e *CodeGenError) Error() string {
	return fmt.Sprintf("site code generation failed: %v", e.Err)
}

func (e *CodeGenError) Unwrap() error {
	return e.Err
}
