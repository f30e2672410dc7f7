// Package session holds the workflow state machine: the live, session-scoped
// State that every pipeline component reads and derives from. State is the
// single source of truth for the current step, accumulated intermediate
// results, and the diagnostic log.
package session

// Step identifies the current stage of the workflow. StepUpload is initial;
// StepPreview is terminal for a run but not for the session — remix and reset
// return to earlier steps without clearing the gallery.
type Step string

const (
	StepUpload     Step = "upload"
	StepRecipe     Step = "recipe"
	StepAnalysis   Step = "analysis"
	StepResearch   Step = "research"
	StepEditor     Step = "editor"
	StepGeneration Step = "generation"
	StepCoding     Step = "coding"
	StepPreview    Step = "preview"
)
