package session

import (
	"time"

	"github.com/sitewright/engine/core/design"
	"github.com/sitewright/engine/core/site"
	"github.com/sitewright/engine/gallery"
)

// State is the live workflow state. Exactly one State is live per session;
// every mutation is a full-state derive from the prior value, which makes
// each transition atomic from the perspective of state readers.
//
// Uploads holds the persistent in-memory encodings of the accepted mockups.
// Analysis, Research, Patch, Assets, and Active accumulate over a single
// pipeline run and are cleared by ResetRun. Gallery survives runs and, when
// persistence is configured, sessions.
type State struct {
	Step       Step                   `json:"step"`
	Uploads    []string               `json:"uploads,omitempty"`
	Analysis   *design.AnalysisResult `json:"analysis,omitempty"`
	Research   *design.ResearchResult `json:"research,omitempty"`
	Patch      *design.Patch          `json:"patch,omitempty"`
	Assets     []site.Asset           `json:"assets,omitempty"`
	Active     *site.Site             `json:"active,omitempty"`
	Processing bool                   `json:"processing"`
	Err        string                 `json:"error,omitempty"`
	Log        []LogEntry             `json:"log,omitempty"`
	Gallery    gallery.Gallery        `json:"-"`
	Recipe     string                 `json:"recipe,omitempty"`
}

// New creates the initial State for a session.
func New() State {
	return State{
		Step:    StepUpload,
		Gallery: gallery.New(gallery.DefaultLimit),
	}
}

// Clone returns an independent copy of the State. Gallery values are already
// immutable and are shared as-is.
func (s State) Clone() State {
	out := s
	out.Uploads = append([]string(nil), s.Uploads...)
	out.Assets = append([]site.Asset(nil), s.Assets...)
	out.Log = append([]LogEntry(nil), s.Log...)
	if s.Analysis != nil {
		analysis := s.Analysis.Clone()
		out.Analysis = &analysis
	}
	if s.Research != nil {
		research := s.Research.Clone()
		out.Research = &research
	}
	if s.Patch != nil {
		patch := *s.Patch
		out.Patch = &patch
	}
	if s.Active != nil {
		active := s.Active.Clone()
		out.Active = &active
	}
	return out
}

// ResetRun returns the initial State with the gallery (and nothing else)
// retained.
func (s State) ResetRun() State {
	out := New()
	out.Gallery = s.Gallery
	return out
}

// WithStep derives a State with the given step.
func (s State) WithStep(step Step) State {
	out := s.Clone()
	out.Step = step
	return out
}

// WithProcessing derives a State with the processing flag set.
func (s State) WithProcessing(processing bool) State {
	out := s.Clone()
	out.Processing = processing
	return out
}

// WithError derives a State carrying the fatal error message. The processing
// flag is cleared: error state is always non-processing.
func (s State) WithError(msg string) State {
	out := s.Clone()
	out.Err = msg
	out.Processing = false
	return out
}

// WithUploads derives a State with the accepted upload encodings committed.
func (s State) WithUploads(uploads []string) State {
	out := s.Clone()
	out.Uploads = append([]string(nil), uploads...)
	return out
}

// WithAnalysis derives a State with the analysis result committed.
func (s State) WithAnalysis(a design.AnalysisResult) State {
	out := s.Clone()
	analysis := a.Clone()
	out.Analysis = &analysis
	return out
}

// WithResearch derives a State with the research result committed.
func (s State) WithResearch(r design.ResearchResult) State {
	out := s.Clone()
	research := r.Clone()
	out.Research = &research
	return out
}

// WithPatch derives a State recording the user's refinement overrides.
func (s State) WithPatch(p design.Patch) State {
	out := s.Clone()
	patch := p
	out.Patch = &patch
	return out
}

// WithAssets derives a State with the generated asset list committed.
func (s State) WithAssets(assets []site.Asset) State {
	out := s.Clone()
	out.Assets = append([]site.Asset(nil), assets...)
	return out
}

// WithActive derives a State with the active site set.
func (s State) WithActive(active site.Site) State {
	out := s.Clone()
	cloned := active.Clone()
	out.Active = &cloned
	return out
}

// WithGallery derives a State with the gallery replaced.
func (s State) WithGallery(g gallery.Gallery) State {
	out := s.Clone()
	out.Gallery = g
	return out
}

// WithRecipe derives a State with the selected recipe identifier.
func (s State) WithRecipe(recipe string) State {
	out := s.Clone()
	out.Recipe = recipe
	return out
}

// AppendLog derives a State with a timestamped entry appended to the log.
func (s State) AppendLog(level LogLevel, message string) State {
	out := s.Clone()
	out.Log = append(out.Log, LogEntry{
		Time:    time.Now(),
		Level:   level,
		Message: message,
	})
	return out
}
