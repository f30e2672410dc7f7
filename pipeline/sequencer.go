// Package pipeline implements the phase sequencer: the runtime that drives a
// session from mockup upload through analysis, research, refinement, asset
// generation, and site code generation to a previewable result, then serves
// the post-run operations (remix, asset hot-swap, deployment recording).
//
// The sequencer initializes from configuration via New, creating all
// subsystems internally. Functional options allow test overrides of any
// subsystem.
//
//	seq, err := pipeline.New(&cfg)
//	state, err := seq.AcceptUploads(ctx, uploads)
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sitewright/engine/core/design"
	"github.com/sitewright/engine/core/site"
	"github.com/sitewright/engine/gallery"
	"github.com/sitewright/engine/imageenc"
	"github.com/sitewright/engine/observability"
	"github.com/sitewright/engine/services"
	"github.com/sitewright/engine/session"
	"github.com/sitewright/engine/workflows"
)

// Upload is one raw mockup file handed to AcceptUploads.
type Upload struct {
	Name string
	Data []byte
}

// Option configures a Sequencer after config-driven initialization.
// Applied by New after cold start; overrides replace config-created defaults.
type Option func(*Sequencer)

// WithServices overrides the config-created generation services.
func WithServices(svcs services.Services) Option {
	return func(s *Sequencer) { s.svcs = svcs }
}

// WithStore overrides the config-created gallery store.
func WithStore(store gallery.Store) Option {
	return func(s *Sequencer) { s.store = store }
}

// WithObserver overrides the config-resolved observer.
func WithObserver(o observability.Observer) Option {
	return func(s *Sequencer) { s.observer = o }
}

// Sequencer drives the generation workflow for one session. All operations
// serialize on an internal mutex; Snapshot is safe to call concurrently with
// a running operation and observes only committed state transitions.
type Sequencer struct {
	runMu sync.Mutex   // serializes operations
	mu    sync.RWMutex // guards state

	state    session.State
	svcs     services.Services
	store    gallery.Store
	observer observability.Observer
	chainCfg workflows.ChainConfig
	parCfg   workflows.ParallelConfig
}

// New creates a Sequencer from configuration. Subsystems (services, gallery
// store, observer) are initialized from their respective config sections;
// functional options applied after initialization can override any of them.
// When a store is configured, the persisted gallery is loaded immediately; a
// load failure degrades to an empty gallery and is reported to the observer.
func New(cfg *Config, opts ...Option) (*Sequencer, error) {
	merged := DefaultConfig()
	if cfg != nil {
		merged.Merge(cfg)
	}

	svcs, err := services.New(&merged.Services)
	if err != nil {
		return nil, fmt.Errorf("failed to create services: %w", err)
	}

	store, err := gallery.NewStore(&merged.Gallery)
	if err != nil {
		return nil, fmt.Errorf("failed to create gallery store: %w", err)
	}

	observer, err := observability.GetObserver(merged.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	st := session.New()
	st.Gallery = gallery.New(merged.Gallery.Limit)

	s := &Sequencer{
		state:    st,
		svcs:     svcs,
		store:    store,
		observer: observer,
		chainCfg: merged.Chain,
		parCfg:   merged.Parallel,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.loadGallery(context.Background(), merged.Gallery.Limit)
	return s, nil
}

func (s *Sequencer) loadGallery(ctx context.Context, limit int) {
	if s.store == nil {
		return
	}
	sites, err := s.store.Load(ctx)
	if err != nil {
		s.emit(ctx, EventGalleryPersistFailed, observability.LevelWarning, map[string]any{
			"operation": "load",
			"error":     err.Error(),
		})
		return
	}
	s.mu.Lock()
	s.state.Gallery = gallery.FromSites(limit, sites)
	s.mu.Unlock()
	s.emit(ctx, EventGalleryLoaded, observability.LevelInfo, map[string]any{
		"site_count": len(sites),
	})
}

// Snapshot returns an independent copy of the current committed state.
func (s *Sequencer) Snapshot() session.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *Sequencer) commit(st session.State) session.State {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return st
}

func (s *Sequencer) emit(ctx context.Context, t observability.EventType, level observability.Level, data map[string]any) {
	s.observer.OnEvent(ctx, observability.Event{
		Type:      t,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "pipeline.Sequencer",
		Data:      data,
	})
}

// AcceptUploads starts a new run from raw mockup files. Prior run results are
// cleared (the gallery and any selected recipe survive), every upload is
// encoded in parallel, and on success the analysis and research phases run
// back to back, leaving the session at the editor step.
//
// Encoding is all-or-nothing: one bad file fails the batch, no uploads are
// committed, and the session stays at the upload step with the error
// recorded. Analysis and research failures are likewise fatal to the run;
// the step stops where the failure occurred.
func (s *Sequencer) AcceptUploads(ctx context.Context, uploads []Upload) (session.State, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if len(uploads) == 0 {
		return s.Snapshot(), fmt.Errorf("no uploads provided")
	}

	st := s.Snapshot()
	st = st.ResetRun().WithRecipe(st.Recipe).WithProcessing(true).
		AppendLog(session.LogInfo, fmt.Sprintf("accepted %d mockup upload(s)", len(uploads)))
	s.commit(st)
	s.emit(ctx, EventPhaseStart, observability.LevelInfo, map[string]any{
		"phase":        "upload",
		"upload_count": len(uploads),
	})

	encoded, err := workflows.ProcessParallel(ctx, s.parCfg, uploads,
		func(ctx context.Context, u Upload) (string, error) {
			return imageenc.Encode(u.Name, u.Data)
		}, nil)
	if err != nil {
		return s.failRun(ctx, st, "upload", err)
	}

	st = st.WithUploads(encoded.Results).WithStep(session.StepAnalysis).
		AppendLog(session.LogInfo, "mockups encoded")
	s.commit(st)
	s.emit(ctx, EventPhaseComplete, observability.LevelInfo, map[string]any{"phase": "upload"})

	return s.analyzeAndResearch(ctx, st)
}

func (s *Sequencer) analyzeAndResearch(ctx context.Context, st session.State) (session.State, error) {
	s.emit(ctx, EventPhaseStart, observability.LevelInfo, map[string]any{"phase": "analysis"})
	analysis, err := s.svcs.Analyze(ctx, st.Uploads)
	if err != nil {
		return s.failRun(ctx, st, "analysis", err)
	}

	st = st.WithAnalysis(*analysis).WithStep(session.StepResearch).
		AppendLog(session.LogInfo, fmt.Sprintf("analysis complete: %s site, %s industry", analysis.PageType, analysis.Industry))
	s.commit(st)
	s.emit(ctx, EventPhaseComplete, observability.LevelInfo, map[string]any{
		"phase":     "analysis",
		"page_type": string(analysis.PageType),
	})

	s.emit(ctx, EventPhaseStart, observability.LevelInfo, map[string]any{"phase": "research"})
	research, err := s.svcs.Research(ctx, analysis)
	if err != nil {
		return s.failRun(ctx, st, "research", err)
	}

	st = st.WithResearch(*research).WithStep(session.StepEditor).WithProcessing(false).
		AppendLog(session.LogInfo, "research complete, ready for refinement")
	s.emit(ctx, EventPhaseComplete, observability.LevelInfo, map[string]any{"phase": "research"})
	return s.commit(st), nil
}

func (s *Sequencer) failRun(ctx context.Context, st session.State, phase string, err error) (session.State, error) {
	st = st.WithError(err.Error()).AppendLog(session.LogError, err.Error())
	s.emit(ctx, EventRunFailed, observability.LevelError, map[string]any{
		"phase": phase,
		"error": err.Error(),
	})
	return s.commit(st), err
}

// SelectRecipe records the chosen generation recipe. The recipe survives run
// resets and is stamped onto every site the session produces.
func (s *Sequencer) SelectRecipe(recipe string) session.State {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	st := s.Snapshot().WithRecipe(recipe).
		AppendLog(session.LogInfo, fmt.Sprintf("recipe selected: %s", recipe))
	return s.commit(st)
}

// slot is one asset to resolve during the generation phase, in display order.
type slot struct {
	kind    site.AssetKind
	prompt  string
	userRef string // non-empty bypasses generation
}

// slotOutcome accumulates resolved assets and recovered-failure warnings
// across the sequential generation chain.
type slotOutcome struct {
	assets   []site.Asset
	warnings []string
}

// ConfirmRefinement applies the user's typed overrides to the committed
// research result and runs the back half of the pipeline: asset generation
// (sequential, in slot order), site code generation, and publication of the
// finished site to the active slot and the gallery.
//
// A failed image-generation call never fails the run; the slot receives the
// fixed placeholder reference and a warning is logged. Code generation
// failure is fatal. Gallery persistence failure degrades silently.
func (s *Sequencer) ConfirmRefinement(ctx context.Context, patch design.Patch) (session.State, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	st := s.Snapshot()
	if st.Research == nil {
		return st, fmt.Errorf("no research result to refine")
	}

	st = st.WithPatch(patch).WithProcessing(true).WithStep(session.StepGeneration).
		AppendLog(session.LogInfo, "refinement confirmed, generating assets")
	s.commit(st)
	s.emit(ctx, EventPhaseStart, observability.LevelInfo, map[string]any{"phase": "generation"})

	merged := patch.Apply(*st.Research)
	slots := deriveSlots(st.Analysis, merged)

	result, err := workflows.ProcessChain(ctx, s.chainCfg, slots, slotOutcome{}, s.resolveSlot, nil)
	if err != nil {
		return s.failRun(ctx, st, "generation", err)
	}

	outcome := result.Final
	st = st.WithAssets(outcome.assets)
	for _, w := range outcome.warnings {
		st = st.AppendLog(session.LogWarn, w)
		s.emit(ctx, EventAssetFallback, observability.LevelWarning, map[string]any{"warning": w})
	}
	st = st.WithStep(session.StepCoding).
		AppendLog(session.LogInfo, fmt.Sprintf("%d asset(s) resolved", len(outcome.assets)))
	s.commit(st)
	s.emit(ctx, EventPhaseComplete, observability.LevelInfo, map[string]any{
		"phase":       "generation",
		"asset_count": len(outcome.assets),
		"fallbacks":   len(outcome.warnings),
	})

	s.emit(ctx, EventPhaseStart, observability.LevelInfo, map[string]any{"phase": "coding"})
	refs := make([]string, len(outcome.assets))
	for i, a := range outcome.assets {
		refs[i] = a.Ref
	}

	pages, err := s.svcs.GenerateSiteCode(ctx, st.Analysis, &merged, refs)
	if err != nil {
		return s.failRun(ctx, st, "coding", err)
	}

	generated := site.Site{
		ID:        uuid.NewString(),
		Name:      siteName(merged),
		Pages:     pages,
		CreatedAt: time.Now(),
		Assets:    outcome.assets,
		Analysis:  st.Analysis,
		Recipe:    st.Recipe,
	}

	st = st.WithActive(generated).
		WithGallery(st.Gallery.Insert(generated)).
		WithStep(session.StepPreview).
		WithProcessing(false).
		AppendLog(session.LogInfo, fmt.Sprintf("site ready: %s", generated.Name))
	s.commit(st)
	s.emit(ctx, EventPhaseComplete, observability.LevelInfo, map[string]any{
		"phase":   "coding",
		"site_id": generated.ID,
		"pages":   len(pages),
	})

	s.persist(ctx, st.Gallery)
	return st, nil
}

func deriveSlots(analysis *design.AnalysisResult, research design.ResearchResult) []slot {
	industry := "modern business"
	if analysis != nil && analysis.Industry != "" {
		industry = analysis.Industry
	}

	headline := research.Copy.Headline
	if headline == "" {
		headline = "a modern website"
	}

	slots := []slot{
		{
			kind:   site.KindHero,
			prompt: fmt.Sprintf("wide hero banner for a %s website, theme: %s", industry, headline),
		},
		{
			kind:   site.KindFeature,
			prompt: fmt.Sprintf("supporting feature illustration for a %s website", industry),
		},
	}
	for _, p := range research.Products {
		sl := slot{
			kind:    site.KindProduct,
			prompt:  fmt.Sprintf("product photo of %s on a neutral background", p.Name),
			userRef: p.ImageRef,
		}
		slots = append(slots, sl)
	}
	return slots
}

func (s *Sequencer) resolveSlot(ctx context.Context, sl slot, acc slotOutcome) (slotOutcome, error) {
	asset := site.Asset{
		ID:     uuid.NewString(),
		Kind:   sl.kind,
		Prompt: sl.prompt,
	}

	if sl.userRef != "" {
		asset.Ref = sl.userRef
		asset.Prompt = site.UserSuppliedPrompt
		acc.assets = append(acc.assets, asset)
		return acc, nil
	}

	ref, err := s.svcs.GenerateImage(ctx, sl.prompt, sl.kind)
	if err != nil {
		acc.warnings = append(acc.warnings, fmt.Sprintf("%s image failed, using placeholder: %v", sl.kind, err))
		ref = site.FallbackRef
	}
	asset.Ref = ref
	acc.assets = append(acc.assets, asset)
	return acc, nil
}

func siteName(research design.ResearchResult) string {
	if research.Copy.ValueProposition != "" {
		return research.Copy.ValueProposition
	}
	return "Untitled Site"
}

// Remix starts a new run seeded from a gallery entry: run fields are cleared,
// then the entry's analysis, assets, and recipe are restored and the entry
// itself becomes the active site at the preview step. Research and patch are
// not restored; a remix re-enters refinement from scratch.
func (s *Sequencer) Remix(id string) (session.State, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	st := s.Snapshot()
	target, ok := st.Gallery.Get(id)
	if !ok {
		return st, fmt.Errorf("no gallery entry with id %s", id)
	}

	next := st.ResetRun().WithRecipe(target.Recipe)
	if target.Analysis != nil {
		next = next.WithAnalysis(*target.Analysis)
	}
	next = next.WithAssets(target.Assets).
		WithActive(target).
		WithStep(session.StepPreview).
		AppendLog(session.LogInfo, fmt.Sprintf("remixing %s", target.Name))
	return s.commit(next), nil
}

// SelectPage changes the active page of the active site. Out-of-range
// indexes and the absence of an active site are no-ops.
func (s *Sequencer) SelectPage(index int) session.State {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	st := s.Snapshot()
	if st.Active == nil {
		return st
	}
	return s.commit(st.WithActive(st.Active.WithActivePage(index)))
}

// HotSwapAsset replaces an asset reference on the active site, rewriting
// every literal occurrence of the old reference in the page sources. The
// session's asset list and the site's gallery entry are updated to match,
// and the gallery is re-persisted. Without an active site or a matching
// asset the call is a silent no-op returning the prior state.
func (s *Sequencer) HotSwapAsset(ctx context.Context, assetID, newRef string) session.State {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	st := s.Snapshot()
	if st.Active == nil {
		return st
	}

	swapped, ok := st.Active.SwapAssetRef(assetID, newRef)
	if !ok {
		return st
	}

	mirrored := append([]site.Asset(nil), st.Assets...)
	for i := range mirrored {
		if mirrored[i].ID == assetID {
			mirrored[i].Ref = newRef
		}
	}

	next := st.WithActive(swapped).
		WithAssets(mirrored).
		WithGallery(st.Gallery.Update(swapped)).
		AppendLog(session.LogInfo, fmt.Sprintf("asset %s swapped", assetID))
	s.commit(next)
	s.emit(ctx, EventAssetSwapped, observability.LevelInfo, map[string]any{
		"asset_id": assetID,
		"site_id":  swapped.ID,
	})

	s.persist(ctx, next.Gallery)
	return next
}

// RecordDeployment attaches a deployment record to the active site and its
// gallery entry. A provider site id from an earlier deployment is preserved
// when the incoming record does not carry one. Without an active site the
// call is a silent no-op returning the prior state.
func (s *Sequencer) RecordDeployment(ctx context.Context, d site.Deployment) session.State {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	st := s.Snapshot()
	if st.Active == nil {
		return st
	}

	updated := st.Active.WithDeployment(d)
	next := st.WithActive(updated).
		WithGallery(st.Gallery.Update(updated)).
		AppendLog(session.LogInfo, fmt.Sprintf("deployment %s on %s", d.Status, d.Platform))
	s.commit(next)
	s.emit(ctx, EventDeploymentRecorded, observability.LevelInfo, map[string]any{
		"site_id":  updated.ID,
		"status":   string(d.Status),
		"platform": d.Platform,
	})

	s.persist(ctx, next.Gallery)
	return next
}

// Reset clears the current run. The gallery is the only surviving state.
func (s *Sequencer) Reset() session.State {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	return s.commit(s.Snapshot().ResetRun())
}

// persist writes the gallery through the store when one is configured.
// Failures degrade: the in-memory gallery stays authoritative and the error
// is reported only to the observer.
func (s *Sequencer) persist(ctx context.Context, g gallery.Gallery) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, g.Sites()); err != nil {
		s.emit(ctx, EventGalleryPersistFailed, observability.LevelWarning, map[string]any{
			"operation": "save",
			"error":     err.Error(),
		})
	}
}
