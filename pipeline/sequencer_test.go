package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/sitewright/engine/core/design"
	"github.com/sitewright/engine/core/site"
	"github.com/sitewright/engine/gallery"
	"github.com/sitewright/engine/pipeline"
	"github.com/sitewright/engine/session"
)

// mockServices is a scriptable services implementation that records calls.
type mockServices struct {
	mu sync.Mutex

	analyzeErr  error
	researchErr error
	codegenErr  error
	imageErrs   map[site.AssetKind]error

	research design.ResearchResult

	imageCalls   []site.AssetKind
	lastResearch *design.ResearchResult
	lastRefs     []string
}

func newMockServices() *mockServices {
	return &mockServices{
		research: design.ResearchResult{
			Copy: design.Copy{
				Headline:         "Base Headline",
				ValueProposition: "Base Site",
				CallToAction:     "Go",
				About:            "About text.",
			},
			Keywords: []string{"base"},
		},
	}
}

func (m *mockServices) Analyze(_ context.Context, images []string) (*design.AnalysisResult, error) {
	if m.analyzeErr != nil {
		return nil, m.analyzeErr
	}
	return &design.AnalysisResult{
		PageType: design.PageTypeLanding,
		Industry: "testing",
	}, nil
}

func (m *mockServices) Research(_ context.Context, analysis *design.AnalysisResult) (*design.ResearchResult, error) {
	if m.researchErr != nil {
		return nil, m.researchErr
	}
	r := m.research.Clone()
	return &r, nil
}

func (m *mockServices) GenerateImage(_ context.Context, prompt string, kind site.AssetKind) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imageCalls = append(m.imageCalls, kind)
	if err := m.imageErrs[kind]; err != nil {
		return "", err
	}
	return fmt.Sprintf("https://img.test/%s-%d", kind, len(m.imageCalls)), nil
}

func (m *mockServices) GenerateSiteCode(_ context.Context, analysis *design.AnalysisResult, research *design.ResearchResult, assetRefs []string) ([]site.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codegenErr != nil {
		return nil, m.codegenErr
	}
	m.lastResearch = research
	m.lastRefs = append([]string(nil), assetRefs...)

	var src strings.Builder
	src.WriteString("<html><body>")
	for _, ref := range assetRefs {
		fmt.Fprintf(&src, "<img src=%q>", ref)
	}
	src.WriteString("</body></html>")
	return []site.Page{{Name: "Home", Filename: "index.html", Source: src.String()}}, nil
}

// memStore is an in-memory gallery store with a scriptable save failure.
type memStore struct {
	mu      sync.Mutex
	sites   []site.Site
	saveErr error
	saves   int
}

func (m *memStore) Load(_ context.Context) ([]site.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]site.Site(nil), m.sites...), nil
}

func (m *memStore) Save(_ context.Context, sites []site.Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sites = append([]site.Site(nil), sites...)
	return nil
}

func quietConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Observer = "noop"
	cfg.Chain.Observer = "noop"
	cfg.Parallel.Observer = "noop"
	return cfg
}

func pngUpload(t *testing.T, name string) pipeline.Upload {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return pipeline.Upload{Name: name, Data: buf.Bytes()}
}

func newTestSequencer(t *testing.T, svcs *mockServices, opts ...pipeline.Option) *pipeline.Sequencer {
	t.Helper()
	cfg := quietConfig()
	seq, err := pipeline.New(&cfg, append([]pipeline.Option{pipeline.WithServices(svcs)}, opts...)...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return seq
}

func runToEditor(t *testing.T, seq *pipeline.Sequencer) session.State {
	t.Helper()
	st, err := seq.AcceptUploads(context.Background(), []pipeline.Upload{pngUpload(t, "mockup.png")})
	if err != nil {
		t.Fatalf("AcceptUploads failed: %v", err)
	}
	return st
}

func TestAcceptUploads_RunsThroughResearch(t *testing.T) {
	seq := newTestSequencer(t, newMockServices())

	st := runToEditor(t, seq)

	if st.Step != session.StepEditor {
		t.Errorf("Step = %s, want %s", st.Step, session.StepEditor)
	}
	if st.Processing {
		t.Error("Processing should be cleared at the editor step")
	}
	if st.Analysis == nil || st.Research == nil {
		t.Fatal("Expected analysis and research to be committed")
	}
	if len(st.Uploads) != 1 || !strings.HasPrefix(st.Uploads[0], "data:image/png;base64,") {
		t.Errorf("uploads not committed as data URIs: %v", st.Uploads)
	}
}

func TestAcceptUploads_AllOrNothing(t *testing.T) {
	seq := newTestSequencer(t, newMockServices())

	uploads := []pipeline.Upload{
		pngUpload(t, "good.png"),
		{Name: "bad.txt", Data: []byte("not an image")},
	}

	st, err := seq.AcceptUploads(context.Background(), uploads)
	if err == nil {
		t.Fatal("Expected error for a batch containing a bad file")
	}
	if len(st.Uploads) != 0 {
		t.Errorf("no uploads should be committed on batch failure, got %d", len(st.Uploads))
	}
	if st.Step != session.StepUpload {
		t.Errorf("Step = %s, want %s", st.Step, session.StepUpload)
	}
	if st.Err == "" {
		t.Error("Expected the error to be recorded on state")
	}
	if st.Processing {
		t.Error("Processing should be cleared on failure")
	}
}

func TestAcceptUploads_AnalysisFailureIsFatal(t *testing.T) {
	svcs := newMockServices()
	svcs.analyzeErr = errors.New("provider unavailable")
	seq := newTestSequencer(t, svcs)

	st, err := seq.AcceptUploads(context.Background(), []pipeline.Upload{pngUpload(t, "m.png")})
	if err == nil {
		t.Fatal("Expected analysis failure to surface")
	}
	if st.Step != session.StepAnalysis {
		t.Errorf("Step = %s, want %s (stop where the failure occurred)", st.Step, session.StepAnalysis)
	}
	if len(st.Uploads) != 1 {
		t.Error("committed uploads should survive a later phase failure")
	}
	if st.Analysis != nil {
		t.Error("no analysis should be committed on failure")
	}
}

func TestConfirmRefinement_FullRun(t *testing.T) {
	svcs := newMockServices()
	seq := newTestSequencer(t, svcs)
	runToEditor(t, seq)

	st, err := seq.ConfirmRefinement(context.Background(), design.Patch{})
	if err != nil {
		t.Fatalf("ConfirmRefinement failed: %v", err)
	}

	if st.Step != session.StepPreview {
		t.Errorf("Step = %s, want %s", st.Step, session.StepPreview)
	}
	if st.Active == nil {
		t.Fatal("Expected an active site")
	}
	if st.Active.Name != "Base Site" {
		t.Errorf("site name = %q, want the value proposition", st.Active.Name)
	}
	if st.Gallery.Len() != 1 {
		t.Errorf("gallery length = %d, want 1", st.Gallery.Len())
	}

	// Hero then feature, in slot order, with refs embedded literally.
	if len(st.Assets) != 2 {
		t.Fatalf("asset count = %d, want 2", len(st.Assets))
	}
	if st.Assets[0].Kind != site.KindHero || st.Assets[1].Kind != site.KindFeature {
		t.Errorf("slot order wrong: %s, %s", st.Assets[0].Kind, st.Assets[1].Kind)
	}
	for _, a := range st.Assets {
		if !strings.Contains(st.Active.Pages[0].Source, a.Ref) {
			t.Errorf("asset ref %q not embedded in page source", a.Ref)
		}
	}
}

func TestConfirmRefinement_RequiresResearch(t *testing.T) {
	seq := newTestSequencer(t, newMockServices())

	if _, err := seq.ConfirmRefinement(context.Background(), design.Patch{}); err == nil {
		t.Fatal("Expected error before research is committed")
	}
}

func TestConfirmRefinement_PatchAppliedToCodegenOnly(t *testing.T) {
	svcs := newMockServices()
	seq := newTestSequencer(t, svcs)
	runToEditor(t, seq)

	patch := design.Patch{
		Copy: &design.Copy{Headline: "Patched", ValueProposition: "Patched Site"},
	}
	st, err := seq.ConfirmRefinement(context.Background(), patch)
	if err != nil {
		t.Fatalf("ConfirmRefinement failed: %v", err)
	}

	if svcs.lastResearch.Copy.Headline != "Patched" {
		t.Errorf("codegen saw headline %q, want the patched value", svcs.lastResearch.Copy.Headline)
	}
	if st.Research.Copy.Headline != "Base Headline" {
		t.Errorf("committed research was mutated: %q", st.Research.Copy.Headline)
	}
	if st.Patch == nil || st.Patch.Copy == nil {
		t.Error("patch should be recorded on state")
	}
	if st.Active.Name != "Patched Site" {
		t.Errorf("site name = %q, want patched value proposition", st.Active.Name)
	}
}

func TestConfirmRefinement_SlotFailureRecovers(t *testing.T) {
	svcs := newMockServices()
	svcs.imageErrs = map[site.AssetKind]error{
		site.KindFeature: errors.New("rate limited"),
	}
	seq := newTestSequencer(t, svcs)
	runToEditor(t, seq)

	st, err := seq.ConfirmRefinement(context.Background(), design.Patch{})
	if err != nil {
		t.Fatalf("a slot failure must not fail the run: %v", err)
	}

	if st.Assets[1].Ref != site.FallbackRef {
		t.Errorf("failed slot ref = %q, want fallback", st.Assets[1].Ref)
	}
	if st.Assets[0].Ref == site.FallbackRef {
		t.Error("healthy slot should keep its generated ref")
	}

	var warned bool
	for _, e := range st.Log {
		if e.Level == session.LogWarn && strings.Contains(e.Message, "feature") {
			warned = true
		}
	}
	if !warned {
		t.Error("Expected a warning log entry for the failed slot")
	}
	if st.Step != session.StepPreview {
		t.Errorf("Step = %s, want %s", st.Step, session.StepPreview)
	}
}

func TestConfirmRefinement_UserImageBypassesGeneration(t *testing.T) {
	svcs := newMockServices()
	seq := newTestSequencer(t, svcs)
	runToEditor(t, seq)

	patch := design.Patch{
		Products: &[]design.Product{
			{ID: "p1", Name: "Widget", ImageRef: "https://user.example/widget.png"},
			{ID: "p2", Name: "Gadget"},
		},
	}
	st, err := seq.ConfirmRefinement(context.Background(), patch)
	if err != nil {
		t.Fatalf("ConfirmRefinement failed: %v", err)
	}

	if len(st.Assets) != 4 {
		t.Fatalf("asset count = %d, want hero+feature+2 products", len(st.Assets))
	}
	widget := st.Assets[2]
	if widget.Ref != "https://user.example/widget.png" {
		t.Errorf("user-supplied ref not used: %q", widget.Ref)
	}
	if widget.Prompt != site.UserSuppliedPrompt {
		t.Errorf("prompt = %q, want the user-supplied marker", widget.Prompt)
	}

	// Only hero, feature, and the second product hit the image service.
	if len(svcs.imageCalls) != 3 {
		t.Errorf("image calls = %v, want 3 (hero, feature, one product)", svcs.imageCalls)
	}
}

func TestConfirmRefinement_CodegenFailureIsFatal(t *testing.T) {
	svcs := newMockServices()
	svcs.codegenErr = errors.New("model overloaded")
	seq := newTestSequencer(t, svcs)
	runToEditor(t, seq)

	st, err := seq.ConfirmRefinement(context.Background(), design.Patch{})
	if err == nil {
		t.Fatal("Expected codegen failure to surface")
	}
	if st.Active != nil {
		t.Error("no site should be published on codegen failure")
	}
	if st.Gallery.Len() != 0 {
		t.Error("gallery must not grow on codegen failure")
	}
	if st.Step != session.StepCoding {
		t.Errorf("Step = %s, want %s", st.Step, session.StepCoding)
	}
	if len(st.Assets) != 2 {
		t.Error("resolved assets should survive the codegen failure")
	}
}

func TestGallery_InsertEvictsOldest(t *testing.T) {
	svcs := newMockServices()
	cfg := quietConfig()
	cfg.Gallery.Limit = 2
	seq, err := pipeline.New(&cfg, pipeline.WithServices(svcs))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var ids []string
	for i := 0; i < 3; i++ {
		runToEditor(t, seq)
		st, err := seq.ConfirmRefinement(context.Background(), design.Patch{})
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		ids = append(ids, st.Active.ID)
	}

	st := seq.Snapshot()
	if st.Gallery.Len() != 2 {
		t.Fatalf("gallery length = %d, want 2", st.Gallery.Len())
	}
	sites := st.Gallery.Sites()
	if sites[0].ID != ids[2] || sites[1].ID != ids[1] {
		t.Error("gallery should hold the two most recent sites, newest first")
	}
	if _, ok := st.Gallery.Get(ids[0]); ok {
		t.Error("oldest site should be evicted")
	}
}

func TestHotSwapAsset_RewritesPagesAndGallery(t *testing.T) {
	svcs := newMockServices()
	seq := newTestSequencer(t, svcs)
	runToEditor(t, seq)
	st, err := seq.ConfirmRefinement(context.Background(), design.Patch{})
	if err != nil {
		t.Fatalf("ConfirmRefinement failed: %v", err)
	}

	hero := st.Assets[0]
	newRef := "https://cdn.example/hero-v2.png"

	st = seq.HotSwapAsset(context.Background(), hero.ID, newRef)

	if strings.Contains(st.Active.Pages[0].Source, hero.Ref) {
		t.Error("old ref still present in page source")
	}
	if !strings.Contains(st.Active.Pages[0].Source, newRef) {
		t.Error("new ref not written into page source")
	}
	if st.Assets[0].Ref != newRef {
		t.Error("session asset list not mirrored")
	}

	entry, ok := st.Gallery.Get(st.Active.ID)
	if !ok {
		t.Fatal("active site missing from gallery")
	}
	if !strings.Contains(entry.Pages[0].Source, newRef) {
		t.Error("gallery entry not updated with swapped ref")
	}
}

func TestHotSwapAsset_UnknownAssetIsNoOp(t *testing.T) {
	svcs := newMockServices()
	seq := newTestSequencer(t, svcs)
	runToEditor(t, seq)
	before, err := seq.ConfirmRefinement(context.Background(), design.Patch{})
	if err != nil {
		t.Fatalf("ConfirmRefinement failed: %v", err)
	}

	after := seq.HotSwapAsset(context.Background(), "missing", "x")
	if after.Active.Pages[0].Source != before.Active.Pages[0].Source {
		t.Error("state must be unchanged after a swap of an unknown asset")
	}
	if after.Err != "" {
		t.Error("a lookup no-op must not be classified as an error")
	}
}

func TestRecordDeployment_NoActiveSiteIsNoOp(t *testing.T) {
	seq := newTestSequencer(t, newMockServices())

	st := seq.RecordDeployment(context.Background(), site.Deployment{Status: site.DeployReady})
	if st.Active != nil || st.Err != "" {
		t.Error("deployment without an active site must leave state unchanged")
	}
}

func TestRecordDeployment_PreservesProviderSiteID(t *testing.T) {
	svcs := newMockServices()
	seq := newTestSequencer(t, svcs)
	runToEditor(t, seq)
	if _, err := seq.ConfirmRefinement(context.Background(), design.Patch{}); err != nil {
		t.Fatalf("ConfirmRefinement failed: %v", err)
	}

	first := site.Deployment{Status: site.DeployReady, Platform: "netlify", SiteID: "site-123", URL: "https://a.example"}
	seq.RecordDeployment(context.Background(), first)

	second := site.Deployment{Status: site.DeployUploading, Platform: "netlify"}
	st := seq.RecordDeployment(context.Background(), second)

	if st.Active.Deployment.SiteID != "site-123" {
		t.Errorf("SiteID = %q, want the preserved provider id", st.Active.Deployment.SiteID)
	}
	if st.Active.Deployment.Status != site.DeployUploading {
		t.Errorf("Status = %s, want the incoming status", st.Active.Deployment.Status)
	}

	entry, _ := st.Gallery.Get(st.Active.ID)
	if entry.Deployment == nil || entry.Deployment.SiteID != "site-123" {
		t.Error("gallery entry should mirror the deployment record")
	}
}

func TestPersistenceFailureDoesNotFailRun(t *testing.T) {
	svcs := newMockServices()
	store := &memStore{saveErr: errors.New("disk full")}
	seq := newTestSequencer(t, svcs, pipeline.WithStore(store))
	runToEditor(t, seq)

	st, err := seq.ConfirmRefinement(context.Background(), design.Patch{})
	if err != nil {
		t.Fatalf("persistence failure must not fail the run: %v", err)
	}
	if st.Step != session.StepPreview || st.Gallery.Len() != 1 {
		t.Error("in-memory result should be intact despite the save failure")
	}
	if store.saves == 0 {
		t.Error("a save should have been attempted")
	}
}

func TestNew_LoadsPersistedGallery(t *testing.T) {
	store := &memStore{sites: []site.Site{
		{ID: "s1", Name: "Persisted"},
	}}
	seq := newTestSequencer(t, newMockServices(), pipeline.WithStore(store))

	st := seq.Snapshot()
	if st.Gallery.Len() != 1 {
		t.Fatalf("gallery length = %d, want 1", st.Gallery.Len())
	}
	if _, ok := st.Gallery.Get("s1"); !ok {
		t.Error("persisted site not loaded")
	}
}

func TestRemix_RestoresAnalysisAndAssets(t *testing.T) {
	svcs := newMockServices()
	seq := newTestSequencer(t, svcs)
	runToEditor(t, seq)
	st, err := seq.ConfirmRefinement(context.Background(), design.Patch{})
	if err != nil {
		t.Fatalf("ConfirmRefinement failed: %v", err)
	}
	original := st.Active.ID

	seq.Reset()

	st, err = seq.Remix(original)
	if err != nil {
		t.Fatalf("Remix failed: %v", err)
	}
	if st.Step != session.StepPreview {
		t.Errorf("Step = %s, want %s", st.Step, session.StepPreview)
	}
	if st.Active == nil || st.Active.ID != original {
		t.Error("remixed site should be active")
	}
	if st.Analysis == nil {
		t.Error("analysis should be restored from the gallery entry")
	}
	if st.Research != nil || st.Patch != nil {
		t.Error("research and patch must not be restored")
	}
	if len(st.Assets) == 0 {
		t.Error("assets should be restored from the gallery entry")
	}
	if st.Gallery.Len() != 1 {
		t.Error("remix must not change the gallery")
	}
}

func TestRemix_UnknownIDIsError(t *testing.T) {
	seq := newTestSequencer(t, newMockServices())
	if _, err := seq.Remix("missing"); err == nil {
		t.Fatal("Expected error for unknown gallery id")
	}
}

func TestReset_KeepsGalleryOnly(t *testing.T) {
	svcs := newMockServices()
	seq := newTestSequencer(t, svcs)
	runToEditor(t, seq)
	if _, err := seq.ConfirmRefinement(context.Background(), design.Patch{}); err != nil {
		t.Fatalf("ConfirmRefinement failed: %v", err)
	}

	st := seq.Reset()
	if st.Step != session.StepUpload {
		t.Errorf("Step = %s, want %s", st.Step, session.StepUpload)
	}
	if st.Active != nil || st.Analysis != nil || st.Research != nil || len(st.Uploads) != 0 {
		t.Error("run state should be cleared")
	}
	if st.Gallery.Len() != 1 {
		t.Error("gallery must survive a reset")
	}
}

func TestSelectRecipe_SurvivesNewRun(t *testing.T) {
	svcs := newMockServices()
	seq := newTestSequencer(t, svcs)

	st := seq.SelectRecipe("minimalist")
	if st.Recipe != "minimalist" {
		t.Fatalf("recipe = %q, want minimalist", st.Recipe)
	}
	if st.Step != session.StepUpload {
		t.Error("recipe selection must not advance the step")
	}

	st = runToEditor(t, seq)
	if st.Recipe != "minimalist" {
		t.Error("recipe should survive a run reset")
	}

	st, err := seq.ConfirmRefinement(context.Background(), design.Patch{})
	if err != nil {
		t.Fatalf("ConfirmRefinement failed: %v", err)
	}
	if st.Active.Recipe != "minimalist" {
		t.Error("recipe should be stamped onto the generated site")
	}
}

func TestSelectPage_ClampsToRange(t *testing.T) {
	svcs := newMockServices()
	seq := newTestSequencer(t, svcs)
	runToEditor(t, seq)
	if _, err := seq.ConfirmRefinement(context.Background(), design.Patch{}); err != nil {
		t.Fatalf("ConfirmRefinement failed: %v", err)
	}

	st := seq.SelectPage(5)
	if st.Active.ActivePage != 0 {
		t.Errorf("out-of-range index changed ActivePage to %d", st.Active.ActivePage)
	}
	st = seq.SelectPage(0)
	if st.Active.ActivePage != 0 {
		t.Errorf("ActivePage = %d, want 0", st.Active.ActivePage)
	}
}

var _ gallery.Store = (*memStore)(nil)
