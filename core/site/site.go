package site

import (
	"strings"
	"time"

	"github.com/sitewright/engine/core/design"
)

// Site is one completed generation result. Pages, assets, and metadata are
// fixed at creation; the only mutation surface is the three With*/Swap
// methods, all of which return a derived copy and leave the receiver intact.
type Site struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Pages      []Page                 `json:"pages"`
	ActivePage int                    `json:"active_page"`
	CreatedAt  time.Time              `json:"created_at"`
	Assets     []Asset                `json:"assets,omitempty"`
	Deployment *Deployment            `json:"deployment,omitempty"`
	Analysis   *design.AnalysisResult `json:"analysis,omitempty"`
	Recipe     string                 `json:"recipe,omitempty"`
}

// Clone returns an independent copy of the site.
func (s Site) Clone() Site {
	out := s
	out.Pages = append([]Page(nil), s.Pages...)
	out.Assets = append([]Asset(nil), s.Assets...)
	if s.Deployment != nil {
		dep := *s.Deployment
		out.Deployment = &dep
	}
	if s.Analysis != nil {
		analysis := s.Analysis.Clone()
		out.Analysis = &analysis
	}
	return out
}

// SwapAssetRef replaces the reference of the asset identified by assetID with
// newRef, rewriting every literal occurrence of the old reference in every
// page's source text. The substitution is textual, not structural: two assets
// sharing a reference substring will both be rewritten.
//
// Returns the updated site and true, or the receiver unchanged and false when
// no asset carries assetID.
func (s Site) SwapAssetRef(assetID, newRef string) (Site, bool) {
	idx := -1
	for i, a := range s.Assets {
		if a.ID == assetID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, false
	}

	out := s.Clone()
	oldRef := out.Assets[idx].Ref
	out.Assets[idx].Ref = newRef

	if oldRef == newRef || oldRef == "" {
		return out, true
	}

	for i := range out.Pages {
		out.Pages[i].Source = strings.ReplaceAll(out.Pages[i].Source, oldRef, newRef)
	}
	return out, true
}

// WithDeployment attaches (or overwrites) the deployment record. A provider
// site id assigned by an earlier deployment is preserved when the incoming
// record does not carry one.
func (s Site) WithDeployment(d Deployment) Site {
	out := s.Clone()
	if d.SiteID == "" && s.Deployment != nil {
		d.SiteID = s.Deployment.SiteID
	}
	out.Deployment = &d
	return out
}

// WithActivePage returns a copy with the active page index set. Out-of-range
// indexes leave the site unchanged.
func (s Site) WithActivePage(index int) Site {
	if index < 0 || index >= len(s.Pages) {
		return s
	}
	out := s.Clone()
	out.ActivePage = index
	return out
}
