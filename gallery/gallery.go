// Package gallery provides the bounded, order-preserving store of completed
// generation results, plus its durable persistence. The in-memory Gallery is
// an explicit ordered sequence, most-recent-first, with the eviction rule
// applied on insert; the Store interface persists it as a single record.
package gallery

import "github.com/sitewright/engine/core/site"

// DefaultLimit is the maximum number of retained sites.
const DefaultLimit = 20

// Gallery is a bounded, most-recent-first sequence of sites. All operations
// return a derived copy; a Gallery value is never mutated in place.
type Gallery struct {
	limit int
	sites []site.Site
}

// New creates an empty Gallery. A non-positive limit falls back to
// DefaultLimit.
func New(limit int) Gallery {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Gallery{limit: limit}
}

// FromSites creates a Gallery seeded with the given sites, truncated to the
// limit. Order is preserved (callers pass most-recent-first).
func FromSites(limit int, sites []site.Site) Gallery {
	g := New(limit)
	if len(sites) > g.limit {
		sites = sites[:g.limit]
	}
	g.sites = append([]site.Site(nil), sites...)
	return g
}

// Len returns the number of stored sites.
func (g Gallery) Len() int {
	return len(g.sites)
}

// Limit returns the eviction bound.
func (g Gallery) Limit() int {
	return g.limit
}

// Sites returns a defensive copy of the stored sites, most-recent-first.
func (g Gallery) Sites() []site.Site {
	out := make([]site.Site, len(g.sites))
	for i, s := range g.sites {
		out[i] = s.Clone()
	}
	return out
}

// First returns the most recent site.
func (g Gallery) First() (site.Site, bool) {
	if len(g.sites) == 0 {
		return site.Site{}, false
	}
	return g.sites[0].Clone(), true
}

// Get returns the site with the given identifier.
func (g Gallery) Get(id string) (site.Site, bool) {
	for _, s := range g.sites {
		if s.ID == id {
			return s.Clone(), true
		}
	}
	return site.Site{}, false
}

// Insert prepends s and evicts the oldest entries beyond the limit.
func (g Gallery) Insert(s site.Site) Gallery {
	sites := make([]site.Site, 0, len(g.sites)+1)
	sites = append(sites, s.Clone())
	sites = append(sites, g.sites...)
	if len(sites) > g.limit {
		sites = sites[:g.limit]
	}
	return Gallery{limit: g.limit, sites: sites}
}

// Update replaces the entry whose ID matches s, keeping its position. When no
// entry matches, the Gallery is returned unchanged.
func (g Gallery) Update(s site.Site) Gallery {
	for i, existing := range g.sites {
		if existing.ID == s.ID {
			sites := append([]site.Site(nil), g.sites...)
			sites[i] = s.Clone()
			return Gallery{limit: g.limit, sites: sites}
		}
	}
	return g
}
