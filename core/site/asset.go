// Package site defines the generated-site model: pages, assets, deployment
// records, and the Site aggregate. A Site is immutable after creation except
// through SwapAssetRef, WithDeployment, and WithActivePage, each of which
// returns a derived copy.
package site

// AssetKind is the semantic role of a generated asset within a site.
type AssetKind string

const (
	KindHero     AssetKind = "hero"
	KindFeature  AssetKind = "feature"
	KindProduct  AssetKind = "product"
	KindAbstract AssetKind = "abstract"
	KindIcon     AssetKind = "icon"
	KindCar      AssetKind = "car"
)

// UserSuppliedPrompt marks an asset whose reference was provided by the user
// rather than produced by an image-generation call.
const UserSuppliedPrompt = "user-supplied"

// FallbackRef is the fixed placeholder reference recorded for a slot whose
// image-generation call failed.
const FallbackRef = "https://placehold.co/1024x768?text=image+unavailable"

// Asset is one generated (or user-supplied) asset. ID is unique within a
// site; Ref is the resolved reference (URL or embedded data) and is the value
// that appears literally inside generated page source.
type Asset struct {
	ID     string    `json:"id"`
	Kind   AssetKind `json:"kind"`
	Ref    string    `json:"ref"`
	Prompt string    `json:"prompt"`
}
