package pipeline

import "github.com/sitewright/engine/observability"

const (
	// Phase transitions
	EventPhaseStart    observability.EventType = "phase.start"
	EventPhaseComplete observability.EventType = "phase.complete"
	EventRunFailed     observability.EventType = "run.failed"

	// Asset lifecycle
	EventAssetFallback observability.EventType = "asset.fallback"
	EventAssetSwapped  observability.EventType = "asset.swapped"

	// Gallery and deployment
	EventGalleryLoaded        observability.EventType = "gallery.loaded"
	EventGalleryPersistFailed observability.EventType = "gallery.persist_failed"
	EventDeploymentRecorded   observability.EventType = "deployment.recorded"
)
