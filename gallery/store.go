package gallery

import (
	"context"
	"errors"

	"github.com/sitewright/engine/core/site"
)

// ErrLoadFailed wraps storage read failures.
var ErrLoadFailed = errors.New("gallery load failed")

// ErrSaveFailed wraps storage write failures.
var ErrSaveFailed = errors.New("gallery save failed")

// Store persists the serialized gallery as a single named record.
// Implementations are stateless — they perform I/O on each call. Read/write
// failures are the caller's to degrade on; persistence is never part of the
// pipeline's success contract.
type Store interface {
	// Load reads the persisted site list, most-recent-first. A missing
	// record yields an empty list and no error.
	Load(ctx context.Context) ([]site.Site, error)
	// Save overwrites the persisted record with the given site list.
	Save(ctx context.Context, sites []site.Site) error
}
