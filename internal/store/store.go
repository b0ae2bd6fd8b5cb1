// Package store persists canonical activities, keyed by external URL.
package store

import (
	"context"
	"errors"

	"github.com/wandero/activity-ingest-service/internal/domain"
)

// ErrUpsertFailed wraps any store rejection of a batch write. The pipeline
// treats it as fatal for the run; the HTTP layer maps it onto the
// "Failed to save activities" response with the scraped data attached.
var ErrUpsertFailed = errors.New("upsert activities")

// Upserter writes canonical activity batches idempotently.
type Upserter interface {
	// UpsertBatch inserts the batch, silently dropping records whose
	// external_url already exists, and returns the number of rows actually
	// inserted. The batch is atomic: any failure inserts nothing.
	UpsertBatch(ctx context.Context, activities []domain.CanonicalActivity) (int, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
