package punch

import "context"

// CacheRepository is the local fallback copy of the active session.
// It is a best-effort accelerator, never the system of record: the
// controller reconciles it (overwrite or clear) as soon as the API
// answers. Writes are last-writer-wins, read-then-overwrite.
type CacheRepository interface {
	// Read returns the cached session, or ErrCacheMiss when none is stored.
	Read(ctx context.Context) (Session, error)

	// Write replaces the cached session.
	Write(ctx context.Context, session Session) error

	// Clear removes the cached session. Clearing an empty cache is not
	// an error.
	Clear(ctx context.Context) error
}
