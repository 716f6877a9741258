package account

import "context"

// Store persists account records. Update is the only write path for existing
// rows and must be a single compare-and-swap on (id, expectedVersion): the
// stored version becomes expectedVersion+1 and no intermediate state is
// observable by concurrent writers.
type Store interface {
	Create(ctx context.Context, a Account) error
	Get(ctx context.Context, id string) (Account, error)
	GetByNumber(ctx context.Context, number string) (Account, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Account, error)
	Count(ctx context.Context) (int64, error)

	// Update replaces balance, status and closure timestamp if and only if the
	// stored version equals expectedVersion, returning the updated record.
	// A missing row yields ErrNotFound, a version mismatch ErrVersionConflict.
	Update(ctx context.Context, a Account, expectedVersion int64) (Account, error)
}
