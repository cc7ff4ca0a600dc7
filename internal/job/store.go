package job

import (
	"context"
	"errors"
)

// ErrNotFound is returned by every Store implementation when the id is unknown.
var ErrNotFound = errors.New("job not found")

// Store persists job records. Implementations must make Update an atomic
// partial merge with respect to concurrent Update and Get calls on the same id.
type Store interface {
	Store(ctx context.Context, id string, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Update(ctx context.Context, id string, p Patch) error
	Delete(ctx context.Context, id string) error
	// List returns every record in unspecified order.
	List(ctx context.Context) ([]Record, error)
}
