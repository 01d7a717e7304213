package cache

import (
	"context"
	"errors"

	"github.com/augbriz/desarrollo-FE-tp/internal/domain"
)

// ErrMiss is returned when no snapshot is stored for an owner.
var ErrMiss = errors.New("snapshot not cached")

// Store keeps review snapshots keyed by owner.
type Store interface {
	Get(ctx context.Context, owner string) (*domain.Snapshot, error)
	Put(ctx context.Context, snap *domain.Snapshot) error
	Delete(ctx context.Context, owner string) error
	Ping(ctx context.Context) error
}
