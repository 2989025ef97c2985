package interfaces

import (
	"context"

	"github.com/ledgerline/refundgate/pkg/domain/model"
)

// OrderRepository defines read access to orders plus a Put used for seeding.
// Orders are owned by the shop system; this pipeline never mutates them.
type OrderRepository interface {
	// Get retrieves an order by ID
	Get(ctx context.Context, id string) (*model.Order, error)

	// GetForUser retrieves an order only if it belongs to the given user
	GetForUser(ctx context.Context, id, userID string) (*model.Order, error)

	// Put stores an order (seed data and tests)
	Put(ctx context.Context, order *model.Order) error
}
