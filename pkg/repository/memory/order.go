package memory

import (
	"context"
	"sync"

	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type orderRepository struct {
	mu     sync.RWMutex
	orders map[string]*model.Order
}

func newOrderRepository() *orderRepository {
	return &orderRepository{
		orders: make(map[string]*model.Order),
	}
}

func copyOrder(o *model.Order) *model.Order {
	copied := *o
	if o.Items != nil {
		items := make([]model.OrderItem, len(o.Items))
		copy(items, o.Items)
		copied.Items = items
	}
	return &copied
}

func (r *orderRepository) Get(ctx context.Context, id string) (*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, exists := r.orders[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "order not found", goerr.V("id", id))
	}

	return copyOrder(o), nil
}

func (r *orderRepository) GetForUser(ctx context.Context, id, userID string) (*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, exists := r.orders[id]
	if !exists || o.UserID != userID {
		// Ownership mismatch is indistinguishable from absence on purpose
		return nil, goerr.Wrap(interfaces.ErrNotFound, "order not found",
			goerr.V("id", id), goerr.V("user_id", userID))
	}

	return copyOrder(o), nil
}

func (r *orderRepository) Put(ctx context.Context, order *model.Order) error {
	if order.ID == "" {
		return goerr.New("order ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders[order.ID] = copyOrder(order)
	return nil
}
