package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type orderRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newOrderRepository(client *firestore.Client) *orderRepository {
	return &orderRepository{client: client}
}

func (r *orderRepository) ordersCollection() string {
	return prefixed(r.collectionPrefix, "orders")
}

func (r *orderRepository) Get(ctx context.Context, id string) (*model.Order, error) {
	docSnap, err := r.client.Collection(r.ordersCollection()).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "order not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get order", goerr.V("id", id))
	}

	var o model.Order
	if err := docSnap.DataTo(&o); err != nil {
		return nil, goerr.Wrap(err, "failed to decode order", goerr.V("id", id))
	}

	return &o, nil
}

func (r *orderRepository) GetForUser(ctx context.Context, id, userID string) (*model.Order, error) {
	o, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		// Ownership mismatch is indistinguishable from absence on purpose
		return nil, goerr.Wrap(interfaces.ErrNotFound, "order not found",
			goerr.V("id", id), goerr.V("user_id", userID))
	}
	return o, nil
}

func (r *orderRepository) Put(ctx context.Context, order *model.Order) error {
	if order.ID == "" {
		return goerr.New("order ID is required")
	}

	_, err := r.client.Collection(r.ordersCollection()).Doc(order.ID).Set(ctx, order)
	if err != nil {
		return goerr.Wrap(err, "failed to put order", goerr.V("id", order.ID))
	}
	return nil
}
