package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/ledgerline/refundgate/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// Firestore is the durable repository backend
type Firestore struct {
	client      *firestore.Client
	caseRepo    *caseRepository
	jobRepo     *jobRepository
	orderRepo   *orderRepository
	messageRepo *messageRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces all collections, mainly for tests sharing a
// project
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.caseRepo.collectionPrefix = prefix
		f.jobRepo.collectionPrefix = prefix
		f.orderRepo.collectionPrefix = prefix
		f.messageRepo.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:      client,
		caseRepo:    newCaseRepository(client),
		jobRepo:     newJobRepository(client),
		orderRepo:   newOrderRepository(client),
		messageRepo: newMessageRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Case() interfaces.CaseRepository {
	return f.caseRepo
}

func (f *Firestore) Job() interfaces.JobRepository {
	return f.jobRepo
}

func (f *Firestore) Order() interfaces.OrderRepository {
	return f.orderRepo
}

func (f *Firestore) Message() interfaces.MessageRepository {
	return f.messageRepo
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func prefixed(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}
