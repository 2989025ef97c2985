package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

type messageRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newMessageRepository(client *firestore.Client) *messageRepository {
	return &messageRepository{client: client}
}

func (r *messageRepository) messagesCollection() string {
	return prefixed(r.collectionPrefix, "messages")
}

func (r *messageRepository) Append(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if msg.ThreadID == "" {
		return nil, goerr.New("thread ID is required")
	}

	stored := *msg
	if stored.ID == "" {
		stored.ID = uuid.Must(uuid.NewV7()).String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	_, err := r.client.Collection(r.messagesCollection()).Doc(stored.ID).Create(ctx, &stored)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to append message",
			goerr.V("thread_id", stored.ThreadID))
	}

	return &stored, nil
}

func (r *messageRepository) ListRecent(ctx context.Context, threadID string, limit int) ([]*model.Message, error) {
	query := r.client.Collection(r.messagesCollection()).
		Where("ThreadID", "==", threadID).
		OrderBy("CreatedAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var newestFirst []*model.Message
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate messages",
				goerr.V("thread_id", threadID))
		}

		var m model.Message
		if err := docSnap.DataTo(&m); err != nil {
			return nil, goerr.Wrap(err, "failed to decode message", goerr.V("doc_id", docSnap.Ref.ID))
		}
		newestFirst = append(newestFirst, &m)
	}

	// The query is newest first; callers want chronological order
	messages := make([]*model.Message, len(newestFirst))
	for i, m := range newestFirst {
		messages[len(newestFirst)-1-i] = m
	}
	return messages, nil
}
