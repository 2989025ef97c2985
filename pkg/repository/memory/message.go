package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type messageRepository struct {
	mu       sync.RWMutex
	byThread map[string][]*model.Message
}

func newMessageRepository() *messageRepository {
	return &messageRepository{
		byThread: make(map[string][]*model.Message),
	}
}

func copyMessage(m *model.Message) *model.Message {
	copied := *m
	return &copied
}

func (r *messageRepository) Append(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if msg.ThreadID == "" {
		return nil, goerr.New("thread ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyMessage(msg)
	if stored.ID == "" {
		stored.ID = uuid.Must(uuid.NewV7()).String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	r.byThread[stored.ThreadID] = append(r.byThread[stored.ThreadID], stored)

	return copyMessage(stored), nil
}

func (r *messageRepository) ListRecent(ctx context.Context, threadID string, limit int) ([]*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	thread := r.byThread[threadID]
	start := 0
	if limit > 0 && len(thread) > limit {
		start = len(thread) - limit
	}

	messages := make([]*model.Message, 0, len(thread)-start)
	for _, m := range thread[start:] {
		messages = append(messages, copyMessage(m))
	}
	return messages, nil
}
