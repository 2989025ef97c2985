package interfaces

import (
	"context"

	"github.com/ledgerline/refundgate/pkg/domain/model"
)

// MessageRepository stores per-thread chat history
type MessageRepository interface {
	// Append stores a message at the end of its thread
	Append(ctx context.Context, msg *model.Message) (*model.Message, error)

	// ListRecent returns the thread's newest messages, oldest first, capped
	// at limit (0 means no cap)
	ListRecent(ctx context.Context, threadID string, limit int) ([]*model.Message, error)
}
