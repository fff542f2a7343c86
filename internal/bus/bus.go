package bus

import (
	"context"
	"time"
)

// QueueItem references a persisted chat message awaiting out-of-band
// translation. Content is the encrypted message body as stored.
type QueueItem struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
	Content   []byte `json:"content"`
}

// Queue is the FIFO work queue feeding the translation dispatch worker.
type Queue interface {
	Enqueue(ctx context.Context, item QueueItem) error

	// Dequeue blocks up to timeout and returns (nil, nil) when no item
	// arrived.
	Dequeue(ctx context.Context, timeout time.Duration) (*QueueItem, error)
}

// Publisher pushes room-scoped notifications across process boundaries so
// server instances holding other connections can react.
type Publisher interface {
	PublishRoomUpdate(ctx context.Context, roomID string, payload any) error
}
